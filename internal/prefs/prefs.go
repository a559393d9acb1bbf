package prefs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Keys for the persisted filter selections
const (
	keySearchQuery = "search_query"
	keyRangeStart  = "range_start"
	keyRangeEnd    = "range_end"
	keyRangeFields = "range_fields"
)

// DefaultRangeFields are the date-like columns a range filter applies to
// when the user has not picked their own set.
var DefaultRangeFields = []string{"date", "created_at", "deadline"}

const dateLayout = "2006-01-02"

// Store is durable local key-value state, JSON-encoded values in SQLite.
// It survives process restarts and holds the task list's search query and
// date-range selections.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default store path (~/.daily-task/prefs.db)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".daily-task", "prefs.db"), nil
}

// Open opens or creates the store
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences store: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to preferences store: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("failed to migrate preferences store: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenDefault opens the store at the default path
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string, dest any) (bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(data))
	return err
}

// SearchQuery returns the persisted search query, empty by default
func (s *Store) SearchQuery() string {
	var q string
	if ok, err := s.get(keySearchQuery, &q); err != nil || !ok {
		return ""
	}
	return q
}

// SetSearchQuery persists the search query
func (s *Store) SetSearchQuery(q string) error {
	return s.set(keySearchQuery, q)
}

// DateRange returns the persisted range selection, today..today by default
func (s *Store) DateRange() (start, end string) {
	today := time.Now().Format(dateLayout)
	start, end = today, today

	var v string
	if ok, err := s.get(keyRangeStart, &v); err == nil && ok {
		start = v
	}
	if ok, err := s.get(keyRangeEnd, &v); err == nil && ok {
		end = v
	}
	return start, end
}

// SetDateRange persists the range selection
func (s *Store) SetDateRange(start, end string) error {
	if err := s.set(keyRangeStart, start); err != nil {
		return err
	}
	return s.set(keyRangeEnd, end)
}

// RangeFields returns the columns the range filter applies to
func (s *Store) RangeFields() []string {
	var fields []string
	if ok, err := s.get(keyRangeFields, &fields); err != nil || !ok || len(fields) == 0 {
		return append([]string{}, DefaultRangeFields...)
	}
	return fields
}

// SetRangeFields persists the range filter columns
func (s *Store) SetRangeFields(fields []string) error {
	return s.set(keyRangeFields, fields)
}
