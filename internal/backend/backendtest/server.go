// Package backendtest provides an in-memory stand-in for the remote row
// store, honoring the filter, ordering and mutation surface the client uses.
// Tests mount it with httptest.NewServer(srv.Handler()).
package backendtest

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Row is one table row
type Row = map[string]any

type injectedError struct {
	table   string // empty matches any table
	status  int
	code    string
	message string
}

// Server is a fake row store backed by in-memory tables
type Server struct {
	mu     sync.Mutex
	tables map[string][]Row
	users  map[string]userEntry // email -> credentials
	fail   []injectedError
	echo   *echo.Echo
}

type userEntry struct {
	password string
	id       string
	metadata map[string]any
}

// New creates an empty fake store
func New() *Server {
	s := &Server{
		tables: map[string][]Row{},
		users:  map[string]userEntry{},
	}

	e := echo.New()
	e.HideBanner = true
	e.Any("/rest/v1/:table", s.handleTable)
	e.POST("/auth/v1/token", s.handleToken)
	s.echo = e

	return s
}

// Handler returns the HTTP handler for httptest
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Seed inserts rows into a table without going through the HTTP surface
func (s *Server) Seed(table string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], rows...)
}

// Rows returns a copy of a table's rows for assertions
func (s *Server) Rows(table string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		clone := Row{}
		for k, v := range r {
			clone[k] = v
		}
		out = append(out, clone)
	}
	return out
}

// AddUser registers credentials accepted by the password grant endpoint
func (s *Server) AddUser(email, password, id string, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = userEntry{password: password, id: id, metadata: metadata}
}

// FailNext makes the next table request fail with the given structured error
func (s *Server) FailNext(status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = append(s.fail, injectedError{status: status, code: code, message: message})
}

// FailTable makes the next request against one table fail; requests to other
// tables pass through untouched
func (s *Server) FailTable(table string, status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = append(s.fail, injectedError{table: table, status: status, code: code, message: message})
}

func (s *Server) takeInjected(table string) *injectedError {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.fail {
		if e.table == "" || e.table == table {
			s.fail = append(s.fail[:i], s.fail[i+1:]...)
			return &e
		}
	}
	return nil
}

func (s *Server) handleToken(c echo.Context) error {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	s.mu.Lock()
	entry, ok := s.users[creds.Email]
	s.mu.Unlock()
	if !ok || entry.password != creds.Password {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid credentials"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"access_token":  "test-token-" + entry.id,
		"refresh_token": "test-refresh",
		"user": map[string]any{
			"id":            entry.id,
			"email":         creds.Email,
			"user_metadata": entry.metadata,
		},
	})
}

func (s *Server) handleTable(c echo.Context) error {
	table := c.Param("table")
	if inj := s.takeInjected(table); inj != nil {
		return c.JSON(inj.status, map[string]string{"code": inj.code, "message": inj.message})
	}

	params := c.QueryParams()
	filters := parseFilters(params)

	switch c.Request().Method {
	case http.MethodGet:
		return s.handleSelect(c, table, filters)
	case http.MethodPost:
		return s.handleInsert(c, table)
	case http.MethodPatch:
		return s.handleUpdate(c, table, filters)
	case http.MethodDelete:
		return s.handleDelete(c, table, filters)
	default:
		return c.NoContent(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSelect(c echo.Context, table string, filters []filter) error {
	s.mu.Lock()
	var matched []Row
	for _, row := range s.tables[table] {
		if matchAll(row, filters) {
			matched = append(matched, row)
		}
	}
	s.mu.Unlock()

	matched = applyOrder(matched, c.QueryParams()["order"])
	if limit := c.QueryParam("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n < len(matched) {
			matched = matched[:n]
		}
	}

	out := s.project(table, matched, c.QueryParam("select"))
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleInsert(c echo.Context, table string) error {
	var body any
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"code": "22P02", "message": "malformed body"})
	}

	var rows []Row
	switch v := body.(type) {
	case map[string]any:
		rows = []Row{v}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, m)
			}
		}
	}

	merge := strings.Contains(c.Request().Header.Get("Prefer"), "merge-duplicates")
	now := time.Now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	for _, row := range rows {
		if _, ok := row["id"]; !ok {
			row["id"] = uuid.New().String()
		}
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = now
		}
		if _, ok := row["updated_at"]; !ok {
			row["updated_at"] = now
		}

		replaced := false
		if merge {
			for i, existing := range s.tables[table] {
				if existing["id"] == row["id"] {
					for k, v := range row {
						existing[k] = v
					}
					s.tables[table][i] = existing
					replaced = true
					break
				}
			}
		}
		if !replaced {
			s.tables[table] = append(s.tables[table], row)
		}
	}
	s.mu.Unlock()

	out := s.project(table, rows, c.QueryParam("select"))
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleUpdate(c echo.Context, table string, filters []filter) error {
	var values Row
	if err := c.Bind(&values); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"code": "22P02", "message": "malformed body"})
	}

	s.mu.Lock()
	var updated []Row
	for _, row := range s.tables[table] {
		if matchAll(row, filters) {
			for k, v := range values {
				row[k] = v
			}
			row["updated_at"] = time.Now().UTC().Format(time.RFC3339)
			updated = append(updated, row)
		}
	}
	s.mu.Unlock()

	out := s.project(table, updated, c.QueryParam("select"))
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDelete(c echo.Context, table string, filters []filter) error {
	s.mu.Lock()
	kept := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if !matchAll(row, filters) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	s.mu.Unlock()

	return c.NoContent(http.StatusNoContent)
}

// project returns response rows, embedding subtasks when the projection
// asks for them
func (s *Server) project(table string, rows []Row, sel string) []Row {
	out := make([]Row, 0, len(rows))
	embed := strings.Contains(sel, "subtasks(")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		clone := Row{}
		for k, v := range row {
			clone[k] = v
		}
		if embed && table == "tasks" {
			var subs []Row
			for _, sub := range s.tables["subtasks"] {
				if sub["task_id"] == row["id"] {
					subs = append(subs, sub)
				}
			}
			clone["subtasks"] = subs
		}
		out = append(out, clone)
	}
	return out
}
