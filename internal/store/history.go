package store

import (
	"context"
	"sync"
	"time"

	"github.com/darwiniquina/daily-task/internal/backend"
	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/model"
)

// History answers read-only range-bounded queries over the same remote
// tables: per-day task counts, per-day focus totals and the task list for a
// picked day. Each loader toggles its own loading flag and keeps the prior
// cached value on failure.
type History struct {
	api *backend.Client
	now func() time.Time

	mu              sync.Mutex
	activity        map[string]int
	dayTasks        []model.Task
	focusSeconds    int64
	loadingActivity bool
	loadingTasks    bool
	loadingFocus    bool
}

// NewHistory creates an empty aggregator
func NewHistory(api *backend.Client) *History {
	return &History{api: api, now: defaultNow, activity: map[string]int{}}
}

// LoadActivity counts tasks per calendar date within [start, end]. An empty
// start defaults to the trailing 365 days ending today; an empty end leaves
// the range open.
func (h *History) LoadActivity(ctx context.Context, start, end string) error {
	h.mu.Lock()
	h.loadingActivity = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.loadingActivity = false
		h.mu.Unlock()
	}()

	if start == "" {
		start = h.now().AddDate(0, 0, -365).Format(model.DateLayout)
	}

	q := h.api.From("tasks").Select("date").Gte("date", start)
	if end != "" {
		q.Lte("date", end)
	}

	var rows []struct {
		Date string `json:"date"`
	}
	if err := q.Get(ctx, &rows); err != nil {
		logger.Error("Failed to load activity log", logger.F("error", err))
		return err
	}

	counts := map[string]int{}
	for _, r := range rows {
		if r.Date != "" {
			counts[r.Date]++
		}
	}

	h.mu.Lock()
	h.activity = counts
	h.mu.Unlock()
	return nil
}

// LoadFocusForDate sums timer durations whose start falls inside the UTC
// calendar day
func (h *History) LoadFocusForDate(ctx context.Context, date string) error {
	h.mu.Lock()
	h.loadingFocus = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.loadingFocus = false
		h.mu.Unlock()
	}()

	var timers []model.Timer
	err := h.api.From("timers").
		Select("duration").
		Gte("start_time", date+"T00:00:00Z").
		Lte("start_time", date+"T23:59:59Z").
		Get(ctx, &timers)
	if err != nil {
		logger.Error("Failed to load focus time", logger.F("error", err), logger.F("date", date))
		return err
	}

	var total int64
	for _, t := range timers {
		total += t.Seconds()
	}

	h.mu.Lock()
	h.focusSeconds = total
	h.mu.Unlock()
	return nil
}

// LoadTasksForDate fetches the tasks dated to the given day, newest first
func (h *History) LoadTasksForDate(ctx context.Context, date string) error {
	h.mu.Lock()
	h.loadingTasks = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.loadingTasks = false
		h.mu.Unlock()
	}()

	var tasks []model.Task
	err := h.api.From("tasks").
		Select("*").
		Eq("date", date).
		Order("created_at", false).
		Get(ctx, &tasks)
	if err != nil {
		logger.Error("Failed to load tasks for date", logger.F("error", err), logger.F("date", date))
		return err
	}

	h.mu.Lock()
	h.dayTasks = tasks
	h.mu.Unlock()
	return nil
}

// ActivityCounts returns a copy of the cached date to task-count mapping
func (h *History) ActivityCounts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.activity))
	for k, v := range h.activity {
		out[k] = v
	}
	return out
}

// FocusSeconds returns the cached focus total for the last loaded date
func (h *History) FocusSeconds() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focusSeconds
}

// TasksForDate returns the cached task list for the last loaded date
func (h *History) TasksForDate() []model.Task {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Task{}, h.dayTasks...)
}

// Loading reports whether any of the three loaders is in flight
func (h *History) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadingActivity || h.loadingTasks || h.loadingFocus
}

// Reset clears all cached aggregates (sign-out path)
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activity = map[string]int{}
	h.dayTasks = nil
	h.focusSeconds = 0
}
