package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darwiniquina/daily-task/internal/backend"
	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/model"
	"github.com/darwiniquina/daily-task/internal/prefs"
)

// Filter selects which window of tasks Load fetches
type Filter struct {
	Date            string   // exact calendar date, takes precedence over the range
	RangeStart      string   // inclusive range bounds, YYYY-MM-DD
	RangeEnd        string
	RangeFields     []string // date-like columns the range applies to
	IncludeSubtasks bool
}

// TaskDraft holds the fields for a new task
type TaskDraft struct {
	Title       string
	Description string
	Date        string // assigned by Add when empty
	Deadline    *time.Time
}

// TaskPatch holds a partial task update; nil fields are not sent
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Date        *string
	Deadline    *time.Time
}

func (p TaskPatch) payload() map[string]any {
	m := map[string]any{}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Completed != nil {
		m["completed"] = *p.Completed
	}
	if p.Date != nil {
		m["date"] = *p.Date
	}
	if p.Deadline != nil {
		m["deadline"] = p.Deadline.UTC().Format(time.RFC3339)
	}
	return m
}

// TaskStore caches the working set of tasks for the current filter window.
// The cache is display-ordered, most recent first, and is only modified
// after a successful remote mutation.
type TaskStore struct {
	api   *backend.Client
	auth  *backend.Auth
	prefs *prefs.Store
	now   func() time.Time

	mu      sync.Mutex
	tasks   []model.Task
	filter  Filter
	search  string
	loading bool
}

// NewTaskStore creates the task cache, restoring the persisted search query
// and date-range selection
func NewTaskStore(api *backend.Client, auth *backend.Auth, pf *prefs.Store) *TaskStore {
	s := &TaskStore{
		api:   api,
		auth:  auth,
		prefs: pf,
		now:   defaultNow,
		filter: Filter{
			RangeFields:     prefs.DefaultRangeFields,
			IncludeSubtasks: true,
		},
	}

	if pf != nil {
		s.search = pf.SearchQuery()
		s.filter.RangeStart, s.filter.RangeEnd = pf.DateRange()
		s.filter.RangeFields = pf.RangeFields()
	}

	return s
}

// Load replaces the cache with the result of a remote query for the given
// filter. On failure the cache is left unchanged.
func (s *TaskStore) Load(ctx context.Context, f Filter) error {
	s.mu.Lock()
	s.filter = f
	s.loading = true
	s.mu.Unlock()
	s.persistFilter(f)

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	q := s.api.From("tasks").Select(s.projection(f))

	switch {
	case f.Date != "":
		q.Eq("date", f.Date)
	case f.RangeStart != "" || f.RangeEnd != "":
		s.applyRange(q, f)
	}
	q.Order("created_at", false)

	var tasks []model.Task
	if err := q.Get(ctx, &tasks); err != nil {
		logger.Error("Failed to load tasks", logger.F("error", err))
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()

	logger.Info("Tasks loaded", logger.F("count", len(tasks)))
	return nil
}

func (s *TaskStore) projection(f Filter) string {
	if f.IncludeSubtasks {
		return "*, subtasks(*)"
	}
	return "*"
}

// applyRange constrains every selected date-like column to [start, end],
// OR-composing the per-column groups
func (s *TaskStore) applyRange(q *backend.Query, f Filter) {
	fields := f.RangeFields
	if len(fields) == 0 {
		fields = prefs.DefaultRangeFields
	}

	if len(fields) == 1 {
		if f.RangeStart != "" {
			q.Gte(fields[0], f.RangeStart)
		}
		if f.RangeEnd != "" {
			q.Lte(fields[0], f.RangeEnd)
		}
		return
	}

	groups := make([]string, 0, len(fields))
	for _, field := range fields {
		var conds []string
		if f.RangeStart != "" {
			conds = append(conds, fmt.Sprintf("%s.gte.%s", field, f.RangeStart))
		}
		if f.RangeEnd != "" {
			conds = append(conds, fmt.Sprintf("%s.lte.%s", field, rangeEndBound(field, f.RangeEnd)))
		}
		groups = append(groups, "and("+strings.Join(conds, ",")+")")
	}
	q.Or(groups...)
}

// rangeEndBound widens an end date to cover the whole day for timestamp columns
func rangeEndBound(field, end string) string {
	if field == "date" {
		return end
	}
	return end + "T23:59:59"
}

func (s *TaskStore) persistFilter(f Filter) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.SetDateRange(f.RangeStart, f.RangeEnd); err != nil {
		logger.Warn("Failed to persist date range", logger.F("error", err))
	}
	if len(f.RangeFields) > 0 {
		if err := s.prefs.SetRangeFields(f.RangeFields); err != nil {
			logger.Warn("Failed to persist range fields", logger.F("error", err))
		}
	}
}

// Add inserts a new task, then its subtasks, and prepends the result to the
// cache. Any remote failure aborts the whole operation and is returned to
// the caller so an input form can stay open.
func (s *TaskStore) Add(ctx context.Context, draft TaskDraft, subtaskTitles []string) (*model.Task, error) {
	user := s.auth.User()
	if user == nil {
		return nil, ErrNotSignedIn
	}

	row := map[string]any{
		"id":        uuid.New().String(),
		"user_id":   user.ID,
		"title":     draft.Title,
		"completed": false,
		"date":      s.assignDate(draft.Date),
	}
	if draft.Description != "" {
		row["description"] = draft.Description
	}
	if draft.Deadline != nil {
		row["deadline"] = draft.Deadline.UTC().Format(time.RFC3339)
	}

	var inserted []model.Task
	if err := s.api.From("tasks").Insert(ctx, row, &inserted); err != nil {
		logger.Error("Failed to add task", logger.F("error", err))
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, fmt.Errorf("backend returned no row for inserted task")
	}
	task := inserted[0]

	if len(subtaskTitles) > 0 {
		rows := make([]map[string]any, 0, len(subtaskTitles))
		for _, title := range subtaskTitles {
			rows = append(rows, map[string]any{
				"id":        uuid.New().String(),
				"task_id":   task.ID,
				"title":     title,
				"completed": false,
			})
		}

		var subtasks []model.Subtask
		if err := s.api.From("subtasks").Insert(ctx, rows, &subtasks); err != nil {
			logger.Error("Failed to add subtasks", logger.F("error", err), logger.F("task", task.ID))
			return nil, err
		}
		task.Subtasks = subtasks
	}

	s.mu.Lock()
	s.tasks = append([]model.Task{task}, s.tasks...)
	s.mu.Unlock()

	logger.Info("Task added", logger.F("id", task.ID), logger.F("subtasks", len(task.Subtasks)))
	return &task, nil
}

// assignDate picks the calendar day for a new task: the explicit value, else
// the selected single-day window, else today
func (s *TaskStore) assignDate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	s.mu.Lock()
	f := s.filter
	s.mu.Unlock()
	if f.Date != "" {
		return f.Date
	}
	if f.RangeStart != "" && f.RangeStart == f.RangeEnd {
		return f.RangeStart
	}
	return s.now().Format(model.DateLayout)
}

// Update sends only the supplied fields and replaces the cached entry on
// success
func (s *TaskStore) Update(ctx context.Context, id string, patch TaskPatch) error {
	payload := patch.payload()
	if len(payload) == 0 {
		return nil
	}

	var updated []model.Task
	err := s.api.From("tasks").Select("*, subtasks(*)").Eq("id", id).Update(ctx, payload, &updated)
	if err != nil {
		logger.Error("Failed to update task", logger.F("error", err), logger.F("id", id))
		return err
	}
	if len(updated) == 0 {
		return &backend.Error{Code: backend.CodeNoRows, Message: "task not found: " + id}
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = updated[0]
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Delete removes the task remotely, then from the cache. The cache keeps the
// task on failure.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := s.api.From("tasks").Eq("id", id).Delete(ctx); err != nil {
		logger.Error("Failed to delete task", logger.F("error", err), logger.F("id", id))
		return err
	}

	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()

	logger.Info("Task deleted", logger.F("id", id))
	return nil
}

// ToggleSubtask flips a subtask's completion remotely, then in the owning
// task's cached list
func (s *TaskStore) ToggleSubtask(ctx context.Context, taskID, subtaskID string, completed bool) error {
	err := s.api.From("subtasks").Eq("id", subtaskID).Update(ctx, map[string]any{"completed": completed}, nil)
	if err != nil {
		logger.Error("Failed to toggle subtask", logger.F("error", err), logger.F("id", subtaskID))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if task := s.findLocked(taskID); task != nil {
		for i := range task.Subtasks {
			if task.Subtasks[i].ID == subtaskID {
				task.Subtasks[i].Completed = completed
				break
			}
		}
	}
	return nil
}

// AddSubtask inserts a subtask and appends it to the owning task's list
func (s *TaskStore) AddSubtask(ctx context.Context, taskID, title string) error {
	row := map[string]any{
		"id":        uuid.New().String(),
		"task_id":   taskID,
		"title":     title,
		"completed": false,
	}

	var inserted []model.Subtask
	if err := s.api.From("subtasks").Insert(ctx, row, &inserted); err != nil {
		logger.Error("Failed to add subtask", logger.F("error", err), logger.F("task", taskID))
		return err
	}
	if len(inserted) == 0 {
		return fmt.Errorf("backend returned no row for inserted subtask")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if task := s.findLocked(taskID); task != nil {
		task.Subtasks = append(task.Subtasks, inserted[0])
	}
	return nil
}

// DeleteSubtask removes a subtask remotely, then from the owning task's list
func (s *TaskStore) DeleteSubtask(ctx context.Context, taskID, subtaskID string) error {
	if err := s.api.From("subtasks").Eq("id", subtaskID).Delete(ctx); err != nil {
		logger.Error("Failed to delete subtask", logger.F("error", err), logger.F("id", subtaskID))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if task := s.findLocked(taskID); task != nil {
		kept := task.Subtasks[:0]
		for _, sub := range task.Subtasks {
			if sub.ID != subtaskID {
				kept = append(kept, sub)
			}
		}
		task.Subtasks = kept
	}
	return nil
}

func (s *TaskStore) findLocked(taskID string) *model.Task {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			return &s.tasks[i]
		}
	}
	return nil
}

// Filtered returns the cached tasks whose title or description contains the
// query, case-insensitively. An empty query returns the full cache. The view
// is recomputed from current state on every call.
func (s *TaskStore) Filtered(query string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if query == "" {
		return append([]model.Task{}, s.tasks...)
	}

	needle := strings.ToLower(query)
	var out []model.Task
	for _, t := range s.tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle) {
			out = append(out, t)
		}
	}
	return out
}

// Tasks returns a copy of the current cache in display order
func (s *TaskStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task{}, s.tasks...)
}

// Find returns the cached task with the given id, nil if absent
func (s *TaskStore) Find(id string) *model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.findLocked(id); t != nil {
		clone := *t
		return &clone
	}
	return nil
}

// Search returns the persisted search query
func (s *TaskStore) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// SetSearch updates and persists the search query
func (s *TaskStore) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SetSearchQuery(query); err != nil {
			logger.Warn("Failed to persist search query", logger.F("error", err))
		}
	}
}

// Filter returns the current filter selection
func (s *TaskStore) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Loading reports whether a Load is in flight
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Reset clears the cache (sign-out path)
func (s *TaskStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
}
