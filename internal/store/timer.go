package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darwiniquina/daily-task/internal/backend"
	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/model"
)

// TimerEngine tracks the user's single active timer and a one-second local
// clock for its elapsed display. It is Idle (no active timer) or Running
// (exactly one). Mutators are serialized by the engine's mutex.
type TimerEngine struct {
	api  *backend.Client
	auth *backend.Auth
	now  func() time.Time

	mu         sync.Mutex
	active     *model.Timer
	elapsed    int64
	tickCancel chan struct{}
	history    map[string][]model.Timer
	todayFocus int64
	loading    bool
}

// NewTimerEngine creates an idle engine
func NewTimerEngine(api *backend.Client, auth *backend.Auth) *TimerEngine {
	return &TimerEngine{
		api:     api,
		auth:    auth,
		now:     defaultNow,
		history: map[string][]model.Timer{},
	}
}

// startClockLocked starts the one-second clock, cancelling any prior one.
// Must be called with the mutex held and e.active set.
func (e *TimerEngine) startClockLocked() {
	e.stopClockLocked()
	e.elapsed = e.active.Elapsed(e.now())

	cancel := make(chan struct{})
	e.tickCancel = cancel
	start := e.active.StartTime

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.mu.Lock()
				// A cancelled clock may still fire once; never write
				// elapsed after ownership moved on.
				if e.tickCancel == cancel {
					e.elapsed = int64(e.now().Sub(start) / time.Second)
				}
				e.mu.Unlock()
			case <-cancel:
				return
			}
		}
	}()
}

// stopClockLocked cancels the clock and resets the elapsed reading.
// Must be called with the mutex held. Safe to call when already stopped.
func (e *TimerEngine) stopClockLocked() {
	if e.tickCancel != nil {
		close(e.tickCancel)
		e.tickCancel = nil
	}
	e.elapsed = 0
}

// Start begins a timer for the task. A running timer is stopped first, so at
// most one active timer ever exists; if that implicit stop fails, the start
// is aborted and the prior timer keeps running.
func (e *TimerEngine) Start(ctx context.Context, taskID string) error {
	user := e.auth.User()
	if user == nil {
		return ErrNotSignedIn
	}

	e.mu.Lock()
	running := e.active != nil
	e.mu.Unlock()
	if running {
		if err := e.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop previous timer: %w", err)
		}
	}

	row := map[string]any{
		"id":         uuid.New().String(),
		"task_id":    taskID,
		"user_id":    user.ID,
		"start_time": e.now().UTC().Format(time.RFC3339),
	}

	var inserted []model.Timer
	if err := e.api.From("timers").Insert(ctx, row, &inserted); err != nil {
		logger.Error("Failed to start timer", logger.F("error", err), logger.F("task", taskID))
		return err
	}
	if len(inserted) == 0 {
		return fmt.Errorf("backend returned no row for inserted timer")
	}

	e.mu.Lock()
	e.active = &inserted[0]
	e.startClockLocked()
	e.mu.Unlock()

	logger.Info("Timer started", logger.F("task", taskID))
	return nil
}

// Stop ends the active timer, recording the clock's current elapsed reading
// as its immutable duration. No-op when idle. On failure the timer keeps
// running and the clock keeps ticking.
func (e *TimerEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return nil
	}
	id := e.active.ID
	taskID := e.active.TaskID
	duration := e.elapsed
	e.mu.Unlock()

	payload := map[string]any{
		"end_time": e.now().UTC().Format(time.RFC3339),
		"duration": duration,
	}
	if err := e.api.From("timers").Eq("id", id).Update(ctx, payload, nil); err != nil {
		logger.Error("Failed to stop timer", logger.F("error", err), logger.F("id", id))
		return err
	}

	e.mu.Lock()
	// Only clear if the slot still holds the timer we stopped
	if e.active != nil && e.active.ID == id {
		e.active = nil
		e.stopClockLocked()
	}
	e.mu.Unlock()

	logger.Info("Timer stopped", logger.F("task", taskID), logger.F("duration", duration))

	// Refresh the derived views; their failures are logged, not surfaced
	_ = e.LoadHistory(ctx, taskID)
	_ = e.LoadTodaysFocus(ctx)
	return nil
}

// LoadActive adopts a persisted unfinished timer, starting the clock from
// its recorded start time, or ensures the engine is idle when none exists
func (e *TimerEngine) LoadActive(ctx context.Context) error {
	user := e.auth.User()
	if user == nil {
		return ErrNotSignedIn
	}

	e.setLoading(true)
	defer e.setLoading(false)

	var timer model.Timer
	found, err := e.api.From("timers").
		Select("*").
		Eq("user_id", user.ID).
		IsNull("end_time").
		MaybeSingle(ctx, &timer)
	if err != nil {
		logger.Error("Failed to load active timer", logger.F("error", err))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if found {
		e.active = &timer
		e.startClockLocked()
	} else {
		e.active = nil
		e.stopClockLocked()
	}
	return nil
}

// LoadHistory fetches the completed timers for a task, most recent start
// first. Read-only; the active timer is unaffected.
func (e *TimerEngine) LoadHistory(ctx context.Context, taskID string) error {
	var timers []model.Timer
	err := e.api.From("timers").
		Select("*").
		Eq("task_id", taskID).
		NotNull("end_time").
		Order("start_time", false).
		Get(ctx, &timers)
	if err != nil {
		logger.Error("Failed to load timer history", logger.F("error", err), logger.F("task", taskID))
		return err
	}

	e.mu.Lock()
	e.history[taskID] = timers
	e.mu.Unlock()
	return nil
}

// LoadTodaysFocus sums recorded durations of timers started inside today's
// local midnight-to-midnight window. The still-active timer has no duration
// yet and contributes nothing until stopped; callers wanting a live total add
// the clock reading themselves (see the theme package).
func (e *TimerEngine) LoadTodaysFocus(ctx context.Context) error {
	now := e.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var timers []model.Timer
	err := e.api.From("timers").
		Select("duration").
		Gte("start_time", dayStart.UTC().Format(time.RFC3339)).
		Lt("start_time", dayEnd.UTC().Format(time.RFC3339)).
		Get(ctx, &timers)
	if err != nil {
		logger.Error("Failed to load today's focus total", logger.F("error", err))
		return err
	}

	var total int64
	for _, t := range timers {
		total += t.Seconds()
	}

	e.mu.Lock()
	e.todayFocus = total
	e.mu.Unlock()
	return nil
}

// Active returns a copy of the active timer, nil when idle
func (e *TimerEngine) Active() *model.Timer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	clone := *e.active
	return &clone
}

// Elapsed returns the clock's current reading in whole seconds, 0 when idle
func (e *TimerEngine) Elapsed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// History returns the cached completed timers for a task
func (e *TimerEngine) History(taskID string) []model.Timer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Timer{}, e.history[taskID]...)
}

// TodaysFocus returns the cached same-day aggregate in seconds
func (e *TimerEngine) TodaysFocus() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.todayFocus
}

// Loading reports whether LoadActive is in flight
func (e *TimerEngine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *TimerEngine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}

// Reset clears all cached state and guarantees the clock is cancelled
// (sign-out and shutdown path)
func (e *TimerEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = nil
	e.stopClockLocked()
	e.history = map[string][]model.Timer{}
	e.todayFocus = 0
}
