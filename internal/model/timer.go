package model

import "time"

// Timer is one focus session against a task. A timer without an end time is
// the user's active timer; at most one exists per user.
type Timer struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	UserID    string     `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int64     `json:"duration,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Active returns true while the timer has not been stopped
func (t *Timer) Active() bool {
	return t.EndTime == nil
}

// Elapsed returns whole seconds since the timer started, floored, never negative
func (t *Timer) Elapsed(now time.Time) int64 {
	d := now.Sub(t.StartTime) / time.Second
	if d < 0 {
		return 0
	}
	return int64(d)
}

// Seconds returns the recorded duration, or 0 if the timer is still running
func (t *Timer) Seconds() int64 {
	if t.Duration == nil {
		return 0
	}
	return *t.Duration
}
