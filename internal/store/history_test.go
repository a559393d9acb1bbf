package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwiniquina/daily-task/internal/backend/backendtest"
)

func TestHistoryActivityCounts(t *testing.T) {
	env := newTestEnv(t)
	h := NewHistory(env.api)

	seedTask(env, "t1", "Morning run", "2026-08-28", "2026-08-28T07:00:00Z")
	seedTask(env, "t2", "Water the plants", "2026-08-28", "2026-08-28T08:00:00Z")
	seedTask(env, "t3", "Read a chapter", "2026-08-29", "2026-08-29T20:00:00Z")
	seedTask(env, "t4", "Ancient errand", "2025-01-01", "2025-01-01T09:00:00Z")

	require.NoError(t, h.LoadActivity(t.Context(), "2026-08-01", "2026-08-31"))

	counts := h.ActivityCounts()
	assert.Equal(t, map[string]int{
		"2026-08-28": 2,
		"2026-08-29": 1,
	}, counts)
}

func TestHistoryActivityDefaultsToTrailingYear(t *testing.T) {
	env := newTestEnv(t)
	h := NewHistory(env.api)
	h.now = fixedNow(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	seedTask(env, "recent", "Recent", "2026-08-01", "2026-08-01T09:00:00Z")
	seedTask(env, "ancient", "Ancient", "2024-01-01", "2024-01-01T09:00:00Z")

	require.NoError(t, h.LoadActivity(t.Context(), "", ""))

	counts := h.ActivityCounts()
	assert.Contains(t, counts, "2026-08-01")
	assert.NotContains(t, counts, "2024-01-01")
}

func TestHistoryFocusForDate(t *testing.T) {
	env := newTestEnv(t)
	h := NewHistory(env.api)

	env.fake.Seed("timers",
		backendtest.Row{
			"id": "tm1", "task_id": "task-1", "user_id": testUserID,
			"start_time": "2026-08-28T08:00:00Z", "end_time": "2026-08-28T08:30:00Z", "duration": 1800,
		},
		backendtest.Row{
			"id": "tm2", "task_id": "task-2", "user_id": testUserID,
			"start_time": "2026-08-28T21:00:00Z", "end_time": "2026-08-28T21:10:00Z", "duration": 600,
		},
		backendtest.Row{
			"id": "other-day", "task_id": "task-1", "user_id": testUserID,
			"start_time": "2026-08-29T08:00:00Z", "end_time": "2026-08-29T09:00:00Z", "duration": 3600,
		},
	)

	require.NoError(t, h.LoadFocusForDate(t.Context(), "2026-08-28"))
	assert.EqualValues(t, 2400, h.FocusSeconds())
}

func TestHistoryTasksForDate(t *testing.T) {
	env := newTestEnv(t)
	h := NewHistory(env.api)

	seedTask(env, "early", "Morning run", "2026-08-28", "2026-08-28T07:00:00Z")
	seedTask(env, "late", "Evening read", "2026-08-28", "2026-08-28T21:00:00Z")
	seedTask(env, "other", "Different day", "2026-08-29", "2026-08-29T09:00:00Z")

	require.NoError(t, h.LoadTasksForDate(t.Context(), "2026-08-28"))

	tasks := h.TasksForDate()
	require.Len(t, tasks, 2)
	assert.Equal(t, "late", tasks[0].ID)
	assert.Equal(t, "early", tasks[1].ID)
}

func TestHistoryLoadFailureKeepsState(t *testing.T) {
	env := newTestEnv(t)
	h := NewHistory(env.api)

	seedTask(env, "t1", "Morning run", "2026-08-28", "2026-08-28T07:00:00Z")
	require.NoError(t, h.LoadActivity(t.Context(), "2026-08-01", "2026-08-31"))
	require.NotEmpty(t, h.ActivityCounts())

	env.fake.FailNext(500, "XX000", "backend down")
	require.Error(t, h.LoadActivity(t.Context(), "2026-08-01", "2026-08-31"))
	assert.NotEmpty(t, h.ActivityCounts())
}
