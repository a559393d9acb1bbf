package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwiniquina/daily-task/internal/backend/backendtest"
	"github.com/darwiniquina/daily-task/internal/prefs"
)

func seedTask(env *testEnv, id, title, date, createdAt string) {
	env.fake.Seed("tasks", backendtest.Row{
		"id": id, "user_id": testUserID, "title": title,
		"completed": false, "date": date,
		"created_at": createdAt, "updated_at": createdAt,
	})
}

func TestTaskLoadByDate(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	seedTask(env, "t1", "Morning run", "2026-08-29", "2026-08-29T07:00:00Z")
	seedTask(env, "t2", "Water the plants", "2026-08-30", "2026-08-30T08:00:00Z")
	seedTask(env, "t3", "Read a chapter", "2026-08-30", "2026-08-30T20:00:00Z")

	require.NoError(t, s.Load(t.Context(), Filter{Date: "2026-08-30"}))

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	// newest first
	assert.Equal(t, "t3", tasks[0].ID)
	assert.Equal(t, "t2", tasks[1].ID)
}

func TestTaskLoadRangeAcrossFields(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	// inside the range by its date column
	seedTask(env, "by-date", "Plan the week", "2026-08-25", "2026-01-01T09:00:00Z")
	// outside by date, inside by created_at
	seedTask(env, "by-created", "Clear inbox", "2026-01-01", "2026-08-26T09:00:00Z")
	// outside on every column
	seedTask(env, "outside", "Old errand", "2026-01-01", "2026-01-01T09:00:00Z")

	err := s.Load(t.Context(), Filter{
		RangeStart:  "2026-08-24",
		RangeEnd:    "2026-08-28",
		RangeFields: []string{"date", "created_at"},
	})
	require.NoError(t, err)

	ids := make([]string, 0)
	for _, task := range s.Tasks() {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []string{"by-date", "by-created"}, ids)
}

func TestTaskLoadFailureKeepsCache(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	seedTask(env, "t1", "Water the plants", "2026-08-30", "2026-08-30T08:00:00Z")
	require.NoError(t, s.Load(t.Context(), Filter{Date: "2026-08-30"}))
	require.Len(t, s.Tasks(), 1)

	env.fake.FailNext(500, "XX000", "backend down")
	err := s.Load(t.Context(), Filter{Date: "2026-08-30"})
	require.Error(t, err)

	assert.Len(t, s.Tasks(), 1, "cache must survive a failed reload")
	assert.False(t, s.Loading())
}

func TestTaskAddAssignsDateFromSingleDayWindow(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	require.NoError(t, s.Load(t.Context(), Filter{RangeStart: "2026-08-15", RangeEnd: "2026-08-15"}))

	task, err := s.Add(t.Context(), TaskDraft{Title: "Pack for the trip"}, []string{"Passport", "Chargers"})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-15", task.Date)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, task.ID, task.Subtasks[0].TaskID)
	assert.False(t, task.Subtasks[0].Completed)
	assert.False(t, task.Subtasks[1].Completed)

	// prepended to the cache
	cached := s.Tasks()
	require.NotEmpty(t, cached)
	assert.Equal(t, task.ID, cached[0].ID)

	assert.Len(t, env.fake.Rows("tasks"), 1)
	assert.Len(t, env.fake.Rows("subtasks"), 2)
}

func TestTaskAddDefaultsToToday(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)
	s.now = fixedNow(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	task, err := s.Add(t.Context(), TaskDraft{Title: "Call the dentist"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30", task.Date)
}

func TestTaskAddRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)
	require.NoError(t, env.auth.SignOut())

	_, err := s.Add(t.Context(), TaskDraft{Title: "Nope"}, nil)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, env.fake.Rows("tasks"))
}

func TestTaskAddSubtaskFailureAbortsWhole(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	// the task insert lands, the subtask batch fails
	env.fake.FailTable("subtasks", 500, "XX000", "backend down")

	_, err := s.Add(t.Context(), TaskDraft{Title: "Half-made"}, []string{"One"})
	require.Error(t, err)
	assert.Empty(t, s.Tasks(), "failed add must not enter the cache")
}

func TestTaskUpdateReplacesCachedEntry(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	seedTask(env, "t1", "Water the plants", "2026-08-30", "2026-08-30T08:00:00Z")
	require.NoError(t, s.Load(t.Context(), Filter{Date: "2026-08-30"}))

	done := true
	require.NoError(t, s.Update(t.Context(), "t1", TaskPatch{Completed: &done}))

	task := s.Find("t1")
	require.NotNil(t, task)
	assert.True(t, task.Completed)
}

func TestTaskUpdateEmptyPatchIsNoop(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	require.NoError(t, s.Update(t.Context(), "missing", TaskPatch{}))
	assert.Empty(t, env.fake.Rows("tasks"))
}

func TestTaskDelete(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	seedTask(env, "t1", "Water the plants", "2026-08-30", "2026-08-30T08:00:00Z")
	require.NoError(t, s.Load(t.Context(), Filter{Date: "2026-08-30"}))

	require.NoError(t, s.Delete(t.Context(), "t1"))
	assert.Empty(t, s.Tasks())
	assert.Empty(t, env.fake.Rows("tasks"))
}

func TestSubtaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	task, err := s.Add(t.Context(), TaskDraft{Title: "Ship the release", Date: "2026-08-30"}, []string{"Changelog"})
	require.NoError(t, err)
	subID := task.Subtasks[0].ID

	require.NoError(t, s.ToggleSubtask(t.Context(), task.ID, subID, true))
	cached := s.Find(task.ID)
	require.NotNil(t, cached)
	require.Len(t, cached.Subtasks, 1)
	assert.True(t, cached.Subtasks[0].Completed)
	done, total := cached.SubtaskProgress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, total)

	require.NoError(t, s.AddSubtask(t.Context(), task.ID, "Tag the build"))
	cached = s.Find(task.ID)
	require.Len(t, cached.Subtasks, 2)

	require.NoError(t, s.DeleteSubtask(t.Context(), task.ID, subID))
	cached = s.Find(task.ID)
	require.Len(t, cached.Subtasks, 1)
	assert.Equal(t, "Tag the build", cached.Subtasks[0].Title)
	assert.Len(t, env.fake.Rows("subtasks"), 1)
}

func TestFilteredMatchesTitleAndDescription(t *testing.T) {
	env := newTestEnv(t)
	s := NewTaskStore(env.api, env.auth, nil)

	seedTask(env, "t1", "Write the quarterly REPORT", "2026-08-30", "2026-08-30T08:00:00Z")
	seedTask(env, "t2", "Team sync", "2026-08-30", "2026-08-30T09:00:00Z")
	env.fake.Seed("tasks", backendtest.Row{
		"id": "t3", "user_id": testUserID, "title": "Email Dana",
		"description": "attach the report draft",
		"completed":   false, "date": "2026-08-30",
		"created_at": "2026-08-30T10:00:00Z", "updated_at": "2026-08-30T10:00:00Z",
	})
	require.NoError(t, s.Load(t.Context(), Filter{Date: "2026-08-30"}))

	matched := s.Filtered("report")
	ids := make([]string, 0)
	for _, task := range matched {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []string{"t1", "t3"}, ids)

	assert.Len(t, s.Filtered(""), 3, "empty query returns everything")
	assert.Empty(t, s.Filtered("no such thing"))
}

func TestSearchAndFilterSurviveRestart(t *testing.T) {
	env := newTestEnv(t)

	pf, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer pf.Close()

	s1 := NewTaskStore(env.api, env.auth, pf)
	s1.SetSearch("deep work")
	require.NoError(t, s1.Load(t.Context(), Filter{
		RangeStart:  "2026-08-01",
		RangeEnd:    "2026-08-31",
		RangeFields: []string{"date"},
	}))

	// a fresh store over the same preferences sees the persisted selection
	s2 := NewTaskStore(env.api, env.auth, pf)
	assert.Equal(t, "deep work", s2.Search())
	f := s2.Filter()
	assert.Equal(t, "2026-08-01", f.RangeStart)
	assert.Equal(t, "2026-08-31", f.RangeEnd)
	assert.Equal(t, []string{"date"}, f.RangeFields)
}
