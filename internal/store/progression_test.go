package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwiniquina/daily-task/internal/backend/backendtest"
	"github.com/darwiniquina/daily-task/internal/model"
)

func seedProfile(env *testEnv, xp, level, streak int) {
	env.fake.Seed("profiles", backendtest.Row{
		"id": testUserID, "xp": xp, "level": level, "streak_count": streak,
	})
}

func TestNormalizeXP(t *testing.T) {
	tests := []struct {
		name      string
		xp, level int
		wantXP    int
		wantLevel int
	}{
		{"no change", 50, 1, 50, 1},
		{"exact threshold levels up", 100, 1, 0, 2},
		{"single level up", 130, 1, 30, 2},
		{"cascade through two levels", 320, 1, 20, 3},
		{"negative borrows from level", -20, 2, 80, 1},
		{"negative borrows once and stops", -150, 3, 50, 2},
		{"negative cascades to level one", -250, 3, 50, 1},
		{"clamped at level one", -50, 1, 0, 1},
		{"zero stays", 0, 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xp, level := normalizeXP(tt.xp, tt.level)
			assert.Equal(t, tt.wantXP, xp)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestLoadOrCreateFetchesExisting(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)

	seedProfile(env, 80, 2, 5)
	require.NoError(t, p.LoadOrCreate(t.Context()))

	profile := p.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, 80, profile.XP)
	assert.Equal(t, 2, profile.Level)
	assert.Equal(t, 5, profile.StreakCount)
	assert.Equal(t, 200, profile.XPToNextLevel())
}

func TestLoadOrCreateCreatesFreshProfile(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)

	require.NoError(t, p.LoadOrCreate(t.Context()))

	profile := p.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, testUserID, profile.ID)
	assert.Equal(t, 0, profile.XP)
	assert.Equal(t, 1, profile.Level)
	// display name falls back to the email local part
	require.NotNil(t, profile.DisplayName)
	assert.Equal(t, "dev", *profile.DisplayName)

	assert.Len(t, env.fake.Rows("profiles"), 1)
}

func TestGrantXPLevelsUpAndPersists(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)
	seedProfile(env, 80, 1, 0)
	require.NoError(t, p.LoadOrCreate(t.Context()))

	require.NoError(t, p.GrantXP(t.Context(), 50, model.SourceTask, "task-1"))

	profile := p.Profile()
	assert.Equal(t, 30, profile.XP)
	assert.Equal(t, 2, profile.Level)

	rows := env.fake.Rows("profiles")
	require.Len(t, rows, 1)
	assert.Equal(t, float64(30), rows[0]["xp"])
	assert.Equal(t, float64(2), rows[0]["level"])
	assert.Len(t, env.fake.Rows("xp_transactions"), 1)
}

func TestGrantXPIsIdempotentPerSource(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)
	seedProfile(env, 0, 1, 0)
	require.NoError(t, p.LoadOrCreate(t.Context()))

	require.NoError(t, p.GrantXP(t.Context(), 10, model.SourceTask, "task-1"))
	require.NoError(t, p.GrantXP(t.Context(), 10, model.SourceTask, "task-1"))
	require.NoError(t, p.GrantXP(t.Context(), 10, model.SourceTask, "task-1"))

	assert.Equal(t, 10, p.Profile().XP, "repeated grants with one source apply once")
	assert.Len(t, env.fake.Rows("xp_transactions"), 1)

	// a different source is a separate grant
	require.NoError(t, p.GrantXP(t.Context(), 10, model.SourceSubtask, "sub-1"))
	assert.Equal(t, 20, p.Profile().XP)
}

func TestRevokeXPInvertsGrant(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)
	seedProfile(env, 80, 1, 0)
	require.NoError(t, p.LoadOrCreate(t.Context()))

	// 80 xp at level 1, +50 crosses the threshold
	require.NoError(t, p.GrantXP(t.Context(), 50, model.SourceTask, "task-1"))
	require.Equal(t, 2, p.Profile().Level)

	require.NoError(t, p.RevokeXP(t.Context(), model.SourceTask, "task-1"))

	profile := p.Profile()
	assert.Equal(t, 80, profile.XP, "revoke restores the pre-grant state")
	assert.Equal(t, 1, profile.Level)
	assert.Empty(t, env.fake.Rows("xp_transactions"))
}

func TestRevokeXPWithoutGrantIsNoop(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)
	seedProfile(env, 40, 1, 0)
	require.NoError(t, p.LoadOrCreate(t.Context()))

	require.NoError(t, p.RevokeXP(t.Context(), model.SourceTask, "never-granted"))
	assert.Equal(t, 40, p.Profile().XP)
}

func TestGrantXPBeforeLoadIsNoop(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)

	require.NoError(t, p.GrantXP(t.Context(), 10, model.SourceTask, "task-1"))
	assert.Empty(t, env.fake.Rows("xp_transactions"))
}

func TestTouchStreak(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	today := "2026-08-30"
	yesterday := "2026-08-29"
	lastWeek := "2026-08-23"

	tests := []struct {
		name       string
		last       *string
		streak     int
		wantStreak int
	}{
		{"first activity starts at one", nil, 0, 1},
		{"consecutive day increments", &yesterday, 3, 4},
		{"gap resets to one", &lastWeek, 9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p := NewProgression(env.api, env.auth)
			p.now = fixedNow(now)

			row := backendtest.Row{
				"id": testUserID, "xp": 0, "level": 1, "streak_count": tt.streak,
			}
			if tt.last != nil {
				row["last_activity_date"] = *tt.last
			}
			env.fake.Seed("profiles", row)
			require.NoError(t, p.LoadOrCreate(t.Context()))

			require.NoError(t, p.TouchStreak(t.Context()))

			profile := p.Profile()
			assert.Equal(t, tt.wantStreak, profile.StreakCount)
			require.NotNil(t, profile.LastActivityDate)
			assert.Equal(t, today, *profile.LastActivityDate)
		})
	}
}

func TestTouchStreakSameDayIsNoop(t *testing.T) {
	env := newTestEnv(t)
	p := NewProgression(env.api, env.auth)
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	p.now = fixedNow(now)

	env.fake.Seed("profiles", backendtest.Row{
		"id": testUserID, "xp": 0, "level": 1,
		"streak_count": 6, "last_activity_date": "2026-08-30",
	})
	require.NoError(t, p.LoadOrCreate(t.Context()))

	require.NoError(t, p.TouchStreak(t.Context()))
	require.NoError(t, p.TouchStreak(t.Context()))

	assert.Equal(t, 6, p.Profile().StreakCount, "one update per calendar day")
}
