package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darwiniquina/daily-task/internal/backend"
	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/model"
)

// Progression maintains the profile's XP, level and daily streak. XP grants
// are idempotent per (user, source type, source id); the remote profile row
// is written before the in-memory copy changes, so the two never diverge.
type Progression struct {
	api  *backend.Client
	auth *backend.Auth
	now  func() time.Time

	mu      sync.Mutex
	profile *model.Profile
	loading bool
}

// NewProgression creates the progression engine with no profile loaded
func NewProgression(api *backend.Client, auth *backend.Auth) *Progression {
	return &Progression{api: api, auth: auth, now: defaultNow}
}

// LoadOrCreate fetches the current user's profile, creating a fresh one on
// the expected not-found branch. Other fetch errors are returned as-is.
func (p *Progression) LoadOrCreate(ctx context.Context) error {
	user := p.auth.User()
	if user == nil {
		return ErrNotSignedIn
	}

	p.setLoading(true)
	defer p.setLoading(false)

	var profile model.Profile
	err := p.api.From("profiles").Select("*").Eq("id", user.ID).Single(ctx, &profile)
	if err == nil {
		p.mu.Lock()
		p.profile = &profile
		p.mu.Unlock()
		return nil
	}
	if !backend.IsNotFound(err) {
		logger.Error("Failed to load profile", logger.F("error", err))
		return err
	}

	return p.create(ctx, user)
}

func (p *Progression) create(ctx context.Context, user *backend.User) error {
	row := map[string]any{
		"id":           user.ID,
		"xp":           0,
		"level":        1,
		"streak_count": 0,
	}
	if name := displayName(user); name != "" {
		row["display_name"] = name
	}
	if avatar, ok := user.Metadata["avatar_url"].(string); ok && avatar != "" {
		row["avatar_url"] = avatar
	}

	var created []model.Profile
	if err := p.api.From("profiles").Upsert(ctx, row, &created); err != nil {
		logger.Error("Failed to create profile", logger.F("error", err))
		return err
	}
	if len(created) == 0 {
		return &backend.Error{Message: "backend returned no row for created profile"}
	}

	p.mu.Lock()
	p.profile = &created[0]
	p.mu.Unlock()

	logger.Info("Profile created", logger.F("user", user.ID))
	return nil
}

// displayName resolves the fallback chain: explicit name from the session
// metadata, else the local part of the contact email, else unset
func displayName(user *backend.User) string {
	if name, ok := user.Metadata["full_name"].(string); ok && name != "" {
		return name
	}
	if user.Email != "" {
		return strings.SplitN(user.Email, "@", 2)[0]
	}
	return ""
}

// GrantXP applies amount to the profile exactly once per (source type,
// source id). A repeated grant with the same key is a no-op, as is calling
// before a profile is loaded.
func (p *Progression) GrantXP(ctx context.Context, amount int, sourceType, sourceID string) error {
	user := p.auth.User()
	p.mu.Lock()
	loaded := p.profile != nil
	p.mu.Unlock()
	if user == nil || !loaded {
		return nil
	}

	var existing model.XPTransaction
	found, err := p.api.From("xp_transactions").
		Select("id").
		Eq("user_id", user.ID).
		Eq("source_type", sourceType).
		Eq("source_id", sourceID).
		MaybeSingle(ctx, &existing)
	if err != nil {
		logger.Error("Failed to check XP transaction", logger.F("error", err))
		return err
	}
	if found {
		logger.Debug("XP already granted", logger.F("sourceType", sourceType), logger.F("sourceID", sourceID))
		return nil
	}

	tx := map[string]any{
		"id":          uuid.New().String(),
		"user_id":     user.ID,
		"amount":      amount,
		"source_type": sourceType,
		"source_id":   sourceID,
	}
	if err := p.api.From("xp_transactions").Insert(ctx, tx, nil); err != nil {
		logger.Error("Failed to record XP transaction", logger.F("error", err))
		return err
	}

	return p.applyXP(ctx, amount)
}

// RevokeXP undoes a prior grant with the same key. Absent transactions are
// a no-op.
func (p *Progression) RevokeXP(ctx context.Context, sourceType, sourceID string) error {
	user := p.auth.User()
	p.mu.Lock()
	loaded := p.profile != nil
	p.mu.Unlock()
	if user == nil || !loaded {
		return nil
	}

	var tx model.XPTransaction
	found, err := p.api.From("xp_transactions").
		Select("*").
		Eq("user_id", user.ID).
		Eq("source_type", sourceType).
		Eq("source_id", sourceID).
		MaybeSingle(ctx, &tx)
	if err != nil {
		logger.Error("Failed to find XP transaction", logger.F("error", err))
		return err
	}
	if !found {
		return nil
	}

	if err := p.api.From("xp_transactions").Eq("id", tx.ID).Delete(ctx); err != nil {
		logger.Error("Failed to delete XP transaction", logger.F("error", err))
		return err
	}

	return p.applyXP(ctx, -tx.Amount)
}

// applyXP folds delta through the progression curve and persists the
// resulting xp/level pair. The in-memory profile changes only after the
// remote write succeeded.
func (p *Progression) applyXP(ctx context.Context, delta int) error {
	p.mu.Lock()
	xp, level := normalizeXP(p.profile.XP+delta, p.profile.Level)
	id := p.profile.ID
	p.mu.Unlock()

	payload := map[string]any{"xp": xp, "level": level}
	if err := p.api.From("profiles").Eq("id", id).Update(ctx, payload, nil); err != nil {
		logger.Error("Failed to update profile XP", logger.F("error", err))
		return err
	}

	p.mu.Lock()
	p.profile.XP = xp
	p.profile.Level = level
	p.mu.Unlock()

	logger.Info("XP updated", logger.F("delta", delta), logger.F("xp", xp), logger.F("level", level))
	return nil
}

// normalizeXP folds xp through the level thresholds (level x 100) until
// 0 <= xp < level x 100 and level >= 1 hold
func normalizeXP(xp, level int) (int, int) {
	for xp >= level*100 {
		xp -= level * 100
		level++
	}
	for xp < 0 && level > 1 {
		level--
		xp += level * 100
	}
	if xp < 0 {
		xp = 0
	}
	return xp, level
}

// TouchStreak records today's activity: at most one update per calendar day,
// incrementing the streak only when yesterday was also active, resetting it
// to 1 otherwise
func (p *Progression) TouchStreak(ctx context.Context) error {
	p.mu.Lock()
	if p.profile == nil {
		p.mu.Unlock()
		return nil
	}
	now := p.now()
	today := now.Format(model.DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(model.DateLayout)
	last := p.profile.LastActivityDate
	streak := p.profile.StreakCount
	id := p.profile.ID
	p.mu.Unlock()

	if last != nil && *last == today {
		return nil
	}

	if last != nil && *last == yesterday {
		streak++
	} else {
		streak = 1
	}

	payload := map[string]any{
		"streak_count":       streak,
		"last_activity_date": today,
	}
	if err := p.api.From("profiles").Eq("id", id).Update(ctx, payload, nil); err != nil {
		logger.Error("Failed to update streak", logger.F("error", err))
		return err
	}

	p.mu.Lock()
	p.profile.StreakCount = streak
	p.profile.LastActivityDate = &today
	p.mu.Unlock()

	logger.Info("Streak updated", logger.F("streak", streak))
	return nil
}

// Profile returns a copy of the loaded profile, nil before LoadOrCreate
func (p *Progression) Profile() *model.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profile == nil {
		return nil
	}
	clone := *p.profile
	return &clone
}

// Loading reports whether LoadOrCreate is in flight
func (p *Progression) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Progression) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
}

// Reset forgets the loaded profile (sign-out path)
func (p *Progression) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = nil
}
