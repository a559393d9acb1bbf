package model

// XP transaction source types
const (
	SourceTask    = "task"
	SourceSubtask = "subtask"
)

// Profile holds a user's gamification state. Its id equals the owner's user id.
type Profile struct {
	ID               string  `json:"id"`
	DisplayName      *string `json:"display_name,omitempty"`
	AvatarURL        *string `json:"avatar_url,omitempty"`
	XP               int     `json:"xp"`
	Level            int     `json:"level"`
	StreakCount      int     `json:"streak_count"`
	LastActivityDate *string `json:"last_activity_date,omitempty"`
}

// XPToNextLevel returns the XP threshold for the profile's current level
func (p *Profile) XPToNextLevel() int {
	return p.Level * 100
}

// Progress returns how far into the current level the profile is, 0..100
func (p *Profile) Progress() float64 {
	return float64(p.XP) / float64(p.XPToNextLevel()) * 100
}

// XPTransaction is a remote-only ledger entry. The (user, source type,
// source id) triple is unique and makes grants idempotent.
type XPTransaction struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Amount     int    `json:"amount"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
}
