// Package theme derives the productivity theme from how much focus time the
// user has banked today. It also owns the combination of the stored same-day
// aggregate with the live clock reading of a still-running timer, so the
// active timer's elapsed time is never counted twice.
package theme

import (
	"time"

	"github.com/darwiniquina/daily-task/internal/model"
	"github.com/darwiniquina/daily-task/internal/store"
)

// Palette is one tier of the productivity theme
type Palette struct {
	Name      string
	Primary   string // terminal hex color for the dominant accent
	Secondary string
	Light     string
}

var tiers = []struct {
	minHours float64
	palette  Palette
}{
	{6, Palette{Name: "gold", Primary: "#F59E0B", Secondary: "#DC2626", Light: "#FEF3C7"}},
	{4, Palette{Name: "pink", Primary: "#EC4899", Secondary: "#7C3AED", Light: "#FCE7F3"}},
	{2, Palette{Name: "orange", Primary: "#F97316", Secondary: "#DC2626", Light: "#FFEDD5"}},
	{1, Palette{Name: "purple", Primary: "#8B5CF6", Secondary: "#7C3AED", Light: "#EDE9FE"}},
}

var (
	paletteGray = Palette{Name: "gray", Primary: "#6B7280", Secondary: "#4B5563", Light: "#F3F4F6"}
	paletteBlue = Palette{Name: "blue", Primary: "#3B82F6", Secondary: "#2563EB", Light: "#DBEAFE"}
)

// ForHours maps today's focus hours to a palette tier
func ForHours(hours float64) Palette {
	if hours == 0 {
		return paletteGray
	}
	for _, t := range tiers {
		if hours >= t.minHours {
			return t.palette
		}
	}
	return paletteBlue
}

// TotalFocusToday combines the engine's stored same-day aggregate with the
// live elapsed reading of an active timer started today. Stopped timers are
// already in the aggregate; the active one has no recorded duration yet.
func TotalFocusToday(e *store.TimerEngine, now time.Time) int64 {
	total := e.TodaysFocus()

	if active := e.Active(); active != nil {
		today := now.Format(model.DateLayout)
		if active.StartTime.In(now.Location()).Format(model.DateLayout) == today {
			total += e.Elapsed()
		}
	}

	return total
}

// FocusHours converts seconds of focus to fractional hours
func FocusHours(seconds int64) float64 {
	return float64(seconds) / 3600
}
