package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "--"},
		{-5, "--"},
		{45, "45s"},
		{60, "1m 0s"},
		{252, "4m 12s"},
		{3600, "1h 0m"},
		{3900, "1h 5m"},
		{7322, "2h 2m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "00:00:09", FormatClock(9))
	assert.Equal(t, "00:01:30", FormatClock(90))
	assert.Equal(t, "01:02:03", FormatClock(3723))
	assert.Equal(t, "00:00:00", FormatClock(-7))
}

func TestTimerElapsed(t *testing.T) {
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	timer := Timer{StartTime: start}

	assert.EqualValues(t, 0, timer.Elapsed(start))
	assert.EqualValues(t, 90, timer.Elapsed(start.Add(90*time.Second)))
	// floored, not rounded
	assert.EqualValues(t, 90, timer.Elapsed(start.Add(90*time.Second+900*time.Millisecond)))
	// a clock that runs behind never yields a negative reading
	assert.EqualValues(t, 0, timer.Elapsed(start.Add(-time.Minute)))
}

func TestTimerSeconds(t *testing.T) {
	var timer Timer
	assert.EqualValues(t, 0, timer.Seconds())

	d := int64(600)
	timer.Duration = &d
	assert.EqualValues(t, 600, timer.Seconds())
}

func TestTaskIsOverdue(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	assert.False(t, (&Task{}).IsOverdue(), "no deadline")
	assert.True(t, (&Task{Deadline: &past}).IsOverdue())
	assert.False(t, (&Task{Deadline: &future}).IsOverdue())
	assert.False(t, (&Task{Deadline: &past, Completed: true}).IsOverdue(), "done tasks are never overdue")
}

func TestSubtaskProgress(t *testing.T) {
	task := Task{Subtasks: []Subtask{
		{Completed: true},
		{Completed: false},
		{Completed: true},
	}}
	done, total := task.SubtaskProgress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)

	done, total = (&Task{}).SubtaskProgress()
	assert.Zero(t, done)
	assert.Zero(t, total)
}

func TestProfileProgress(t *testing.T) {
	p := Profile{XP: 30, Level: 2}
	assert.Equal(t, 200, p.XPToNextLevel())
	assert.InDelta(t, 15.0, p.Progress(), 0.001)
}
