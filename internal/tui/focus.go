package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/model"
	"github.com/darwiniquina/daily-task/internal/store"
	"github.com/darwiniquina/daily-task/internal/theme"
)

type keyMap struct {
	Stop key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Stop: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stop timer"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type tickMsg time.Time

type stoppedMsg struct {
	err error
}

// FocusModel renders the running timer and today's focus total, themed by
// how much focus the user has banked so far
type FocusModel struct {
	stores  *store.Stores
	message string
}

// NewFocusModel creates the focus view over the shared stores
func NewFocusModel(stores *store.Stores) FocusModel {
	return FocusModel{stores: stores}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the render tick
func (m FocusModel) Init() tea.Cmd {
	return tickCmd()
}

// Update handles key presses and the per-second re-render
func (m FocusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tickCmd()

	case stoppedMsg:
		if msg.err != nil {
			m.message = "Failed to stop timer: " + msg.err.Error()
		} else {
			m.message = "Timer stopped"
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Stop):
			engine := m.stores.Timer
			return m, func() tea.Msg {
				logger.Info("Stopping timer from focus view")
				return stoppedMsg{err: engine.Stop(context.Background())}
			}
		}
	}
	return m, nil
}

// View renders the focus dashboard
func (m FocusModel) View() string {
	now := time.Now()
	total := theme.TotalFocusToday(m.stores.Timer, now)
	palette := theme.ForHours(theme.FocusHours(total))

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(palette.Primary))
	clockStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(palette.Secondary)).
		Padding(0, 1)
	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(palette.Primary)).
		Padding(1, 3)

	var body string
	if active := m.stores.Timer.Active(); active != nil {
		body = titleStyle.Render("Focusing: "+m.taskTitle(active.TaskID)) + "\n\n" +
			clockStyle.Render(model.FormatClock(m.stores.Timer.Elapsed()))
	} else {
		body = dimStyle.Render("No timer running. Start one with: daily-task timer start <task-id>")
	}

	footer := dimStyle.Render("today: "+model.FormatClock(total)+" focus  •  tier: "+palette.Name) + "\n" +
		dimStyle.Render("s stop  •  q quit")
	if m.message != "" {
		footer += "\n" + dimStyle.Render(m.message)
	}

	return boxStyle.Render(body+"\n\n"+footer) + "\n"
}

func (m FocusModel) taskTitle(taskID string) string {
	if t := m.stores.Tasks.Find(taskID); t != nil {
		return t.Title
	}
	return taskID
}
