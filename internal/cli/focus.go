package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/tui"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Open the live focus view",
	RunE:  runFocus,
}

func runFocus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	ctx := context.Background()

	// Warm the caches the view reads from; failures degrade the display
	// but do not block it
	if err := app.stores.Timer.LoadActive(ctx); err != nil {
		logger.Warn("Focus view starting without active timer state", logger.F("error", err))
	}
	if err := app.stores.Timer.LoadTodaysFocus(ctx); err != nil {
		logger.Warn("Focus view starting without today's total", logger.F("error", err))
	}
	if err := app.stores.Tasks.Load(ctx, app.stores.Tasks.Filter()); err != nil {
		logger.Warn("Focus view starting without task titles", logger.F("error", err))
	}

	logger.Info("Launching focus view")
	p := tea.NewProgram(tui.NewFocusModel(app.stores), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("Focus view error", logger.F("error", err))
		return fmt.Errorf("failed to run focus view: %w", err)
	}

	return nil
}
