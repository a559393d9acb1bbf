package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darwiniquina/daily-task/internal/model"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Manage focus timers",
	Long: `Manage focus timers. At most one timer runs at a time; starting a
new one stops the current one first.`,
}

var timerStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start a timer for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimerStart,
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer",
	RunE:  runTimerStop,
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running timer",
	RunE:  runTimerStatus,
}

var timerHistoryCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show a task's completed timers",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimerHistory,
}

func init() {
	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerStopCmd)
	timerCmd.AddCommand(timerStatusCmd)
	timerCmd.AddCommand(timerHistoryCmd)
}

func runTimerStart(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	ctx := context.Background()
	engine := app.stores.Timer

	// Adopt a persisted active timer first so the implicit stop applies
	if err := engine.LoadActive(ctx); err != nil {
		return fmt.Errorf("failed to check for a running timer: %w", err)
	}

	if err := engine.Start(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to start timer: %w", err)
	}

	fmt.Printf("⏱  Timer started for task %s\n", shortenID(args[0]))
	return nil
}

func runTimerStop(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	ctx := context.Background()
	engine := app.stores.Timer

	if err := engine.LoadActive(ctx); err != nil {
		return fmt.Errorf("failed to check for a running timer: %w", err)
	}

	active := engine.Active()
	if active == nil {
		fmt.Println("No timer running.")
		return nil
	}

	elapsed := engine.Elapsed()
	if err := engine.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop timer: %w", err)
	}

	fmt.Printf("⏹  Timer stopped after %s (task %s)\n",
		model.FormatDuration(elapsed), shortenID(active.TaskID))
	fmt.Printf("   Today's focus: %s\n", model.FormatClock(engine.TodaysFocus()))
	return nil
}

func runTimerStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	ctx := context.Background()
	engine := app.stores.Timer

	if err := engine.LoadActive(ctx); err != nil {
		return fmt.Errorf("failed to check for a running timer: %w", err)
	}

	active := engine.Active()
	if active == nil {
		fmt.Println("No timer running.")
		return nil
	}

	fmt.Printf("⏱  Running for task %s since %s (%s elapsed)\n",
		shortenID(active.TaskID),
		active.StartTime.Local().Format("15:04:05"),
		model.FormatClock(engine.Elapsed()))
	return nil
}

func runTimerHistory(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	ctx := context.Background()
	engine := app.stores.Timer

	if err := engine.LoadHistory(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to load timer history: %w", err)
	}

	timers := engine.History(args[0])
	if len(timers) == 0 {
		fmt.Println("No completed timers for this task.")
		return nil
	}

	var total int64
	fmt.Printf("\n⏱  Sessions for task %s\n", shortenID(args[0]))
	for _, t := range timers {
		total += t.Seconds()
		fmt.Printf("  %s  %s\n",
			t.StartTime.Local().Format("Jan 2 15:04"),
			model.FormatDuration(t.Seconds()))
	}
	fmt.Printf("  total: %s\n\n", model.FormatTotalDuration(total))
	return nil
}
