package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/darwiniquina/daily-task/internal/model"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Review past activity",
	RunE:  runHistoryActivity,
}

var historyActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show task counts per day",
	RunE:  runHistoryActivity,
}

var historyDayCmd = &cobra.Command{
	Use:   "day [date]",
	Short: "Show tasks and focus time for a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryDay,
}

func init() {
	historyActivityCmd.Flags().IntVarP(&historyDays, "days", "n", 30, "How many days back to show")
	historyCmd.Flags().IntVarP(&historyDays, "days", "n", 30, "How many days back to show")
	historyCmd.AddCommand(historyActivityCmd)
	historyCmd.AddCommand(historyDayCmd)
}

func runHistoryActivity(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	end := time.Now().Format(model.DateLayout)
	start := time.Now().AddDate(0, 0, -historyDays).Format(model.DateLayout)

	if err := app.stores.History.LoadActivity(context.Background(), start, end); err != nil {
		return fmt.Errorf("failed to load activity: %w", err)
	}

	counts := app.stores.History.ActivityCounts()
	if len(counts) == 0 {
		fmt.Println("No activity in this window.")
		return nil
	}

	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	fmt.Printf("\n📅 Activity, last %d day(s):\n\n", historyDays)
	for _, d := range dates {
		n := counts[d]
		marks := ""
		for i := 0; i < n && i < 20; i++ {
			marks += "▪"
		}
		fmt.Printf("  %s  %s %d\n", d, marks, n)
	}
	fmt.Println()
	return nil
}

func runHistoryDay(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	date := time.Now().Format(model.DateLayout)
	if len(args) == 1 {
		if _, err := time.Parse(model.DateLayout, args[0]); err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[0])
		}
		date = args[0]
	}

	ctx := context.Background()
	if err := app.stores.History.LoadTasksForDate(ctx, date); err != nil {
		return fmt.Errorf("failed to load tasks for %s: %w", date, err)
	}
	if err := app.stores.History.LoadFocusForDate(ctx, date); err != nil {
		return fmt.Errorf("failed to load focus time for %s: %w", date, err)
	}

	tasks := app.stores.History.TasksForDate()
	focus := app.stores.History.FocusSeconds()

	fmt.Printf("\n📅 %s\n", date)
	fmt.Printf("   ⏱  Focus: %s\n\n", model.FormatDuration(focus))

	if len(tasks) == 0 {
		fmt.Println("   No tasks on this day.")
		fmt.Println()
		return nil
	}
	for _, t := range tasks {
		printTask(t)
	}
	fmt.Println()
	return nil
}
