package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/darwiniquina/daily-task/internal/model"
	"github.com/darwiniquina/daily-task/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a new task, optionally with subtasks.

Examples:
  daily-task add "Write report"
  daily-task add "Write report" --date 2024-06-01 --sub draft --sub review
  daily-task add "Call dentist" --deadline 2024-06-01T15:00:00`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addDescription string
	addDate        string
	addDeadline    string
	addSubtasks    []string
)

func init() {
	addCmd.Flags().StringVarP(&addDescription, "desc", "D", "", "Task description")
	addCmd.Flags().StringVarP(&addDate, "date", "d", "", "Calendar day (YYYY-MM-DD, defaults to the selected day or today)")
	addCmd.Flags().StringVar(&addDeadline, "deadline", "", "Deadline timestamp")
	addCmd.Flags().StringArrayVarP(&addSubtasks, "sub", "s", nil, "Subtask title (repeatable)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	draft := store.TaskDraft{
		Title:       strings.Join(args, " "),
		Description: addDescription,
	}

	if addDate != "" {
		if _, err := time.Parse(model.DateLayout, addDate); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", addDate)
		}
		draft.Date = addDate
	}

	if addDeadline != "" {
		deadline, err := parseDeadline(addDeadline)
		if err != nil {
			return err
		}
		draft.Deadline = &deadline
	}

	task, err := app.stores.Tasks.Add(context.Background(), draft, addSubtasks)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}

	fmt.Printf("✓ Added for %s: %q", task.Date, task.Title)
	if len(task.Subtasks) > 0 {
		fmt.Printf(" (%d subtasks)", len(task.Subtasks))
	}
	fmt.Println()
	return nil
}

func parseDeadline(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", model.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q", s)
}
