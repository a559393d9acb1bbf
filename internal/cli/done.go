package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/model"
	"github.com/darwiniquina/daily-task/internal/store"
)

// taskXP is the reward for completing a task
const taskXP = 10

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as completed",
	Long: `Mark a task as completed, granting XP and updating the daily streak.
Completing the same task twice never grants XP twice.

Examples:
  daily-task done 4f8a1c2e
  daily-task done 4f8a1c2e --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Reopen the task and revoke its XP")
}

func runDone(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	ctx := context.Background()
	taskID := args[0]
	completed := !doneUndo

	if err := app.stores.Tasks.Update(ctx, taskID, store.TaskPatch{Completed: &completed}); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	// The gamification hooks are best-effort: the completion stands even if
	// the XP or streak write fails.
	progress := app.stores.Progress
	if err := progress.LoadOrCreate(ctx); err != nil {
		logger.Warn("Skipping XP update, profile unavailable", logger.F("error", err))
	} else if completed {
		if err := progress.GrantXP(ctx, taskXP, model.SourceTask, taskID); err == nil {
			if err := progress.TouchStreak(ctx); err != nil {
				logger.Warn("Failed to update streak", logger.F("error", err))
			}
		}
	} else {
		if err := progress.RevokeXP(ctx, model.SourceTask, taskID); err != nil {
			logger.Warn("Failed to revoke XP", logger.F("error", err))
		}
	}

	if completed {
		fmt.Printf("✓ Completed task %s", shortenID(taskID))
		if p := progress.Profile(); p != nil {
			fmt.Printf("  •  level %d, %d/%d XP, streak %d", p.Level, p.XP, p.XPToNextLevel(), p.StreakCount)
		}
		fmt.Println()
	} else {
		fmt.Printf("○ Reopened task %s\n", shortenID(taskID))
	}
	return nil
}
