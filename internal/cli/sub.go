package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var subCmd = &cobra.Command{
	Use:   "sub",
	Short: "Manage subtasks",
}

var subAddCmd = &cobra.Command{
	Use:   "add [task-id] [title]",
	Short: "Add a subtask to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSubAdd,
}

var subDoneCmd = &cobra.Command{
	Use:   "done [task-id] [subtask-id]",
	Short: "Toggle a subtask's completion",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubDone,
}

var subDeleteCmd = &cobra.Command{
	Use:     "delete [task-id] [subtask-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a subtask",
	Args:    cobra.ExactArgs(2),
	RunE:    runSubDelete,
}

var subUndo bool

func init() {
	subDoneCmd.Flags().BoolVar(&subUndo, "undo", false, "Mark the subtask as not done")

	subCmd.AddCommand(subAddCmd)
	subCmd.AddCommand(subDoneCmd)
	subCmd.AddCommand(subDeleteCmd)
}

func runSubAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	title := strings.Join(args[1:], " ")
	if err := app.stores.Tasks.AddSubtask(context.Background(), args[0], title); err != nil {
		return fmt.Errorf("failed to add subtask: %w", err)
	}

	fmt.Printf("✓ Added subtask %q to %s\n", title, shortenID(args[0]))
	return nil
}

func runSubDone(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	completed := !subUndo
	if err := app.stores.Tasks.ToggleSubtask(context.Background(), args[0], args[1], completed); err != nil {
		return fmt.Errorf("failed to toggle subtask: %w", err)
	}

	if completed {
		fmt.Printf("✓ Subtask %s done\n", shortenID(args[1]))
	} else {
		fmt.Printf("○ Subtask %s reopened\n", shortenID(args[1]))
	}
	return nil
}

func runSubDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	if err := app.stores.Tasks.DeleteSubtask(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}

	fmt.Printf("🗑  Deleted subtask %s\n", shortenID(args[1]))
	return nil
}
