package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/darwiniquina/daily-task/internal/model"
	"github.com/darwiniquina/daily-task/internal/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks for the selected window",
	Long: `List tasks. The date range, range fields and search query persist
between runs.

Examples:
  daily-task list
  daily-task list --date 2024-06-01
  daily-task list --from 2024-06-01 --to 2024-06-07
  daily-task list --search report`,
	RunE: runList,
}

var (
	listDate       string
	listFrom       string
	listTo         string
	listFields     []string
	listSearch     string
	listNoSubtasks bool
)

func init() {
	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "Exact calendar day")
	listCmd.Flags().StringVar(&listFrom, "from", "", "Range start (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "Range end (YYYY-MM-DD)")
	listCmd.Flags().StringSliceVar(&listFields, "fields", nil, "Date columns the range applies to")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Search in title and description")
	listCmd.Flags().BoolVar(&listNoSubtasks, "no-subtasks", false, "Skip fetching subtasks")
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	tasks := app.stores.Tasks

	// Start from the persisted selection, override with flags
	filter := tasks.Filter()
	filter.IncludeSubtasks = !listNoSubtasks
	if cmd.Flags().Changed("date") {
		filter.Date = listDate
	}
	if cmd.Flags().Changed("from") {
		filter.Date = ""
		filter.RangeStart = listFrom
	}
	if cmd.Flags().Changed("to") {
		filter.Date = ""
		filter.RangeEnd = listTo
	}
	if cmd.Flags().Changed("fields") {
		filter.RangeFields = listFields
	}

	if cmd.Flags().Changed("search") {
		tasks.SetSearch(listSearch)
	}

	if err := tasks.Load(context.Background(), filter); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	view := tasks.Filtered(tasks.Search())
	if len(view) == 0 {
		fmt.Println("No tasks found. Add one with: daily-task add \"Your task\"")
		return nil
	}

	header := describeWindow(filter)
	if q := tasks.Search(); q != "" {
		header += fmt.Sprintf("  search=%q", q)
	}
	fmt.Printf("\n📅 %s (%d tasks)\n", header, len(view))
	fmt.Println(strings.Repeat("─", 64))

	for _, t := range view {
		printTask(t)
	}
	fmt.Println()
	return nil
}

func describeWindow(f store.Filter) string {
	if f.Date != "" {
		return f.Date
	}
	if f.RangeStart == f.RangeEnd && f.RangeStart != "" {
		return f.RangeStart
	}
	return f.RangeStart + " .. " + f.RangeEnd
}

func printTask(t model.Task) {
	icon := "[ ]"
	if t.Completed {
		icon = "[x]"
	}

	shortID := t.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	title := t.Title
	if len(title) > 40 {
		title = title[:37] + "..."
	}

	extras := ""
	if done, total := t.SubtaskProgress(); total > 0 {
		extras += fmt.Sprintf("  %d/%d", done, total)
	}
	if t.Deadline != nil {
		due := t.Deadline.Local().Format("Jan 2 15:04")
		if t.IsOverdue() {
			due += " !"
		}
		extras += "  due " + due
	}

	fmt.Printf("  %s  %-8s  %-40s%s\n", icon, shortID, title, extras)

	for _, sub := range t.Subtasks {
		subIcon := "·"
		if sub.Completed {
			subIcon = "✓"
		}
		fmt.Printf("        %s %s  (%s)\n", subIcon, sub.Title, shortenID(sub.ID))
	}
}

func shortenID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
