package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show level, XP and streak",
	RunE:  runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.requireUser(); err != nil {
		return err
	}

	if err := app.stores.Progress.LoadOrCreate(context.Background()); err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	p := app.stores.Progress.Profile()

	name := "(unnamed)"
	if p.DisplayName != nil {
		name = *p.DisplayName
	}

	filled := int(p.Progress() / 10)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)

	fmt.Printf("\n👤 %s\n", name)
	fmt.Printf("   Level %d  %s  %d/%d XP\n", p.Level, bar, p.XP, p.XPToNextLevel())
	fmt.Printf("   🔥 Streak: %d day(s)", p.StreakCount)
	if p.LastActivityDate != nil {
		fmt.Printf("  (last activity %s)", *p.LastActivityDate)
	}
	fmt.Println()
	fmt.Println()
	return nil
}
