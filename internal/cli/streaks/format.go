package streaks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/streak"
	"github.com/stepworks/streakd/internal/utils"
)

// Target names the streak a command operates on.
type Target struct {
	User    string `arg:"" help:"User ID."`
	Journal string `short:"j" help:"Journal type." default:"${journal}"`
}

func printJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}

func healthIcon(h models.StreakHealth) string {
	switch h {
	case models.HealthStrong:
		return "✓"
	case models.HealthRecovering:
		return "↺"
	case models.HealthBroken:
		return "✗"
	}
	return "?"
}

func printRecord(ctx *cli.Context, rec models.StreakRecord) {
	ctx.Printf("%s %s · %s\n", healthIcon(rec.StreakHealth), rec.UserID, rec.JournalType)
	ctx.Printf("  Current streak:  %d day(s)\n", rec.CurrentStreak)
	ctx.Printf("  Longest streak:  %d day(s)\n", rec.LongestStreak)
	ctx.Printf("  Total entries:   %d\n", rec.TotalEntries)
	ctx.Printf("  Health:          %s\n", rec.StreakHealth)
	if rec.LastEntryDate != nil {
		ctx.Printf("  Last entry:      %s\n", utils.FormatDay(*rec.LastEntryDate))
	}
	ctx.Printf("  Freezes:         %d\n", rec.StreakFreezes)
	ctx.Printf("  Recoveries:      %d", rec.RecoveryGrace.AvailableRecoveries)
	if next := rec.RecoveryGrace.NextRecoveryAt; next != nil {
		ctx.Printf(" (next unlocks %s)", next.Format("2006-01-02 15:04"))
	}
	ctx.Println()

	vp := rec.VisualProgress
	ctx.Printf("  Garden stage:    %d/%d  [%s] %d%%\n", vp.Stage, streak.StageCount(), bar(vp.PathPosition, 20), vp.PathPosition)
	if len(vp.UnlockedElements) > 0 {
		ctx.Printf("  Unlocked:        %s\n", strings.Join(vp.UnlockedElements, ", "))
	}
	if n := len(rec.UnviewedMilestones()); n > 0 {
		ctx.Printf("  New milestones:  %d (see 'streakd milestones %s')\n", n, rec.UserID)
	}
}

func bar(percent, width int) string {
	filled := percent * width / 100
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
