package streaks

import (
	"context"

	"github.com/google/uuid"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/models"
)

type LogCmd struct {
	Target
	EntryID string `help:"Journal entry ID (defaults to a new UUID)."`
	JSON    bool   `help:"Print the updated record as JSON."`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}

	entryID := c.EntryID
	if entryID == "" {
		entryID = uuid.NewString()
	}

	before, err := svc.GetUserStreak(context.Background(), c.User, c.Journal)
	if err != nil {
		return err
	}
	rec, err := svc.UpdateUserStreak(context.Background(), c.User, entryID, c.Journal)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(ctx, rec)
	}

	switch {
	case before.LastEntryDate != nil && rec.LastEntryDate != nil && !rec.LastEntryDate.After(*before.LastEntryDate):
		ctx.Println("✓ Entry recorded (already logged today)")
	case rec.StreakHealth == models.HealthBroken:
		ctx.Println("✗ Streak reset. Today is day 1 again.")
	case rec.StreakFreezes < before.StreakFreezes:
		ctx.Println("↺ A streak freeze covered the missed day.")
	default:
		ctx.Println("✓ Entry recorded")
	}
	printRecord(ctx, rec)

	for _, m := range rec.Milestones {
		if !before.HasMilestone(m.Type, m.Threshold) {
			ctx.Printf("\n★ Milestone reached: %s\n  %s\n", m.Title, m.Description)
		}
	}
	return nil
}
