package streaks

import (
	"context"

	"github.com/stepworks/streakd/internal/cli"
)

type FreezeCmd struct {
	Target
}

func (c *FreezeCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}
	rec, err := svc.AwardStreakFreeze(context.Background(), c.User, c.Journal)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Freeze awarded. %s now has %d freeze(s) for %s.\n", rec.UserID, rec.StreakFreezes, rec.JournalType)
	return nil
}
