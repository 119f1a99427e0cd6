package streaks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/stepworks/streakd/internal/cli"
)

type RecoverCmd struct {
	Target
	Reason string `help:"Why the streak is being recovered." default:"manual"`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *RecoverCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}

	if !c.Yes {
		current, err := svc.GetUserStreak(context.Background(), c.User, c.Journal)
		if err != nil {
			return err
		}
		confirmed := false
		err = huh.NewConfirm().
			Title("Use a streak recovery?").
			Description(fmt.Sprintf("%d recovery available. The next one unlocks a week after use.", current.RecoveryGrace.AvailableRecoveries)).
			Affirmative("Recover").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Recovery cancelled.")
			return nil
		}
	}

	rec, err := svc.RecoverUserStreak(context.Background(), c.User, c.Journal, c.Reason)
	if err != nil {
		return err
	}
	ctx.Printf("↺ Streak recovered at %d day(s)\n", rec.CurrentStreak)
	printRecord(ctx, rec)
	return nil
}
