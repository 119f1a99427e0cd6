package streaks

import (
	"context"

	"github.com/stepworks/streakd/internal/cli"
)

type ShowCmd struct {
	Target
	JSON bool `help:"Print the record as JSON."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}
	rec, err := svc.GetUserStreak(context.Background(), c.User, c.Journal)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(ctx, rec)
	}
	printRecord(ctx, rec)
	return nil
}

type ListCmd struct {
	JSON bool `help:"Print records as JSON."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}
	recs, err := svc.ListStreaks(context.Background())
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(ctx, recs)
	}
	if len(recs) == 0 {
		ctx.Println("No streaks recorded yet.")
		return nil
	}
	for _, rec := range recs {
		ctx.Printf("%s %-24s %-12s current %-4d longest %-4d entries %d\n",
			healthIcon(rec.StreakHealth), rec.UserID, rec.JournalType, rec.CurrentStreak, rec.LongestStreak, rec.TotalEntries)
	}
	return nil
}
