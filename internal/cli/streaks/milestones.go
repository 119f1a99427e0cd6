package streaks

import (
	"context"

	"github.com/stepworks/streakd/internal/cli"
)

type MilestonesCmd struct {
	Target
	MarkViewed bool `help:"Mark all milestones as seen."`
	JSON       bool `help:"Print milestones as JSON."`
}

func (c *MilestonesCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}
	rec, err := svc.GetUserStreak(context.Background(), c.User, c.Journal)
	if err != nil {
		return err
	}

	if c.JSON {
		if err := printJSON(ctx, rec.Milestones); err != nil {
			return err
		}
	} else if len(rec.Milestones) == 0 {
		ctx.Println("No milestones yet.")
	} else {
		for _, m := range rec.Milestones {
			marker := " "
			if !m.Viewed {
				marker = "★"
			}
			ctx.Printf("%s %-24s %-8s %4d  %s\n", marker, m.Title, m.Type, m.Threshold, m.AchievedAt.Format("2006-01-02"))
		}
	}

	if c.MarkViewed {
		n, err := svc.MarkMilestonesViewed(context.Background(), c.User, c.Journal)
		if err != nil {
			return err
		}
		if !c.JSON {
			ctx.Printf("\n%d milestone(s) marked as seen.\n", n)
		}
	}
	return nil
}
