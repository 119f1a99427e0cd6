package streaks

import (
	"context"
	"strings"
	"time"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/utils"
)

type HistoryCmd struct {
	Target
	Weeks int `help:"Number of weeks to show." default:"4"`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}
	rec, err := svc.GetUserStreak(context.Background(), c.User, c.Journal)
	if err != nil {
		return err
	}

	weeks := c.Weeks
	if weeks <= 0 {
		weeks = 4
	}
	ctx.Printf("%s · %s, last %d week(s)\n\n", rec.UserID, rec.JournalType, weeks)
	ctx.Print(renderCalendar(rec.StreakHistory, svc.Today(), weeks))
	ctx.Println("\n  # entry   o freeze/recovery   . missed")
	return nil
}

// renderCalendar lays history out in Monday-first week rows ending with the
// week that contains today. Days after today are left blank.
func renderCalendar(history []models.HistoryEntry, today time.Time, weeks int) string {
	byDay := make(map[string]models.HistoryEntry, len(history))
	for _, h := range history {
		byDay[utils.FormatDay(h.Date)] = h
	}

	offset := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -offset-7*(weeks-1))

	var b strings.Builder
	b.WriteString("             Mo Tu We Th Fr Sa Su\n")
	for w := 0; w < weeks; w++ {
		weekStart := start.AddDate(0, 0, 7*w)
		b.WriteString("  " + utils.FormatDay(weekStart) + " ")
		for d := 0; d < 7; d++ {
			day := weekStart.AddDate(0, 0, d)
			cell := "."
			if day.After(today) {
				cell = " "
			} else if h, ok := byDay[utils.FormatDay(day)]; ok {
				switch {
				case h.Completed:
					cell = "#"
				case h.RecoveryUsed:
					cell = "o"
				}
			}
			b.WriteString("  " + cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}
