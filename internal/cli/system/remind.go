package system

import (
	"context"
	"errors"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/notifier"
	"github.com/stepworks/streakd/internal/reminder"
)

// RemindCmd sends a reminder to every user whose streak ends today unless
// they journal.
type RemindCmd struct {
	QuietStart  string `default:"${quiet_start}" help:"Start of quiet hours (HH:MM) in each user's timezone."`
	QuietEnd    string `default:"${quiet_end}" help:"End of quiet hours (HH:MM) in each user's timezone."`
	Concurrency int    `default:"${notify_concurrency}" help:"Maximum concurrent webhook deliveries."`
	DryRun      bool   `help:"Print the reminders instead of sending them."`
}

// printSender writes reminders to the command output.
type printSender struct {
	ctx *cli.Context
}

func (p printSender) Notify(_ context.Context, payload notifier.WebhookPayload) error {
	p.ctx.Printf("  → %s/%s: %s\n", payload.UserID, payload.JournalType, payload.Text)
	return nil
}

func (cmd *RemindCmd) Run(ctx *cli.Context) error {
	var sender reminder.Sender = printSender{ctx: ctx}
	if !cmd.DryRun {
		n, err := ctx.Notifier()
		if err != nil {
			return err
		}
		if n == nil {
			return notifier.ErrNoWebhook
		}
		sender = n
	}

	r, err := reminder.New(sender, reminder.Config{
		QuietStart:  cmd.QuietStart,
		QuietEnd:    cmd.QuietEnd,
		Concurrency: cmd.Concurrency,
	})
	if err != nil {
		return err
	}

	clock, err := ctx.Clock()
	if err != nil {
		return err
	}
	recs, err := ctx.Store.ListStreaks(context.Background())
	if err != nil {
		return err
	}

	result, runErr := r.Run(context.Background(), recs, clock())
	ctx.Printf("At risk: %d  Sent: %d  Failed: %d  Quiet hours: %d\n",
		result.AtRisk, result.Sent, result.Failed, result.SkippedQuiet)
	if runErr != nil {
		return errors.Join(errors.New("some reminders were not delivered"), runErr)
	}
	return nil
}
