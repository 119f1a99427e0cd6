package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/notifier"
	"github.com/stepworks/streakd/internal/utils"
)

// Sender delivers a single reminder.
type Sender interface {
	Notify(ctx context.Context, payload notifier.WebhookPayload) error
}

type Config struct {
	QuietStart  string
	QuietEnd    string
	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		QuietStart:  constants.DefaultQuietHoursStart,
		QuietEnd:    constants.DefaultQuietHoursEnd,
		Concurrency: constants.NotifyMaxConcurrency,
	}
}

// Bucket groups at-risk records that share a timezone.
type Bucket struct {
	Timezone string
	Location *time.Location
	Records  []models.StreakRecord
}

type Result struct {
	AtRisk       int
	Sent         int
	Failed       int
	SkippedQuiet int
	Buckets      []string
}

type Reminder struct {
	sender Sender
	cfg    Config
}

func New(sender Sender, cfg Config) (*Reminder, error) {
	if _, err := utils.ParseTimeToMinutes(cfg.QuietStart); err != nil {
		return nil, fmt.Errorf("invalid quiet hours start %q: %w", cfg.QuietStart, err)
	}
	if _, err := utils.ParseTimeToMinutes(cfg.QuietEnd); err != nil {
		return nil, fmt.Errorf("invalid quiet hours end %q: %w", cfg.QuietEnd, err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Reminder{sender: sender, cfg: cfg}, nil
}

// AtRisk returns the records whose last entry was yesterday in their own
// timezone, bucketed by that timezone and sorted by name. Records with an
// unknown timezone fall back to UTC.
func AtRisk(recs []models.StreakRecord, now time.Time) []Bucket {
	byZone := make(map[string]*Bucket)
	for _, rec := range recs {
		if rec.LastEntryDate == nil || rec.CurrentStreak <= 0 {
			continue
		}
		tz := rec.Timezone
		if tz == "" {
			tz = constants.DefaultTimezone
		}
		loc, err := utils.LoadLocation(tz)
		if err != nil {
			logger.Warn("Unknown timezone on streak record, using UTC", "user", rec.UserID, "timezone", tz)
			tz, loc = constants.DefaultTimezone, time.UTC
		}

		today := utils.DayOf(now, loc)
		if utils.DaysBetween(*rec.LastEntryDate, today) != 1 {
			continue
		}

		b, ok := byZone[tz]
		if !ok {
			b = &Bucket{Timezone: tz, Location: loc}
			byZone[tz] = b
		}
		b.Records = append(b.Records, rec)
	}

	buckets := make([]Bucket, 0, len(byZone))
	for _, b := range byZone {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Timezone < buckets[j].Timezone })
	return buckets
}

// Run sends reminders for every at-risk record whose timezone is outside
// quiet hours. Delivery failures are collected rather than aborting the run.
func (r *Reminder) Run(ctx context.Context, recs []models.StreakRecord, now time.Time) (Result, error) {
	var result Result
	var mu sync.Mutex
	var failures []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, b := range AtRisk(recs, now) {
		result.AtRisk += len(b.Records)
		quiet, err := utils.InWindow(now.In(b.Location), r.cfg.QuietStart, r.cfg.QuietEnd)
		if err != nil {
			return result, err
		}
		if quiet {
			logger.Debug("Skipping bucket in quiet hours", "timezone", b.Timezone, "records", len(b.Records))
			result.SkippedQuiet += len(b.Records)
			continue
		}
		result.Buckets = append(result.Buckets, b.Timezone)

		for _, rec := range b.Records {
			g.Go(func() error {
				err := r.sender.Notify(gctx, payloadFor(rec, now))
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logger.Warn("Reminder delivery failed", "user", rec.UserID, "journal_type", rec.JournalType, "error", err)
					result.Failed++
					failures = append(failures, fmt.Errorf("%s: %w", rec.Key(), err))
					return nil
				}
				result.Sent++
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	logger.Info("Reminder run finished", "at_risk", result.AtRisk, "sent", result.Sent, "failed", result.Failed, "quiet", result.SkippedQuiet)
	return result, errors.Join(failures...)
}

func payloadFor(rec models.StreakRecord, now time.Time) notifier.WebhookPayload {
	return notifier.WebhookPayload{
		Kind:          notifier.KindReminder,
		UserID:        rec.UserID,
		JournalType:   rec.JournalType,
		CurrentStreak: rec.CurrentStreak,
		Text:          fmt.Sprintf("Your %d-day %s streak is waiting for today's entry.", rec.CurrentStreak, rec.JournalType),
		SentAt:        now.UTC(),
	}
}
