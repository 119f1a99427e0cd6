package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/streak"
	"github.com/stepworks/streakd/internal/utils"
)

// EventKind names a notable streak change.
type EventKind string

const (
	EventMilestone EventKind = "milestone"
	EventBroken    EventKind = "streak_broken"
	EventRecovered EventKind = "streak_recovered"
)

// Event is handed to the Publisher after a change has been saved.
type Event struct {
	Kind        EventKind           `json:"kind"`
	UserID      string              `json:"user_id"`
	JournalType string              `json:"journal_type"`
	Streak      models.StreakRecord `json:"streak"`
	Milestones  []models.Milestone  `json:"milestones,omitempty"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

// Publisher receives events. Publish errors are logged and never fail the
// mutation that produced them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Service applies the streak engine to stored records with optimistic
// concurrency. It is safe for concurrent use.
type Service struct {
	store      storage.Provider
	now        func() time.Time
	loc        *time.Location
	maxRetries int
	log        *log.Logger
	publisher  Publisher
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxRetries bounds how many times a conflicting save is recomputed.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:      store,
		now:        time.Now,
		loc:        time.UTC,
		maxRetries: constants.DefaultMaxSaveRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.With("component", "tracker")
	}
	return s
}

// ForTimezone returns a copy of the service that computes "today" in the
// named IANA zone. An empty name keeps the current zone.
func (s *Service) ForTimezone(name string) (*Service, error) {
	if name == "" {
		return s, nil
	}
	loc, err := utils.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	c := *s
	c.loc = loc
	return &c, nil
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current civil day in the service's zone.
func (s *Service) Today() time.Time {
	return utils.DayOf(s.now(), s.loc)
}

func (s *Service) UpdateUserStreak(ctx context.Context, userID, entryID, journalType string) (models.StreakRecord, error) {
	if userID == "" {
		return models.StreakRecord{}, streak.ErrUserIDRequired
	}
	if entryID == "" {
		return models.StreakRecord{}, streak.ErrEntryIDRequired
	}

	var before *models.StreakRecord
	rec, err := s.mutate(ctx, "update", userID, journalType, func(cur *models.StreakRecord, now time.Time) (models.StreakRecord, error) {
		before = cur
		return streak.Update(cur, streak.Entry{UserID: userID, JournalType: journalType, EntryID: entryID}, now, s.loc)
	})
	if err != nil {
		return models.StreakRecord{}, err
	}

	s.log.Info("Streak updated",
		"user", userID, "journal_type", rec.JournalType,
		"current", rec.CurrentStreak, "longest", rec.LongestStreak, "health", rec.StreakHealth)

	// A same-day repeat after a break must not announce it again.
	if before != nil && rec.StreakHealth == models.HealthBroken && !sameDay(before.LastEntryDate, rec.LastEntryDate) {
		s.publish(ctx, EventBroken, rec, nil)
	}
	s.publishNewMilestones(ctx, before, rec)
	return rec, nil
}

func (s *Service) GetUserStreak(ctx context.Context, userID, journalType string) (models.StreakRecord, error) {
	if userID == "" {
		return models.StreakRecord{}, streak.ErrUserIDRequired
	}
	jt, err := streak.NormalizeJournalType(journalType)
	if err != nil {
		return models.StreakRecord{}, err
	}

	rec, err := s.store.GetStreak(ctx, userID, jt)
	if errors.Is(err, storage.ErrNotFound) {
		return streak.DefaultRecord(userID, jt), nil
	}
	if err != nil {
		return models.StreakRecord{}, fmt.Errorf("failed to load streak: %w", err)
	}
	streak.Refresh(&rec, s.now())
	return rec, nil
}

func (s *Service) RecoverUserStreak(ctx context.Context, userID, journalType, reason string) (models.StreakRecord, error) {
	if userID == "" {
		return models.StreakRecord{}, streak.ErrUserIDRequired
	}

	var before *models.StreakRecord
	rec, err := s.mutate(ctx, "recover", userID, journalType, func(cur *models.StreakRecord, now time.Time) (models.StreakRecord, error) {
		before = cur
		return streak.Recover(cur, models.RecoveryReason(reason), now, s.loc)
	})
	if err != nil {
		return models.StreakRecord{}, err
	}

	s.log.Info("Streak recovered", "user", userID, "journal_type", rec.JournalType, "current", rec.CurrentStreak)
	s.publish(ctx, EventRecovered, rec, nil)
	s.publishNewMilestones(ctx, before, rec)
	return rec, nil
}

func (s *Service) AwardStreakFreeze(ctx context.Context, userID, journalType string) (models.StreakRecord, error) {
	if userID == "" {
		return models.StreakRecord{}, streak.ErrUserIDRequired
	}

	rec, err := s.mutate(ctx, "freeze", userID, journalType, func(cur *models.StreakRecord, now time.Time) (models.StreakRecord, error) {
		return streak.AwardFreeze(cur, userID, journalType, now)
	})
	if err != nil {
		return models.StreakRecord{}, err
	}

	s.log.Info("Streak freeze awarded", "user", userID, "journal_type", rec.JournalType, "freezes", rec.StreakFreezes)
	return rec, nil
}

// MarkMilestonesViewed acknowledges every unviewed milestone and returns how
// many changed. A missing record has nothing to mark.
func (s *Service) MarkMilestonesViewed(ctx context.Context, userID, journalType string) (int, error) {
	if userID == "" {
		return 0, streak.ErrUserIDRequired
	}

	marked := 0
	_, err := s.mutate(ctx, "mark_viewed", userID, journalType, func(cur *models.StreakRecord, now time.Time) (models.StreakRecord, error) {
		if cur == nil {
			marked = 0
			return models.StreakRecord{}, errNothingToSave
		}
		next := cur.Clone()
		marked = streak.MarkMilestonesViewed(&next)
		if marked == 0 {
			return models.StreakRecord{}, errNothingToSave
		}
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil && !errors.Is(err, errNothingToSave) {
		return 0, err
	}
	return marked, nil
}

func (s *Service) ListStreaks(ctx context.Context) ([]models.StreakRecord, error) {
	recs, err := s.store.ListStreaks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}
	now := s.now()
	for i := range recs {
		streak.Refresh(&recs[i], now)
	}
	return recs, nil
}

// errNothingToSave lets a mutation bail out without writing.
var errNothingToSave = errors.New("nothing to save")

type mutation func(cur *models.StreakRecord, now time.Time) (models.StreakRecord, error)

// mutate runs read, compute and conditional save, recomputing from a fresh
// read whenever the save loses a race.
func (s *Service) mutate(ctx context.Context, op, userID, journalType string, fn mutation) (models.StreakRecord, error) {
	jt, err := streak.NormalizeJournalType(journalType)
	if err != nil {
		return models.StreakRecord{}, err
	}

	for attempt := 0; ; attempt++ {
		var cur *models.StreakRecord
		var expected int64

		stored, err := s.store.GetStreak(ctx, userID, jt)
		switch {
		case err == nil:
			cur = &stored
			expected = stored.Version
		case errors.Is(err, storage.ErrNotFound):
		default:
			return models.StreakRecord{}, fmt.Errorf("failed to load streak: %w", err)
		}

		next, err := fn(cur, s.now())
		if err != nil {
			return models.StreakRecord{}, err
		}

		saved, err := s.store.SaveStreak(ctx, next, expected)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return models.StreakRecord{}, fmt.Errorf("failed to save streak: %w", err)
		}
		if attempt >= s.maxRetries {
			s.log.Error("Giving up after repeated save conflicts", "op", op, "user", userID, "journal_type", jt, "attempts", attempt+1)
			return models.StreakRecord{}, fmt.Errorf("%s streak for %s: %w", op, userID, err)
		}
		s.log.Warn("Save conflict, retrying", "op", op, "user", userID, "journal_type", jt, "attempt", attempt+1)
	}
}

func (s *Service) publishNewMilestones(ctx context.Context, before *models.StreakRecord, after models.StreakRecord) {
	var fresh []models.Milestone
	for _, m := range after.Milestones {
		if before == nil || !before.HasMilestone(m.Type, m.Threshold) {
			fresh = append(fresh, m)
		}
	}
	if len(fresh) == 0 {
		return
	}
	for _, m := range fresh {
		s.log.Info("Milestone reached", "user", after.UserID, "journal_type", after.JournalType, "type", m.Type, "threshold", m.Threshold)
	}
	s.publish(ctx, EventMilestone, after, fresh)
}

func (s *Service) publish(ctx context.Context, kind EventKind, rec models.StreakRecord, milestones []models.Milestone) {
	if s.publisher == nil {
		return
	}
	ev := Event{
		Kind:        kind,
		UserID:      rec.UserID,
		JournalType: rec.JournalType,
		Streak:      rec,
		Milestones:  milestones,
		OccurredAt:  s.now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("Failed to publish streak event", "kind", kind, "user", rec.UserID, "error", err)
	}
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
