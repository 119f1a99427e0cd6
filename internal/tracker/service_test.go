package tracker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/storage/sqlite"
	"github.com/stepworks/streakd/internal/streak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []EventKind
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestService(t *testing.T, opts ...Option) (*Service, *fakeClock) {
	t.Helper()
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "streakd.json"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	return New(s, append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func TestUpdateUserStreakConsecutiveDays(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, clock := newTestService(t, WithPublisher(pub))

	var rec models.StreakRecord
	var err error
	for i := 0; i < 3; i++ {
		rec, err = svc.UpdateUserStreak(ctx, "user-1", fmt.Sprintf("entry-%d", i), "")
		if err != nil {
			t.Fatalf("UpdateUserStreak day %d: %v", i, err)
		}
		clock.Advance(1)
	}

	if rec.CurrentStreak != 3 || rec.LongestStreak != 3 {
		t.Errorf("expected 3/3, got %d/%d", rec.CurrentStreak, rec.LongestStreak)
	}
	if rec.JournalType != "step10" {
		t.Errorf("expected default journal type, got %q", rec.JournalType)
	}
	if rec.Version != 3 {
		t.Errorf("expected version 3 after three saves, got %d", rec.Version)
	}
	if !rec.HasMilestone(models.MilestoneStreak, 3) {
		t.Error("expected streak milestone 3")
	}

	kinds := pub.kinds()
	if len(kinds) != 1 || kinds[0] != EventMilestone {
		t.Errorf("expected a single milestone event, got %v", kinds)
	}
}

func TestUpdateUserStreakValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tests := []struct {
		name        string
		userID      string
		entryID     string
		journalType string
		want        error
	}{
		{name: "missing user", entryID: "e1", want: streak.ErrUserIDRequired},
		{name: "missing entry", userID: "u1", want: streak.ErrEntryIDRequired},
		{name: "bad journal type", userID: "u1", entryID: "e1", journalType: "no spaces!", want: streak.ErrInvalidJournalType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateUserStreak(ctx, tt.userID, tt.entryID, tt.journalType)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGetUserStreakDefault(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rec, err := svc.GetUserStreak(ctx, "nobody", "gratitude")
	if err != nil {
		t.Fatalf("GetUserStreak failed: %v", err)
	}
	if rec.CurrentStreak != 0 || rec.StreakFreezes != 1 || rec.RecoveryGrace.AvailableRecoveries != 1 {
		t.Errorf("unexpected default record: %+v", rec)
	}
	if rec.VisualProgress.Stage != 1 || rec.VisualProgress.PathPosition != 0 {
		t.Errorf("unexpected default visual progress: %+v", rec.VisualProgress)
	}

	list, err := svc.ListStreaks(ctx)
	if err != nil {
		t.Fatalf("ListStreaks failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("default record must not be persisted, found %d", len(list))
	}
}

func TestRecoverUserStreak(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, clock := newTestService(t, WithPublisher(pub))

	if _, err := svc.RecoverUserStreak(ctx, "user-1", "", ""); !errors.Is(err, streak.ErrNoStreakToRecover) {
		t.Fatalf("expected ErrNoStreakToRecover, got %v", err)
	}

	for _, step := range []int{0, 1, 1, 1, 3} {
		clock.Advance(step)
		if _, err := svc.UpdateUserStreak(ctx, "user-1", clock.Now().Format(time.RFC3339), ""); err != nil {
			t.Fatalf("UpdateUserStreak failed: %v", err)
		}
	}

	broken, err := svc.GetUserStreak(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("GetUserStreak failed: %v", err)
	}
	if broken.StreakHealth != models.HealthBroken {
		t.Fatalf("expected broken streak, got %s", broken.StreakHealth)
	}

	rec, err := svc.RecoverUserStreak(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("RecoverUserStreak failed: %v", err)
	}
	if rec.StreakHealth != models.HealthRecovering {
		t.Errorf("expected recovering, got %s", rec.StreakHealth)
	}
	if rec.CurrentStreak <= 1 {
		t.Errorf("expected restored run, got %d", rec.CurrentStreak)
	}
	if rec.RecoveryGrace.AvailableRecoveries != 0 || rec.RecoveryGrace.NextRecoveryAt == nil {
		t.Errorf("unexpected recovery grace: %+v", rec.RecoveryGrace)
	}

	if _, err := svc.RecoverUserStreak(ctx, "user-1", "", ""); !errors.Is(err, streak.ErrStreakNotBroken) {
		t.Errorf("expected ErrStreakNotBroken on second recovery, got %v", err)
	}

	found := false
	for _, k := range pub.kinds() {
		if k == EventRecovered {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a recovered event, got %v", pub.kinds())
	}
}

func TestAwardStreakFreezeCreatesRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rec, err := svc.AwardStreakFreeze(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("AwardStreakFreeze failed: %v", err)
	}
	if rec.StreakFreezes != 2 {
		t.Errorf("expected 2 freezes, got %d", rec.StreakFreezes)
	}
	if rec.Version != 1 || rec.ID == "" {
		t.Errorf("expected a persisted record, got version %d id %q", rec.Version, rec.ID)
	}
}

func TestMarkMilestonesViewed(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	n, err := svc.MarkMilestonesViewed(ctx, "user-1", "")
	if err != nil || n != 0 {
		t.Fatalf("expected 0, nil for missing record, got %d, %v", n, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.UpdateUserStreak(ctx, "user-1", fmt.Sprintf("e%d", i), ""); err != nil {
			t.Fatal(err)
		}
		clock.Advance(1)
	}

	n, err = svc.MarkMilestonesViewed(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("MarkMilestonesViewed failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 milestone marked, got %d", n)
	}

	n, err = svc.MarkMilestonesViewed(ctx, "user-1", "")
	if err != nil || n != 0 {
		t.Errorf("second mark should be a no-op, got %d, %v", n, err)
	}
}

func TestForTimezone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithClock(func() time.Time {
		return time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	}))

	tokyo, err := svc.ForTimezone("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	if svc.Location() != time.UTC {
		t.Error("ForTimezone must not change the original service")
	}

	rec, err := tokyo.UpdateUserStreak(ctx, "user-1", "e1", "")
	if err != nil {
		t.Fatalf("UpdateUserStreak failed: %v", err)
	}
	want := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	if rec.LastEntryDate == nil || !rec.LastEntryDate.Equal(want) {
		t.Errorf("expected Tokyo day %v, got %v", want, rec.LastEntryDate)
	}
	if rec.Timezone != "Asia/Tokyo" {
		t.Errorf("expected timezone recorded, got %q", rec.Timezone)
	}

	if _, err := svc.ForTimezone("Mars/Olympus"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

// conflictingStore fails the first n saves with a version conflict.
type conflictingStore struct {
	storage.Provider
	mu        sync.Mutex
	remaining int
	saves     int
}

func (s *conflictingStore) SaveStreak(ctx context.Context, rec models.StreakRecord, expected int64) (models.StreakRecord, error) {
	s.mu.Lock()
	s.saves++
	if s.remaining > 0 {
		s.remaining--
		s.mu.Unlock()
		return models.StreakRecord{}, storage.ErrVersionConflict
	}
	s.mu.Unlock()
	return s.Provider.SaveStreak(ctx, rec, expected)
}

func TestMutateRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	base := storage.NewJSONStore(filepath.Join(t.TempDir(), "streakd.json"))
	if err := base.Init(); err != nil {
		t.Fatal(err)
	}

	t.Run("recovers within budget", func(t *testing.T) {
		store := &conflictingStore{Provider: base, remaining: 2}
		svc := New(store, WithMaxRetries(3))
		if _, err := svc.UpdateUserStreak(ctx, "user-1", "e1", ""); err != nil {
			t.Fatalf("expected success after retries, got %v", err)
		}
		if store.saves != 3 {
			t.Errorf("expected 3 save attempts, got %d", store.saves)
		}
	})

	t.Run("gives up after budget", func(t *testing.T) {
		store := &conflictingStore{Provider: base, remaining: 10}
		svc := New(store, WithMaxRetries(2))
		_, err := svc.UpdateUserStreak(ctx, "user-2", "e1", "")
		if !errors.Is(err, storage.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
		if store.saves != 3 {
			t.Errorf("expected 3 save attempts, got %d", store.saves)
		}
	})
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "streakd.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := New(store, WithMaxRetries(100), WithClock(func() time.Time {
		return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	}))

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.UpdateUserStreak(ctx, "user-1", fmt.Sprintf("e%d", i), ""); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent update failed: %v", err)
	}

	rec, err := svc.GetUserStreak(ctx, "user-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.TotalEntries != writers {
		t.Errorf("expected %d total entries, got %d", writers, rec.TotalEntries)
	}
	if rec.CurrentStreak != 1 || len(rec.StreakHistory) != 1 {
		t.Errorf("same-day entries must collapse: current %d, history %d", rec.CurrentStreak, len(rec.StreakHistory))
	}
}
