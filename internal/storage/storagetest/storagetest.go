// Package storagetest holds the behaviour every storage.Provider must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/streak"
)

// Factory returns an initialized, empty provider. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.Provider

// Run exercises a provider against the shared contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, newStore(t)) })
	t.Run("ConditionalSave", func(t *testing.T) { testConditionalSave(t, newStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("ConcurrentInsert", func(t *testing.T) { testConcurrentInsert(t, newStore(t)) })
}

// Sample builds a record with history, milestones and recovery state so that
// every persisted field is exercised.
func Sample(t *testing.T, userID, journalType string) models.StreakRecord {
	t.Helper()
	loc := time.UTC
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, loc)

	var rec *models.StreakRecord
	for i, d := range []int{0, 1, 2, 6} {
		next, err := streak.Update(rec, streak.Entry{UserID: userID, JournalType: journalType, EntryID: "entry-" + string(rune('a'+i))}, start.AddDate(0, 0, d), loc)
		if err != nil {
			t.Fatalf("building sample: %v", err)
		}
		rec = &next
	}
	recovered, err := streak.Recover(rec, "", start.AddDate(0, 0, 6), loc)
	if err != nil {
		t.Fatalf("building sample: %v", err)
	}
	return recovered
}

func testGetMissing(t *testing.T, s storage.Provider) {
	_, err := s.GetStreak(context.Background(), "nobody", "step10")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetStreak on missing record: got %v, want ErrNotFound", err)
	}
}

func testInsertAndGet(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	rec := Sample(t, "user-1", "step10")

	saved, err := s.SaveStreak(ctx, rec, 0)
	if err != nil {
		t.Fatalf("SaveStreak insert failed: %v", err)
	}
	if saved.Version != 1 {
		t.Errorf("expected version 1 after insert, got %d", saved.Version)
	}

	got, err := s.GetStreak(ctx, "user-1", "step10")
	if err != nil {
		t.Fatalf("GetStreak failed: %v", err)
	}
	AssertEqual(t, saved, got)
}

func testConditionalSave(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	rec := Sample(t, "user-2", "step10")

	v1, err := s.SaveStreak(ctx, rec, 0)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if _, err := s.SaveStreak(ctx, rec, 0); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("second insert: got %v, want ErrVersionConflict", err)
	}

	v1.StreakFreezes = 5
	v2, err := s.SaveStreak(ctx, v1, v1.Version)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if v2.Version != 2 {
		t.Errorf("expected version 2, got %d", v2.Version)
	}

	stale := v1
	stale.StreakFreezes = 9
	if _, err := s.SaveStreak(ctx, stale, v1.Version); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("stale update: got %v, want ErrVersionConflict", err)
	}

	got, err := s.GetStreak(ctx, "user-2", "step10")
	if err != nil {
		t.Fatal(err)
	}
	if got.StreakFreezes != 5 || got.Version != 2 {
		t.Errorf("stale write leaked: freezes=%d version=%d", got.StreakFreezes, got.Version)
	}

	missing := Sample(t, "ghost", "step10")
	if _, err := s.SaveStreak(ctx, missing, 3); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("update of missing record: got %v, want ErrVersionConflict", err)
	}
}

func testList(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	recs, err := s.ListStreaks(ctx)
	if err != nil {
		t.Fatalf("ListStreaks on empty store failed: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty list, got %d", len(recs))
	}

	for _, key := range [][2]string{{"a", "step10"}, {"a", "gratitude"}, {"b", "step10"}} {
		if _, err := s.SaveStreak(ctx, Sample(t, key[0], key[1]), 0); err != nil {
			t.Fatalf("insert %v failed: %v", key, err)
		}
	}

	recs, err = s.ListStreaks(ctx)
	if err != nil {
		t.Fatalf("ListStreaks failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	want := []string{"a/gratitude", "a/step10", "b/step10"}
	for i, rec := range recs {
		if rec.Key() != want[i] {
			t.Errorf("record %d: got %s, want %s", i, rec.Key(), want[i])
		}
	}
}

func testConcurrentInsert(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	const writers = 8

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := streak.NewRecord("racer", "step10", time.Now())
			_, err := s.SaveStreak(ctx, rec, 0)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, storage.ErrVersionConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one insert to win, got %d", wins)
	}
}

// AssertEqual compares the persisted fields of two records.
func AssertEqual(t *testing.T, want, got models.StreakRecord) {
	t.Helper()

	if got.ID != want.ID || got.UserID != want.UserID || got.JournalType != want.JournalType {
		t.Errorf("identity mismatch: got %s %s/%s, want %s %s/%s", got.ID, got.UserID, got.JournalType, want.ID, want.UserID, want.JournalType)
	}
	if got.CurrentStreak != want.CurrentStreak || got.LongestStreak != want.LongestStreak || got.TotalEntries != want.TotalEntries {
		t.Errorf("counter mismatch: got %d/%d/%d, want %d/%d/%d",
			got.CurrentStreak, got.LongestStreak, got.TotalEntries, want.CurrentStreak, want.LongestStreak, want.TotalEntries)
	}
	if got.StreakHealth != want.StreakHealth || got.StreakFreezes != want.StreakFreezes || got.Version != want.Version {
		t.Errorf("state mismatch: got %s/%d/v%d, want %s/%d/v%d",
			got.StreakHealth, got.StreakFreezes, got.Version, want.StreakHealth, want.StreakFreezes, want.Version)
	}
	if !sameTime(got.LastEntryDate, want.LastEntryDate) {
		t.Errorf("last entry date mismatch: got %v, want %v", got.LastEntryDate, want.LastEntryDate)
	}
	if got.RecoveryGrace.AvailableRecoveries != want.RecoveryGrace.AvailableRecoveries ||
		!sameTime(got.RecoveryGrace.LastRecoveryUsed, want.RecoveryGrace.LastRecoveryUsed) ||
		!sameTime(got.RecoveryGrace.NextRecoveryAt, want.RecoveryGrace.NextRecoveryAt) {
		t.Errorf("recovery grace mismatch: got %+v, want %+v", got.RecoveryGrace, want.RecoveryGrace)
	}
	if got.VisualProgress.Stage != want.VisualProgress.Stage || got.VisualProgress.PathPosition != want.VisualProgress.PathPosition ||
		len(got.VisualProgress.UnlockedElements) != len(want.VisualProgress.UnlockedElements) {
		t.Errorf("visual progress mismatch: got %+v, want %+v", got.VisualProgress, want.VisualProgress)
	}
	if len(got.Milestones) != len(want.Milestones) {
		t.Fatalf("milestone count mismatch: got %d, want %d", len(got.Milestones), len(want.Milestones))
	}
	for i := range want.Milestones {
		g, w := got.Milestones[i], want.Milestones[i]
		if g.Type != w.Type || g.Threshold != w.Threshold || g.Title != w.Title || g.Viewed != w.Viewed || !g.AchievedAt.Equal(w.AchievedAt) {
			t.Errorf("milestone %d mismatch: got %+v, want %+v", i, g, w)
		}
	}
	if len(got.StreakHistory) != len(want.StreakHistory) {
		t.Fatalf("history length mismatch: got %d, want %d", len(got.StreakHistory), len(want.StreakHistory))
	}
	for i := range want.StreakHistory {
		g, w := got.StreakHistory[i], want.StreakHistory[i]
		if !g.Date.Equal(w.Date) || g.Completed != w.Completed || g.EntryID != w.EntryID ||
			g.RecoveryUsed != w.RecoveryUsed || g.RecoveryReason != w.RecoveryReason {
			t.Errorf("history row %d mismatch: got %+v, want %+v", i, g, w)
		}
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
