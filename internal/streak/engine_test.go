package streak

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stepworks/streakd/internal/models"
)

var day1 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func onDay(n int) time.Time {
	return day1.AddDate(0, 0, n-1)
}

// logDays applies one entry per listed day, starting from nothing.
func logDays(t *testing.T, days ...int) models.StreakRecord {
	t.Helper()
	var rec *models.StreakRecord
	for i, d := range days {
		next, err := Update(rec, Entry{UserID: "u1", EntryID: fmt.Sprintf("e%d", i)}, onDay(d), time.UTC)
		if err != nil {
			t.Fatalf("Update(day %d) failed: %v", d, err)
		}
		rec = &next
	}
	if rec == nil {
		t.Fatal("no days logged")
	}
	return *rec
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name    string
		rec     *models.StreakRecord
		entry   Entry
		wantErr error
	}{
		{name: "missing entry id", entry: Entry{UserID: "u1"}, wantErr: ErrEntryIDRequired},
		{name: "missing user id", entry: Entry{EntryID: "e1"}, wantErr: ErrUserIDRequired},
		{name: "bad journal type", entry: Entry{UserID: "u1", EntryID: "e1", JournalType: "Step 10!"}, wantErr: ErrInvalidJournalType},
		{name: "existing record without user", rec: &models.StreakRecord{}, entry: Entry{EntryID: "e1"}, wantErr: ErrUserIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Update(tt.rec, tt.entry, day1, time.UTC)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateFirstEntry(t *testing.T) {
	rec := logDays(t, 1)

	if rec.ID == "" {
		t.Error("expected generated id")
	}
	if rec.JournalType != "step10" {
		t.Errorf("expected default journal type, got %q", rec.JournalType)
	}
	if rec.CurrentStreak != 1 || rec.LongestStreak != 1 || rec.TotalEntries != 1 {
		t.Errorf("unexpected counters: current=%d longest=%d total=%d", rec.CurrentStreak, rec.LongestStreak, rec.TotalEntries)
	}
	if rec.StreakHealth != models.HealthStrong {
		t.Errorf("expected strong, got %s", rec.StreakHealth)
	}
	if rec.StreakFreezes != 1 || rec.RecoveryGrace.AvailableRecoveries != 1 {
		t.Errorf("unexpected allowances: freezes=%d recoveries=%d", rec.StreakFreezes, rec.RecoveryGrace.AvailableRecoveries)
	}
	if rec.LastEntryDate == nil || !rec.LastEntryDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected last entry date %v", rec.LastEntryDate)
	}
	if len(rec.StreakHistory) != 1 || !rec.StreakHistory[0].Completed || rec.StreakHistory[0].EntryID != "e0" {
		t.Errorf("unexpected history %+v", rec.StreakHistory)
	}
}

func TestUpdateConsecutiveDays(t *testing.T) {
	rec := logDays(t, 1, 2, 3)

	if rec.CurrentStreak != 3 || rec.LongestStreak != 3 {
		t.Errorf("expected 3/3, got %d/%d", rec.CurrentStreak, rec.LongestStreak)
	}
	if rec.StreakHealth != models.HealthStrong {
		t.Errorf("expected strong, got %s", rec.StreakHealth)
	}
	if !rec.HasMilestone(models.MilestoneStreak, 3) {
		t.Error("expected streak milestone 3")
	}
	if rec.StreakFreezes != 1 {
		t.Errorf("freezes should be untouched, got %d", rec.StreakFreezes)
	}
	if len(rec.VisualProgress.UnlockedElements) != 1 || rec.VisualProgress.UnlockedElements[0] != "seedling" {
		t.Errorf("unexpected unlocked elements %v", rec.VisualProgress.UnlockedElements)
	}
}

func TestUpdateSameDayIsIdempotent(t *testing.T) {
	rec := logDays(t, 1, 2)
	before := rec.Clone()

	for i := 0; i < 3; i++ {
		next, err := Update(&rec, Entry{EntryID: fmt.Sprintf("again-%d", i)}, onDay(2).Add(time.Duration(i)*time.Hour), time.UTC)
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		rec = next
	}

	if rec.CurrentStreak != before.CurrentStreak || rec.LongestStreak != before.LongestStreak || rec.StreakHealth != before.StreakHealth {
		t.Errorf("same-day entries changed streak state: %+v", rec)
	}
	if rec.TotalEntries != before.TotalEntries+3 {
		t.Errorf("expected total %d, got %d", before.TotalEntries+3, rec.TotalEntries)
	}
	if len(rec.StreakHistory) != len(before.StreakHistory) {
		t.Errorf("same-day entries added history rows: %d -> %d", len(before.StreakHistory), len(rec.StreakHistory))
	}
}

func TestUpdateFreezeForgivesOneMissedDay(t *testing.T) {
	rec := logDays(t, 1, 2, 4)

	if rec.CurrentStreak != 3 || rec.LongestStreak != 3 {
		t.Errorf("expected 3/3, got %d/%d", rec.CurrentStreak, rec.LongestStreak)
	}
	if rec.StreakFreezes != 0 {
		t.Errorf("expected one freeze consumed, got %d left", rec.StreakFreezes)
	}
	if rec.StreakHealth != models.HealthRecovering {
		t.Errorf("expected recovering, got %s", rec.StreakHealth)
	}

	skipped := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	var found bool
	for _, h := range rec.StreakHistory {
		if h.Date.Equal(skipped) {
			found = true
			if h.Completed || !h.RecoveryUsed || h.RecoveryReason != models.RecoveryAutomaticFreeze {
				t.Errorf("unexpected freeze row %+v", h)
			}
		}
	}
	if !found {
		t.Error("expected history row for the skipped day")
	}
	for i := 1; i < len(rec.StreakHistory); i++ {
		if !rec.StreakHistory[i-1].Date.Before(rec.StreakHistory[i].Date) {
			t.Fatalf("history not in date order: %+v", rec.StreakHistory)
		}
	}
}

func TestUpdateGapBreaksStreak(t *testing.T) {
	tests := []struct {
		name        string
		days        []int
		wantFreezes int
	}{
		{name: "two missed days with freeze available", days: []int{1, 4}, wantFreezes: 1},
		{name: "one missed day without freezes", days: []int{1, 3, 5}, wantFreezes: 0},
		{name: "long gap", days: []int{1, 2, 3, 30}, wantFreezes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := logDays(t, tt.days...)
			if rec.CurrentStreak != 1 {
				t.Errorf("expected reset to 1, got %d", rec.CurrentStreak)
			}
			if rec.StreakHealth != models.HealthBroken {
				t.Errorf("expected broken, got %s", rec.StreakHealth)
			}
			if rec.StreakFreezes != tt.wantFreezes {
				t.Errorf("expected %d freezes, got %d", tt.wantFreezes, rec.StreakFreezes)
			}
			if rec.LongestStreak < rec.CurrentStreak {
				t.Errorf("longest %d < current %d", rec.LongestStreak, rec.CurrentStreak)
			}
		})
	}
}

func TestUpdateBackdatedEntryIsCountedOnly(t *testing.T) {
	rec := logDays(t, 1, 2, 3)
	before := rec.Clone()

	next, err := Update(&rec, Entry{EntryID: "late"}, onDay(1), time.UTC)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if next.TotalEntries != before.TotalEntries+1 {
		t.Errorf("expected total to increase by one, got %d", next.TotalEntries)
	}
	if next.CurrentStreak != 3 || !next.LastEntryDate.Equal(*before.LastEntryDate) {
		t.Errorf("backdated entry moved the streak: %+v", next)
	}
	if len(next.StreakHistory) != len(before.StreakHistory) {
		t.Error("backdated entry changed history")
	}
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	rec := logDays(t, 1, 2)
	snapshot := rec.Clone()

	if _, err := Update(&rec, Entry{EntryID: "e3"}, onDay(3), time.UTC); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if rec.CurrentStreak != snapshot.CurrentStreak || len(rec.StreakHistory) != len(snapshot.StreakHistory) {
		t.Error("Update mutated its input record")
	}
}

func TestUpdateUsesLocationForToday(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 20:00 UTC on Mar 1 and Mar 2 are Mar 2 and Mar 3 in Tokyo.
	first, err := Update(nil, Entry{UserID: "u1", EntryID: "a"}, time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), tokyo)
	if err != nil {
		t.Fatal(err)
	}
	if got := first.LastEntryDate.Format("2006-01-02"); got != "2026-03-02" {
		t.Errorf("expected Tokyo civil date 2026-03-02, got %s", got)
	}
	if first.Timezone != "Asia/Tokyo" {
		t.Errorf("expected timezone recorded, got %q", first.Timezone)
	}

	second, err := Update(&first, Entry{EntryID: "b"}, time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC), tokyo)
	if err != nil {
		t.Fatal(err)
	}
	if second.CurrentStreak != 2 {
		t.Errorf("expected consecutive day in Tokyo, got current %d", second.CurrentStreak)
	}
}

func TestLongestNeverBelowCurrent(t *testing.T) {
	var rec *models.StreakRecord
	pattern := []int{1, 2, 3, 5, 6, 10, 11, 12, 13, 14, 16, 40, 41}
	for i, d := range pattern {
		next, err := Update(rec, Entry{UserID: "u1", EntryID: fmt.Sprint(i)}, onDay(d), time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if next.LongestStreak < next.CurrentStreak {
			t.Fatalf("day %d: longest %d < current %d", d, next.LongestStreak, next.CurrentStreak)
		}
		rec = &next
	}
}

func TestNormalizeJournalType(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "", want: "step10"},
		{input: "  Gratitude ", want: "gratitude"},
		{input: "step-4_inventory", want: "step-4_inventory"},
		{input: "has space", wantErr: true},
		{input: "-leading", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeJournalType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeJournalType(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeJournalType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
