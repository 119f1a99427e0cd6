package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/streak"
)

func validRecord(t *testing.T) models.StreakRecord {
	t.Helper()
	var rec *models.StreakRecord
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		next, err := streak.Update(rec, streak.Entry{UserID: "u1", EntryID: "e"}, now.AddDate(0, 0, i), time.UTC)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		rec = &next
	}
	return *rec
}

func hasIssue(issues []Issue, want IssueType) bool {
	for _, i := range issues {
		if i.Type == want {
			return true
		}
	}
	return false
}

func TestValidateRecord_Clean(t *testing.T) {
	rec := validRecord(t)
	if issues := New().ValidateRecord(rec); len(issues) != 0 {
		t.Errorf("expected no issues, got %+v", issues)
	}
}

func TestValidateRecord_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.StreakRecord)
		want   IssueType
	}{
		{
			name:   "longest below current",
			mutate: func(r *models.StreakRecord) { r.LongestStreak = 1 },
			want:   IssueLongestBelowCurrent,
		},
		{
			name:   "negative freezes",
			mutate: func(r *models.StreakRecord) { r.StreakFreezes = -1 },
			want:   IssueNegativeCounter,
		},
		{
			name:   "unknown health",
			mutate: func(r *models.StreakRecord) { r.StreakHealth = "shaky" },
			want:   IssueInvalidHealth,
		},
		{
			name: "duplicate history date",
			mutate: func(r *models.StreakRecord) {
				r.StreakHistory = append(r.StreakHistory, r.StreakHistory[len(r.StreakHistory)-1])
			},
			want: IssueDuplicateHistory,
		},
		{
			name: "unsorted history",
			mutate: func(r *models.StreakRecord) {
				r.StreakHistory[0], r.StreakHistory[1] = r.StreakHistory[1], r.StreakHistory[0]
			},
			want: IssueUnsortedHistory,
		},
		{
			name: "duplicate milestone",
			mutate: func(r *models.StreakRecord) {
				r.Milestones = append(r.Milestones, r.Milestones[0])
			},
			want: IssueDuplicateMilestone,
		},
		{
			name: "invalid milestone",
			mutate: func(r *models.StreakRecord) {
				r.Milestones = append(r.Milestones, models.Milestone{Type: "mood", Threshold: 5})
			},
			want: IssueInvalidMilestone,
		},
		{
			name:   "stage out of range",
			mutate: func(r *models.StreakRecord) { r.VisualProgress.Stage = 9 },
			want:   IssueVisualOutOfRange,
		},
		{
			name:   "stale visual progress",
			mutate: func(r *models.StreakRecord) { r.VisualProgress.PathPosition = 0 },
			want:   IssueVisualStale,
		},
		{
			name: "last entry without row",
			mutate: func(r *models.StreakRecord) {
				d := r.LastEntryDate.AddDate(0, 0, 5)
				r.LastEntryDate = &d
			},
			want: IssueLastEntryMismatch,
		},
		{
			name:   "bad timezone",
			mutate: func(r *models.StreakRecord) { r.Timezone = "Nowhere/Special" },
			want:   IssueInvalidTimezone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord(t)
			tt.mutate(&rec)
			issues := New().ValidateRecord(rec)
			if !hasIssue(issues, tt.want) {
				t.Errorf("expected %s, got %+v", tt.want, issues)
			}
		})
	}
}

func TestValidateRecords_DuplicateKeyAndReport(t *testing.T) {
	rec := validRecord(t)
	result := New().ValidateRecords([]models.StreakRecord{rec, rec})

	if result.Checked != 2 {
		t.Errorf("expected 2 checked, got %d", result.Checked)
	}
	if !hasIssue(result.Issues, IssueDuplicateRecord) {
		t.Errorf("expected duplicate record issue, got %+v", result.Issues)
	}
	if !strings.Contains(result.FormatReport(), "u1/step10") {
		t.Errorf("report should name the record key:\n%s", result.FormatReport())
	}

	clean := New().ValidateRecords([]models.StreakRecord{rec})
	if clean.HasIssues() {
		t.Errorf("unexpected issues: %+v", clean.Issues)
	}
	if !strings.HasPrefix(clean.FormatReport(), "No issues") {
		t.Errorf("unexpected clean report: %s", clean.FormatReport())
	}
}
