package validation

import (
	"fmt"
	"strings"

	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/streak"
	"github.com/stepworks/streakd/internal/utils"
)

// IssueType represents the type of integrity problem found on a record
type IssueType string

const (
	IssueLongestBelowCurrent IssueType = "longest_below_current"
	IssueNegativeCounter     IssueType = "negative_counter"
	IssueDuplicateHistory    IssueType = "duplicate_history_date"
	IssueUnsortedHistory     IssueType = "unsorted_history"
	IssueDuplicateMilestone  IssueType = "duplicate_milestone"
	IssueInvalidMilestone    IssueType = "invalid_milestone"
	IssueVisualOutOfRange    IssueType = "visual_out_of_range"
	IssueVisualStale         IssueType = "visual_stale"
	IssueInvalidHealth       IssueType = "invalid_health"
	IssueLastEntryMismatch   IssueType = "last_entry_mismatch"
	IssueInvalidTimezone     IssueType = "invalid_timezone"
	IssueDuplicateRecord     IssueType = "duplicate_record"
)

// Issue represents one integrity problem
type Issue struct {
	Type        IssueType
	Key         string // user/journal type of the offending record
	Description string
}

// ValidationResult contains all detected issues
type ValidationResult struct {
	Checked int
	Issues  []Issue
}

// HasIssues returns true if there are any issues
func (vr *ValidationResult) HasIssues() bool {
	return len(vr.Issues) > 0
}

// FormatReport returns a human-readable report of all issues
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasIssues() {
		return fmt.Sprintf("No issues detected in %d streak record(s).", vr.Checked)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d issue(s) detected in %d streak record(s):\n", len(vr.Issues), vr.Checked)
	for _, issue := range vr.Issues {
		fmt.Fprintf(&b, "- [%s] %s\n", issue.Key, issue.Description)
	}
	return b.String()
}

// Validator checks streak records for integrity problems
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateRecords checks every record and the uniqueness of (user, journal type).
func (v *Validator) ValidateRecords(recs []models.StreakRecord) ValidationResult {
	result := ValidationResult{Issues: []Issue{}}
	seen := make(map[string]bool)
	for _, rec := range recs {
		key := rec.Key()
		if seen[key] {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueDuplicateRecord,
				Key:         key,
				Description: "more than one record for this user and journal type",
			})
		}
		seen[key] = true
		result.Issues = append(result.Issues, v.ValidateRecord(rec)...)
		result.Checked++
	}
	return result
}

// ValidateRecord returns the integrity issues of a single record.
func (v *Validator) ValidateRecord(rec models.StreakRecord) []Issue {
	key := rec.Key()
	var issues []Issue
	add := func(t IssueType, format string, args ...any) {
		issues = append(issues, Issue{Type: t, Key: key, Description: fmt.Sprintf(format, args...)})
	}

	if rec.LongestStreak < rec.CurrentStreak {
		add(IssueLongestBelowCurrent, "longest streak %d is below current streak %d", rec.LongestStreak, rec.CurrentStreak)
	}

	counters := []struct {
		name  string
		value int
	}{
		{"current_streak", rec.CurrentStreak},
		{"longest_streak", rec.LongestStreak},
		{"total_entries", rec.TotalEntries},
		{"streak_freezes", rec.StreakFreezes},
		{"available_recoveries", rec.RecoveryGrace.AvailableRecoveries},
	}
	for _, c := range counters {
		if c.value < 0 {
			add(IssueNegativeCounter, "%s is negative (%d)", c.name, c.value)
		}
	}

	if !rec.StreakHealth.Valid() {
		add(IssueInvalidHealth, "unknown streak health %q", rec.StreakHealth)
	}

	dates := make(map[string]bool)
	for i, h := range rec.StreakHistory {
		day := utils.FormatDay(h.Date)
		if dates[day] {
			add(IssueDuplicateHistory, "history has more than one row for %s", day)
		}
		dates[day] = true
		if i > 0 && h.Date.Before(rec.StreakHistory[i-1].Date) {
			add(IssueUnsortedHistory, "history row %s is out of order", day)
		}
	}

	if rec.LastEntryDate != nil {
		day := utils.FormatDay(*rec.LastEntryDate)
		if !hasCompletedRow(rec, day) {
			add(IssueLastEntryMismatch, "last entry date %s has no completed history row", day)
		}
	} else if rec.TotalEntries > 0 {
		add(IssueLastEntryMismatch, "record has %d entries but no last entry date", rec.TotalEntries)
	}

	milestones := make(map[string]bool)
	for _, m := range rec.Milestones {
		if !m.Type.Valid() || m.Threshold <= 0 {
			add(IssueInvalidMilestone, "milestone %s/%d is not valid", m.Type, m.Threshold)
			continue
		}
		id := fmt.Sprintf("%s/%d", m.Type, m.Threshold)
		if milestones[id] {
			add(IssueDuplicateMilestone, "milestone %s fired more than once", id)
		}
		milestones[id] = true
	}

	vp := rec.VisualProgress
	if vp.Stage < 1 || vp.Stage > streak.StageCount() {
		add(IssueVisualOutOfRange, "visual stage %d outside 1..%d", vp.Stage, streak.StageCount())
	}
	if vp.PathPosition < 0 || vp.PathPosition > 100 {
		add(IssueVisualOutOfRange, "path position %d outside 0..100", vp.PathPosition)
	}
	if want := streak.MapVisualProgress(rec.CurrentStreak); want.Stage != vp.Stage || want.PathPosition != vp.PathPosition {
		add(IssueVisualStale, "visual progress %d/%d does not match streak %d (want %d/%d)",
			vp.Stage, vp.PathPosition, rec.CurrentStreak, want.Stage, want.PathPosition)
	}

	if rec.Timezone != "" {
		if _, err := utils.LoadLocation(rec.Timezone); err != nil {
			add(IssueInvalidTimezone, "timezone %q cannot be loaded", rec.Timezone)
		}
	}

	return issues
}

func hasCompletedRow(rec models.StreakRecord, day string) bool {
	for _, h := range rec.StreakHistory {
		if h.Completed && utils.FormatDay(h.Date) == day {
			return true
		}
	}
	return false
}
