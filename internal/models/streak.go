package models

import (
	"fmt"
	"time"
)

// StreakHealth describes how the latest update treated the streak.
type StreakHealth string

// MilestoneType selects which counter a milestone ladder is keyed on.
type MilestoneType string

// RecoveryReason records why a history row was forgiven.
type RecoveryReason string

const (
	HealthStrong     StreakHealth = "strong"
	HealthRecovering StreakHealth = "recovering"
	HealthBroken     StreakHealth = "broken"

	MilestoneStreak  MilestoneType = "streak"
	MilestoneEntries MilestoneType = "entries"

	// RecoveryAutomaticFreeze is written by the engine when a freeze covers a missed day.
	RecoveryAutomaticFreeze RecoveryReason = "automatic_freeze"
	// RecoveryManual is the default reason for a user-invoked recovery.
	RecoveryManual RecoveryReason = "manual"
)

func (h StreakHealth) Valid() bool {
	switch h {
	case HealthStrong, HealthRecovering, HealthBroken:
		return true
	}
	return false
}

func ParseStreakHealth(s string) (StreakHealth, error) {
	h := StreakHealth(s)
	if !h.Valid() {
		return "", fmt.Errorf("invalid streak health: %q", s)
	}
	return h, nil
}

func (t MilestoneType) Valid() bool {
	return t == MilestoneStreak || t == MilestoneEntries
}

type RecoveryGrace struct {
	AvailableRecoveries int        `json:"available_recoveries" bson:"available_recoveries"`
	LastRecoveryUsed    *time.Time `json:"last_recovery_used,omitempty" bson:"last_recovery_used,omitempty"`
	NextRecoveryAt      *time.Time `json:"next_recovery_at,omitempty" bson:"next_recovery_at,omitempty"`
}

// VisualProgress is derived from CurrentStreak and cached on the record.
type VisualProgress struct {
	Stage            int      `json:"stage" bson:"stage"`
	PathPosition     int      `json:"path_position" bson:"path_position"`
	UnlockedElements []string `json:"unlocked_elements" bson:"unlocked_elements"`
}

type Milestone struct {
	Type        MilestoneType `json:"type" bson:"type"`
	Threshold   int           `json:"threshold" bson:"threshold"`
	AchievedAt  time.Time     `json:"achieved_at" bson:"achieved_at"`
	Title       string        `json:"title" bson:"title"`
	Description string        `json:"description" bson:"description"`
	Viewed      bool          `json:"viewed" bson:"viewed"`
}

// HistoryEntry is one calendar day of the streak history. Date is a civil date
// stored as midnight UTC.
type HistoryEntry struct {
	Date           time.Time      `json:"date" bson:"date"`
	Completed      bool           `json:"completed" bson:"completed"`
	EntryID        string         `json:"entry_id,omitempty" bson:"entry_id,omitempty"`
	RecoveryUsed   bool           `json:"recovery_used,omitempty" bson:"recovery_used,omitempty"`
	RecoveryReason RecoveryReason `json:"recovery_reason,omitempty" bson:"recovery_reason,omitempty"`
}

// StreakRecord is the per (user, journal type) streak document.
type StreakRecord struct {
	ID             string         `json:"id" bson:"_id"`
	UserID         string         `json:"user_id" bson:"user_id"`
	JournalType    string         `json:"journal_type" bson:"journal_type"`
	CurrentStreak  int            `json:"current_streak" bson:"current_streak"`
	LongestStreak  int            `json:"longest_streak" bson:"longest_streak"`
	TotalEntries   int            `json:"total_entries" bson:"total_entries"`
	LastEntryDate  *time.Time     `json:"last_entry_date,omitempty" bson:"last_entry_date,omitempty"`
	StreakHealth   StreakHealth   `json:"streak_health" bson:"streak_health"`
	StreakFreezes  int            `json:"streak_freezes" bson:"streak_freezes"`
	RecoveryGrace  RecoveryGrace  `json:"recovery_grace" bson:"recovery_grace"`
	VisualProgress VisualProgress `json:"visual_progress" bson:"visual_progress"`
	Milestones     []Milestone    `json:"milestones" bson:"milestones"`
	StreakHistory  []HistoryEntry `json:"streak_history" bson:"streak_history"`
	Timezone       string         `json:"timezone,omitempty" bson:"timezone,omitempty"`
	Version        int64          `json:"version" bson:"version"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at"`
}

// Key returns the identity key used by the file-backed store.
func (r StreakRecord) Key() string {
	return StreakKey(r.UserID, r.JournalType)
}

func StreakKey(userID, journalType string) string {
	return userID + "/" + journalType
}

// HasHistoryFor reports whether a history row exists for the given day.
func (r StreakRecord) HasHistoryFor(day time.Time) bool {
	for _, h := range r.StreakHistory {
		if h.Date.Equal(day) {
			return true
		}
	}
	return false
}

// HasMilestone reports whether the (type, threshold) pair has already fired.
func (r StreakRecord) HasMilestone(t MilestoneType, threshold int) bool {
	for _, m := range r.Milestones {
		if m.Type == t && m.Threshold == threshold {
			return true
		}
	}
	return false
}

// UnviewedMilestones returns milestones the user has not acknowledged yet.
func (r StreakRecord) UnviewedMilestones() []Milestone {
	var out []Milestone
	for _, m := range r.Milestones {
		if !m.Viewed {
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a deep copy so callers can mutate without aliasing slices.
func (r StreakRecord) Clone() StreakRecord {
	c := r
	if r.LastEntryDate != nil {
		t := *r.LastEntryDate
		c.LastEntryDate = &t
	}
	if r.RecoveryGrace.LastRecoveryUsed != nil {
		t := *r.RecoveryGrace.LastRecoveryUsed
		c.RecoveryGrace.LastRecoveryUsed = &t
	}
	if r.RecoveryGrace.NextRecoveryAt != nil {
		t := *r.RecoveryGrace.NextRecoveryAt
		c.RecoveryGrace.NextRecoveryAt = &t
	}
	c.VisualProgress.UnlockedElements = cloneSlice(r.VisualProgress.UnlockedElements)
	c.Milestones = cloneSlice(r.Milestones)
	c.StreakHistory = cloneSlice(r.StreakHistory)
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
