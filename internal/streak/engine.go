package streak

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/utils"
)

var journalTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// Entry identifies a journal entry being applied to a streak.
type Entry struct {
	UserID      string
	JournalType string
	EntryID     string
}

// NormalizeJournalType trims and lowercases a journal type, falling back to the
// default type when empty.
func NormalizeJournalType(journalType string) (string, error) {
	jt := strings.ToLower(strings.TrimSpace(journalType))
	if jt == "" {
		return constants.DefaultJournalType, nil
	}
	if !journalTypePattern.MatchString(jt) {
		return "", fmt.Errorf("%w: %q", ErrInvalidJournalType, journalType)
	}
	return jt, nil
}

// DefaultRecord is the unsaved record returned to readers before the first entry.
func DefaultRecord(userID, journalType string) models.StreakRecord {
	return models.StreakRecord{
		UserID:         userID,
		JournalType:    journalType,
		StreakHealth:   models.HealthStrong,
		StreakFreezes:  constants.DefaultStreakFreezes,
		RecoveryGrace:  models.RecoveryGrace{AvailableRecoveries: constants.DefaultAvailableRecoveries},
		VisualProgress: MapVisualProgress(0),
		Milestones:     []models.Milestone{},
		StreakHistory:  []models.HistoryEntry{},
	}
}

// NewRecord returns a DefaultRecord with identity and timestamps assigned.
func NewRecord(userID, journalType string, now time.Time) models.StreakRecord {
	rec := DefaultRecord(userID, journalType)
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec
}

// Update applies a journal entry to rec on the civil day of now in loc.
// A nil rec means this is the first entry for the pair. The input is never
// mutated; the returned record carries the new state.
func Update(rec *models.StreakRecord, e Entry, now time.Time, loc *time.Location) (models.StreakRecord, error) {
	if e.EntryID == "" {
		return models.StreakRecord{}, ErrEntryIDRequired
	}

	var out models.StreakRecord
	if rec == nil {
		if e.UserID == "" {
			return models.StreakRecord{}, ErrUserIDRequired
		}
		jt, err := NormalizeJournalType(e.JournalType)
		if err != nil {
			return models.StreakRecord{}, err
		}
		out = NewRecord(e.UserID, jt, now)
	} else {
		if rec.UserID == "" {
			return models.StreakRecord{}, ErrUserIDRequired
		}
		out = rec.Clone()
	}

	if loc == nil {
		loc = time.UTC
	}
	today := utils.DayOf(now, loc)
	out.Timezone = loc.String()
	out.UpdatedAt = now

	if out.LastEntryDate != nil {
		delta := utils.DaysBetween(*out.LastEntryDate, today)
		if delta <= 0 {
			// Same day, or a backdated entry which is counted but not reconciled.
			if delta == 0 {
				insertHistory(&out, models.HistoryEntry{Date: today, Completed: true, EntryID: e.EntryID})
			}
			out.TotalEntries++
			finish(&out, now)
			return out, nil
		}

		switch {
		case delta == 1:
			out.CurrentStreak++
			out.StreakHealth = models.HealthStrong
		case delta == 2 && out.StreakFreezes > 0:
			out.CurrentStreak++
			out.StreakFreezes--
			insertHistory(&out, models.HistoryEntry{
				Date:           today.AddDate(0, 0, -1),
				Completed:      false,
				RecoveryUsed:   true,
				RecoveryReason: models.RecoveryAutomaticFreeze,
			})
			out.StreakHealth = models.HealthRecovering
		default:
			out.CurrentStreak = 1
			out.StreakHealth = models.HealthBroken
		}
	} else {
		out.CurrentStreak = 1
		out.StreakHealth = models.HealthStrong
	}

	if out.CurrentStreak > out.LongestStreak {
		out.LongestStreak = out.CurrentStreak
	}
	out.TotalEntries++
	insertHistory(&out, models.HistoryEntry{Date: today, Completed: true, EntryID: e.EntryID})
	out.LastEntryDate = &today
	finish(&out, now)
	return out, nil
}

// finish recomputes the derived fields shared by every mutation path.
func finish(rec *models.StreakRecord, now time.Time) {
	rec.VisualProgress = MapVisualProgress(rec.CurrentStreak)
	rec.Milestones = append(rec.Milestones, EvaluateMilestones(*rec, rec.CurrentStreak, rec.TotalEntries, now)...)
	if rec.Milestones == nil {
		rec.Milestones = []models.Milestone{}
	}
}

// insertHistory adds h keeping history ordered by date. A row that already
// exists for the date is left untouched.
func insertHistory(rec *models.StreakRecord, h models.HistoryEntry) bool {
	if rec.HasHistoryFor(h.Date) {
		return false
	}
	i := sort.Search(len(rec.StreakHistory), func(i int) bool {
		return rec.StreakHistory[i].Date.After(h.Date)
	})
	rec.StreakHistory = append(rec.StreakHistory, models.HistoryEntry{})
	copy(rec.StreakHistory[i+1:], rec.StreakHistory[i:])
	rec.StreakHistory[i] = h
	return true
}
