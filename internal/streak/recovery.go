package streak

import (
	"sort"
	"time"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/utils"
)

// Replenish restores a recovery once the cooldown has elapsed. It reports
// whether rec changed.
func Replenish(rec *models.StreakRecord, now time.Time) bool {
	if rec == nil || rec.RecoveryGrace.NextRecoveryAt == nil {
		return false
	}
	if now.Before(*rec.RecoveryGrace.NextRecoveryAt) {
		return false
	}
	if rec.RecoveryGrace.AvailableRecoveries < constants.MaxAvailableRecoveries {
		rec.RecoveryGrace.AvailableRecoveries++
	}
	rec.RecoveryGrace.NextRecoveryAt = nil
	return true
}

// Refresh applies the read-side derivations: replenishment and visual progress.
func Refresh(rec *models.StreakRecord, now time.Time) {
	Replenish(rec, now)
	rec.VisualProgress = MapVisualProgress(rec.CurrentStreak)
}

// Recover restores a broken streak to the run that ended at the most recent
// entry, forgiving the gap that broke it.
func Recover(rec *models.StreakRecord, reason models.RecoveryReason, now time.Time, loc *time.Location) (models.StreakRecord, error) {
	if rec == nil {
		return models.StreakRecord{}, ErrNoStreakToRecover
	}
	if rec.StreakHealth != models.HealthBroken {
		return models.StreakRecord{}, ErrStreakNotBroken
	}
	switch reason {
	case "":
		reason = models.RecoveryManual
	case models.RecoveryAutomaticFreeze:
		return models.StreakRecord{}, ErrReservedRecoveryReason
	}

	out := rec.Clone()
	Replenish(&out, now)
	if out.RecoveryGrace.AvailableRecoveries <= 0 {
		return models.StreakRecord{}, ErrNoRecoveryAvailable
	}
	if loc == nil {
		loc = time.UTC
	}

	out.CurrentStreak = recoverableRun(out.StreakHistory)
	if out.CurrentStreak > out.LongestStreak {
		out.LongestStreak = out.CurrentStreak
	}
	out.StreakHealth = models.HealthRecovering

	out.RecoveryGrace.AvailableRecoveries--
	used := now
	next := now.AddDate(0, 0, constants.RecoveryCooldownDays)
	out.RecoveryGrace.LastRecoveryUsed = &used
	out.RecoveryGrace.NextRecoveryAt = &next

	yesterday := utils.DayOf(now, loc).AddDate(0, 0, -1)
	insertHistory(&out, models.HistoryEntry{
		Date:           yesterday,
		Completed:      false,
		RecoveryUsed:   true,
		RecoveryReason: reason,
	})

	out.UpdatedAt = now
	finish(&out, now)
	return out, nil
}

// recoverableRun counts completed days walking back from the newest completed
// row. Recovery rows bridge a day without counting and a single larger gap is
// forgiven. The result is at least 1.
func recoverableRun(history []models.HistoryEntry) int {
	rows := make([]models.HistoryEntry, len(history))
	copy(rows, history)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.After(rows[j].Date)
	})

	start := -1
	for i, h := range rows {
		if h.Completed {
			start = i
			break
		}
	}
	if start < 0 {
		return 1
	}

	count := 1
	cursor := rows[start].Date
	forgiven := false
	for _, h := range rows[start+1:] {
		gap := utils.DaysBetween(h.Date, cursor)
		switch {
		case gap <= 0:
			continue
		case gap == 1 && h.Completed:
			count++
		case gap == 1 && h.RecoveryUsed:
		case !forgiven && h.Completed:
			forgiven = true
			count++
		default:
			return count
		}
		cursor = h.Date
	}
	return count
}

// AwardFreeze grants one freeze, creating the record when absent.
func AwardFreeze(rec *models.StreakRecord, userID, journalType string, now time.Time) (models.StreakRecord, error) {
	var out models.StreakRecord
	if rec == nil {
		if userID == "" {
			return models.StreakRecord{}, ErrUserIDRequired
		}
		jt, err := NormalizeJournalType(journalType)
		if err != nil {
			return models.StreakRecord{}, err
		}
		out = NewRecord(userID, jt, now)
	} else {
		out = rec.Clone()
	}
	out.StreakFreezes++
	out.UpdatedAt = now
	return out, nil
}
