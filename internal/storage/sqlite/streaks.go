package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/storage"
)

const streakColumns = `id, user_id, journal_type, current_streak, longest_streak, total_entries,
	last_entry_date, streak_health, streak_freezes, available_recoveries, last_recovery_used,
	next_recovery_at, visual_progress, milestones, streak_history, timezone, version,
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) GetStreak(ctx context.Context, userID, journalType string) (models.StreakRecord, error) {
	if s.db == nil {
		return models.StreakRecord{}, storage.ErrNotLoaded
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+streakColumns+` FROM streaks WHERE user_id = ? AND journal_type = ?`,
		userID, journalType)

	rec, err := scanStreak(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StreakRecord{}, storage.ErrNotFound
	}
	return rec, err
}

func (s *Store) ListStreaks(ctx context.Context) ([]models.StreakRecord, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+streakColumns+` FROM streaks ORDER BY user_id, journal_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []models.StreakRecord{}
	for rows.Next() {
		rec, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) SaveStreak(ctx context.Context, rec models.StreakRecord, expectedVersion int64) (models.StreakRecord, error) {
	if s.db == nil {
		return models.StreakRecord{}, storage.ErrNotLoaded
	}
	vals, err := encodeStreak(rec)
	if err != nil {
		return models.StreakRecord{}, err
	}
	next := expectedVersion + 1

	var res sql.Result
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO streaks (`+streakColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`,
			rec.ID, rec.UserID, rec.JournalType, rec.CurrentStreak, rec.LongestStreak, rec.TotalEntries,
			vals.lastEntry, string(rec.StreakHealth), rec.StreakFreezes, rec.RecoveryGrace.AvailableRecoveries,
			vals.lastRecovery, vals.nextRecovery, vals.visual, vals.milestones, vals.history, rec.Timezone,
			next, vals.createdAt, vals.updatedAt)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE streaks SET
				current_streak = ?, longest_streak = ?, total_entries = ?, last_entry_date = ?,
				streak_health = ?, streak_freezes = ?, available_recoveries = ?, last_recovery_used = ?,
				next_recovery_at = ?, visual_progress = ?, milestones = ?, streak_history = ?,
				timezone = ?, version = ?, updated_at = ?
			WHERE user_id = ? AND journal_type = ? AND version = ?`,
			rec.CurrentStreak, rec.LongestStreak, rec.TotalEntries, vals.lastEntry,
			string(rec.StreakHealth), rec.StreakFreezes, rec.RecoveryGrace.AvailableRecoveries, vals.lastRecovery,
			vals.nextRecovery, vals.visual, vals.milestones, vals.history,
			rec.Timezone, next, vals.updatedAt,
			rec.UserID, rec.JournalType, expectedVersion)
	}
	if err != nil {
		return models.StreakRecord{}, fmt.Errorf("failed to save streak: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.StreakRecord{}, err
	}
	if n == 0 {
		return models.StreakRecord{}, storage.ErrVersionConflict
	}

	saved := rec.Clone()
	saved.Version = next
	return saved, nil
}

type encoded struct {
	lastEntry, lastRecovery, nextRecovery sql.NullString
	visual, milestones, history           string
	createdAt, updatedAt                  string
}

func encodeStreak(rec models.StreakRecord) (encoded, error) {
	var e encoded
	if rec.LastEntryDate != nil {
		e.lastEntry = sql.NullString{String: rec.LastEntryDate.Format(constants.DateFormat), Valid: true}
	}
	e.lastRecovery = nullTime(rec.RecoveryGrace.LastRecoveryUsed)
	e.nextRecovery = nullTime(rec.RecoveryGrace.NextRecoveryAt)

	visual, err := json.Marshal(rec.VisualProgress)
	if err != nil {
		return e, fmt.Errorf("encoding visual progress: %w", err)
	}
	milestones := rec.Milestones
	if milestones == nil {
		milestones = []models.Milestone{}
	}
	ms, err := json.Marshal(milestones)
	if err != nil {
		return e, fmt.Errorf("encoding milestones: %w", err)
	}
	history := rec.StreakHistory
	if history == nil {
		history = []models.HistoryEntry{}
	}
	hist, err := json.Marshal(history)
	if err != nil {
		return e, fmt.Errorf("encoding history: %w", err)
	}

	e.visual, e.milestones, e.history = string(visual), string(ms), string(hist)
	e.createdAt = rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	e.updatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return e, nil
}

func scanStreak(row scanner) (models.StreakRecord, error) {
	var rec models.StreakRecord
	var health, visual, milestones, history, createdAt, updatedAt string
	var lastEntry, lastRecovery, nextRecovery sql.NullString

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.JournalType, &rec.CurrentStreak, &rec.LongestStreak, &rec.TotalEntries,
		&lastEntry, &health, &rec.StreakFreezes, &rec.RecoveryGrace.AvailableRecoveries, &lastRecovery,
		&nextRecovery, &visual, &milestones, &history, &rec.Timezone, &rec.Version,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return models.StreakRecord{}, err
	}

	rec.StreakHealth = models.StreakHealth(health)
	if lastEntry.Valid {
		d, err := time.Parse(constants.DateFormat, lastEntry.String)
		if err != nil {
			return models.StreakRecord{}, fmt.Errorf("parsing last_entry_date: %w", err)
		}
		rec.LastEntryDate = &d
	}
	if rec.RecoveryGrace.LastRecoveryUsed, err = parseNullTime(lastRecovery); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing last_recovery_used: %w", err)
	}
	if rec.RecoveryGrace.NextRecoveryAt, err = parseNullTime(nextRecovery); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing next_recovery_at: %w", err)
	}
	if err := json.Unmarshal([]byte(visual), &rec.VisualProgress); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing visual_progress: %w", err)
	}
	if rec.VisualProgress.UnlockedElements == nil {
		rec.VisualProgress.UnlockedElements = []string{}
	}
	if err := json.Unmarshal([]byte(milestones), &rec.Milestones); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing milestones: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &rec.StreakHistory); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing streak_history: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return rec, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
