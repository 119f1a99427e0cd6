package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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
		`SELECT `+streakColumns+` FROM streaks WHERE user_id = $1 AND journal_type = $2`,
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

	visual, milestones, history, err := encodeDocuments(rec)
	if err != nil {
		return models.StreakRecord{}, err
	}
	var lastEntry sql.NullString
	if rec.LastEntryDate != nil {
		lastEntry = sql.NullString{String: rec.LastEntryDate.Format(constants.DateFormat), Valid: true}
	}
	next := expectedVersion + 1

	var res sql.Result
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO streaks (`+streakColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT DO NOTHING`,
			rec.ID, rec.UserID, rec.JournalType, rec.CurrentStreak, rec.LongestStreak, rec.TotalEntries,
			lastEntry, string(rec.StreakHealth), rec.StreakFreezes, rec.RecoveryGrace.AvailableRecoveries,
			rec.RecoveryGrace.LastRecoveryUsed, rec.RecoveryGrace.NextRecoveryAt, string(visual), string(milestones), string(history),
			rec.Timezone, next, rec.CreatedAt, rec.UpdatedAt)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE streaks SET
				current_streak = $1, longest_streak = $2, total_entries = $3, last_entry_date = $4,
				streak_health = $5, streak_freezes = $6, available_recoveries = $7, last_recovery_used = $8,
				next_recovery_at = $9, visual_progress = $10, milestones = $11, streak_history = $12,
				timezone = $13, version = $14, updated_at = $15
			WHERE user_id = $16 AND journal_type = $17 AND version = $18`,
			rec.CurrentStreak, rec.LongestStreak, rec.TotalEntries, lastEntry,
			string(rec.StreakHealth), rec.StreakFreezes, rec.RecoveryGrace.AvailableRecoveries, rec.RecoveryGrace.LastRecoveryUsed,
			rec.RecoveryGrace.NextRecoveryAt, string(visual), string(milestones), string(history),
			rec.Timezone, next, rec.UpdatedAt,
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

func encodeDocuments(rec models.StreakRecord) (visual, milestones, history []byte, err error) {
	if visual, err = json.Marshal(rec.VisualProgress); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding visual progress: %w", err)
	}
	ms := rec.Milestones
	if ms == nil {
		ms = []models.Milestone{}
	}
	if milestones, err = json.Marshal(ms); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding milestones: %w", err)
	}
	hist := rec.StreakHistory
	if hist == nil {
		hist = []models.HistoryEntry{}
	}
	if history, err = json.Marshal(hist); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding history: %w", err)
	}
	return visual, milestones, history, nil
}

func scanStreak(row scanner) (models.StreakRecord, error) {
	var rec models.StreakRecord
	var health string
	var visual, milestones, history []byte
	var lastEntry, lastRecovery, nextRecovery sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.JournalType, &rec.CurrentStreak, &rec.LongestStreak, &rec.TotalEntries,
		&lastEntry, &health, &rec.StreakFreezes, &rec.RecoveryGrace.AvailableRecoveries, &lastRecovery,
		&nextRecovery, &visual, &milestones, &history, &rec.Timezone, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return models.StreakRecord{}, err
	}

	rec.StreakHealth = models.StreakHealth(health)
	if lastEntry.Valid {
		d := lastEntry.Time.UTC()
		rec.LastEntryDate = &d
	}
	if lastRecovery.Valid {
		t := lastRecovery.Time
		rec.RecoveryGrace.LastRecoveryUsed = &t
	}
	if nextRecovery.Valid {
		t := nextRecovery.Time
		rec.RecoveryGrace.NextRecoveryAt = &t
	}
	if err := json.Unmarshal(visual, &rec.VisualProgress); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing visual_progress: %w", err)
	}
	if rec.VisualProgress.UnlockedElements == nil {
		rec.VisualProgress.UnlockedElements = []string{}
	}
	if err := json.Unmarshal(milestones, &rec.Milestones); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing milestones: %w", err)
	}
	if err := json.Unmarshal(history, &rec.StreakHistory); err != nil {
		return models.StreakRecord{}, fmt.Errorf("parsing streak_history: %w", err)
	}
	return rec, nil
}
