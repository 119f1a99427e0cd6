package storage

import (
	"context"

	"github.com/stepworks/streakd/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Streaks
	GetStreak(ctx context.Context, userID, journalType string) (models.StreakRecord, error)
	// SaveStreak writes rec only if the stored version still equals
	// expectedVersion; 0 means the record must not exist yet. On success the
	// stored version is expectedVersion+1 and is returned.
	SaveStreak(ctx context.Context, rec models.StreakRecord, expectedVersion int64) (models.StreakRecord, error)
	ListStreaks(ctx context.Context) ([]models.StreakRecord, error)

	// Utils
	GetConfigPath() string
}
