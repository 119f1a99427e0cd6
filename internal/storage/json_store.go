package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/stepworks/streakd/internal/models"
)

const jsonStoreVersion = 1

type document struct {
	Version int                            `json:"version"`
	Streaks map[string]models.StreakRecord `json:"streaks"`
}

// JSONStore keeps every record in a single JSON document on disk. It is safe
// for concurrent use within one process only.
type JSONStore struct {
	path string

	mu  sync.Mutex
	doc *document
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.loadLocked()
	}

	s.doc = &document{
		Version: jsonStoreVersion,
		Streaks: make(map[string]models.StreakRecord),
	}
	return s.saveLocked()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *JSONStore) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'streakd init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > jsonStoreVersion {
		return fmt.Errorf("storage file version %d is newer than supported version %d", doc.Version, jsonStoreVersion)
	}
	if doc.Streaks == nil {
		doc.Streaks = make(map[string]models.StreakRecord)
	}
	s.doc = doc
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// saveLocked writes through a temp file so a crash never leaves a torn document.
func (s *JSONStore) saveLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *JSONStore) GetStreak(ctx context.Context, userID, journalType string) (models.StreakRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.StreakRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return models.StreakRecord{}, ErrNotLoaded
	}
	rec, ok := s.doc.Streaks[models.StreakKey(userID, journalType)]
	if !ok {
		return models.StreakRecord{}, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *JSONStore) SaveStreak(ctx context.Context, rec models.StreakRecord, expectedVersion int64) (models.StreakRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.StreakRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return models.StreakRecord{}, ErrNotLoaded
	}

	key := rec.Key()
	current, exists := s.doc.Streaks[key]
	switch {
	case expectedVersion == 0 && exists:
		return models.StreakRecord{}, ErrVersionConflict
	case expectedVersion != 0 && (!exists || current.Version != expectedVersion):
		return models.StreakRecord{}, ErrVersionConflict
	}

	saved := rec.Clone()
	saved.Version = expectedVersion + 1
	s.doc.Streaks[key] = saved
	if err := s.saveLocked(); err != nil {
		if exists {
			s.doc.Streaks[key] = current
		} else {
			delete(s.doc.Streaks, key)
		}
		return models.StreakRecord{}, err
	}
	return saved.Clone(), nil
}

func (s *JSONStore) ListStreaks(ctx context.Context) ([]models.StreakRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return nil, ErrNotLoaded
	}

	out := make([]models.StreakRecord, 0, len(s.doc.Streaks))
	for _, rec := range s.doc.Streaks {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key() < out[j].Key()
	})
	return out, nil
}

// GetConfigPath returns the path to the underlying storage file.
//
// Running multiple streakd processes against the same file at the same time
// is not supported.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}
