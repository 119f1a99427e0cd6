package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/storage/storagetest"
)

func newJSONStore(t *testing.T) storage.Provider {
	t.Helper()
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "streakd.json"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s
}

func TestJSONStoreContract(t *testing.T) {
	storagetest.Run(t, newJSONStore)
}

func TestJSONStorePersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "streakd.json")
	ctx := context.Background()

	first := storage.NewJSONStore(path)
	if err := first.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	saved, err := first.SaveStreak(ctx, storagetest.Sample(t, "u1", "step10"), 0)
	if err != nil {
		t.Fatalf("SaveStreak failed: %v", err)
	}

	second := storage.NewJSONStore(path)
	if err := second.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := second.GetStreak(ctx, "u1", "step10")
	if err != nil {
		t.Fatalf("GetStreak failed: %v", err)
	}
	storagetest.AssertEqual(t, saved, got)

	// Init on an existing file keeps its contents.
	third := storage.NewJSONStore(path)
	if err := third.Init(); err != nil {
		t.Fatalf("re-Init failed: %v", err)
	}
	if _, err := third.GetStreak(ctx, "u1", "step10"); err != nil {
		t.Errorf("re-Init lost data: %v", err)
	}
}

func TestJSONStoreLoadErrors(t *testing.T) {
	dir := t.TempDir()

	missing := storage.NewJSONStore(filepath.Join(dir, "missing.json"))
	if err := missing.Load(); err == nil || !strings.Contains(err.Error(), "streakd init") {
		t.Errorf("expected not-initialized error, got %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := storage.NewJSONStore(corrupt).Load(); err == nil {
		t.Error("expected parse error for corrupt file")
	}

	future := filepath.Join(dir, "future.json")
	if err := os.WriteFile(future, []byte(`{"version": 99, "streaks": {}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := storage.NewJSONStore(future).Load(); err == nil {
		t.Error("expected version error for newer file")
	}
}

func TestJSONStoreNotLoaded(t *testing.T) {
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "streakd.json"))
	if _, err := s.ListStreaks(context.Background()); err != storage.ErrNotLoaded {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}
