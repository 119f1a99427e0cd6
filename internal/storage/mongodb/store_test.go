package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/storage/storagetest"
)

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{uri: "mongodb://localhost:27017", want: "streakd"},
		{uri: "mongodb://localhost:27017/", want: "streakd"},
		{uri: "mongodb://localhost:27017/recovery?replicaSet=rs0", want: "recovery"},
		{uri: "mongodb+srv://cluster.example.net/journal", want: "journal"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := databaseName(tt.uri); got != tt.want {
				t.Errorf("databaseName(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestIsConnString(t *testing.T) {
	if !IsConnString("mongodb://localhost") || !IsConnString("mongodb+srv://cluster") {
		t.Error("expected mongodb URIs to be recognized")
	}
	if IsConnString("postgres://localhost/db") {
		t.Error("postgres URI must not be recognized")
	}
}

func TestOperationsBeforeLoad(t *testing.T) {
	s := New("mongodb://localhost:27017")
	if _, err := s.GetStreak(context.Background(), "u1", "step10"); err != storage.ErrNotLoaded {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on unconnected store failed: %v", err)
	}
}

// Set MONGO_TEST_URL to run, for example MONGO_TEST_URL="mongodb://localhost:27017"
func TestStore_Integration(t *testing.T) {
	base := os.Getenv("MONGO_TEST_URL")
	if base == "" {
		t.Skip("MONGO_TEST_URL not set, skipping MongoDB integration test")
	}

	n := 0
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		n++
		s := New(base)
		s.dbName = fmt.Sprintf("streakd_test_%d_%d", time.Now().UnixNano(), n)
		if err := s.Init(); err != nil {
			t.Fatalf("Failed to initialize store: %v", err)
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = s.client.Database(s.dbName).Drop(ctx)
			s.Close()
		})
		return s
	})
}
