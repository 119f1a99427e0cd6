package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/tracker"
)

func TestNewValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "example.com/hook", wantErr: true},
		{name: "ftp", url: "ftp://example.com/hook", wantErr: true},
		{name: "http", url: "http://127.0.0.1:9000/hook"},
		{name: "https", url: "https://hooks.example.com/streakd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.url, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestNotifySendsPayload(t *testing.T) {
	var got WebhookPayload
	var secret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		secret = r.Header.Get(constants.NotifySecretHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n, err := New(server.URL, "s3cret", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	err = n.Notify(context.Background(), WebhookPayload{Kind: KindReminder, UserID: "u1", Text: "Keep it going"})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if secret != "s3cret" {
		t.Errorf("expected secret header, got %q", secret)
	}
	if got.Kind != KindReminder || got.UserID != "u1" || got.Text != "Keep it going" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.SentAt.IsZero() {
		t.Error("expected SentAt to be filled in")
	}
}

func TestNotifyRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := New(server.URL, "", WithRetries(3, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(context.Background(), WebhookPayload{Kind: KindReminder}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestNotifyDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad secret", http.StatusUnauthorized)
	}))
	defer server.Close()

	n, err := New(server.URL, "wrong", WithRetries(3, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(context.Background(), WebhookPayload{Kind: KindReminder}); err == nil {
		t.Fatal("expected error for 401")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}

func TestPublishMilestone(t *testing.T) {
	var got WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	n, err := New(server.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	ev := tracker.Event{
		Kind:        tracker.EventMilestone,
		UserID:      "u1",
		JournalType: "step10",
		Streak:      models.StreakRecord{CurrentStreak: 7},
		Milestones: []models.Milestone{
			{Type: models.MilestoneStreak, Threshold: 7, Title: "One Week Strong"},
			{Type: models.MilestoneEntries, Threshold: 10, Title: "Ten Entries"},
		},
		OccurredAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := n.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if got.Kind != KindMilestone || got.CurrentStreak != 7 || len(got.Milestones) != 2 {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.Text != "One Week Strong (+1 more)" {
		t.Errorf("unexpected text %q", got.Text)
	}

	if err := n.Publish(context.Background(), tracker.Event{Kind: "weird"}); err == nil {
		t.Error("expected error for unknown event kind")
	}
}
