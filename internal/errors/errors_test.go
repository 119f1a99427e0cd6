package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/streak"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "simple error", err: errors.New("something went wrong"), expected: "Error: something went wrong"},
		{
			name:     "wrapped error",
			err:      fmt.Errorf("failed to save streak: %w", storage.ErrVersionConflict),
			expected: "Error: failed to save streak: " + storage.ErrVersionConflict.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("streak %s not found for %s", "step10", "u1")
	if got != "Error: streak step10 not found for u1" {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "nil", err: nil, contains: ""},
		{name: "not broken", err: streak.ErrStreakNotBroken, contains: "not broken"},
		{name: "wrapped no recovery", err: fmt.Errorf("recover: %w", streak.ErrNoRecoveryAvailable), contains: "week"},
		{name: "no streak", err: streak.ErrNoStreakToRecover, contains: "first entry"},
		{name: "conflict", err: storage.ErrVersionConflict, contains: "try again"},
		{name: "unknown", err: errors.New("disk full"), contains: "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Describe(%v) = %q, want it to contain %q", tt.err, got, tt.contains)
			}
		})
	}
}
