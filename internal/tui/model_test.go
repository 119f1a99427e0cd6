package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/streak"
	"github.com/stepworks/streakd/internal/tracker"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "streakd.json"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	svc := tracker.New(store, tracker.WithClock(func() time.Time {
		return time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	}))
	return NewModel(svc, "user-1", "")
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func press(m Model, keys string) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model), cmd
}

func TestModelLoadAndLog(t *testing.T) {
	m := newTestModel(t)
	if !strings.Contains(m.View(), "Loading") {
		t.Error("expected loading view before first record")
	}

	m = run(t, m, m.Init())
	if !m.loaded || m.rec.CurrentStreak != 0 {
		t.Fatalf("unexpected initial state: loaded=%v rec=%+v", m.loaded, m.rec)
	}

	m, cmd := press(m, "l")
	m = run(t, m, cmd)
	if m.rec.CurrentStreak != 1 || m.rec.TotalEntries != 1 {
		t.Errorf("expected one logged entry, got %+v", m.rec)
	}

	view := m.View()
	for _, want := range []string{"user-1", "step10", "Entry logged", "●"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelFreezeAndQuit(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, m.Init())

	m, cmd := press(m, "f")
	m = run(t, m, cmd)
	if m.rec.StreakFreezes != 2 {
		t.Errorf("expected 2 freezes, got %d", m.rec.StreakFreezes)
	}

	m, cmd = press(m, "q")
	if !m.quitting || cmd == nil {
		t.Error("expected quit")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}

func TestModelShowsErrors(t *testing.T) {
	m := NewModel(nil, "user-1", "Not Valid!")
	next, _ := m.Update(errMsg{err: streak.ErrInvalidJournalType})
	m = next.(Model)
	if !strings.Contains(m.View(), "Journal type") {
		t.Errorf("expected friendly error in view:\n%s", m.View())
	}
}
