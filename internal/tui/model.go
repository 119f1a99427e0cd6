package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/tracker"
)

// historyDays is how many days the calendar strip shows.
const historyDays = 14

type recordMsg struct {
	rec    models.StreakRecord
	status string
}

type markedMsg struct {
	count int
}

type errMsg struct {
	err error
}

type Model struct {
	svc         *tracker.Service
	userID      string
	journalType string

	rec      models.StreakRecord
	loaded   bool
	status   string
	err      error
	keys     KeyMap
	help     help.Model
	path     progress.Model
	width    int
	quitting bool
}

func NewModel(svc *tracker.Service, userID, journalType string) Model {
	return Model{
		svc:         svc,
		userID:      userID,
		journalType: journalType,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		path:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m Model) Init() tea.Cmd {
	return m.load("")
}

func (m Model) load(status string) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.svc.GetUserStreak(context.Background(), m.userID, m.journalType)
		if err != nil {
			return errMsg{err}
		}
		return recordMsg{rec: rec, status: status}
	}
}

func (m Model) logEntry() tea.Cmd {
	return func() tea.Msg {
		rec, err := m.svc.UpdateUserStreak(context.Background(), m.userID, uuid.NewString(), m.journalType)
		if err != nil {
			return errMsg{err}
		}
		return recordMsg{rec: rec, status: "Entry logged"}
	}
}

func (m Model) awardFreeze() tea.Cmd {
	return func() tea.Msg {
		rec, err := m.svc.AwardStreakFreeze(context.Background(), m.userID, m.journalType)
		if err != nil {
			return errMsg{err}
		}
		return recordMsg{rec: rec, status: "Freeze awarded"}
	}
}

func (m Model) markViewed() tea.Cmd {
	return func() tea.Msg {
		n, err := m.svc.MarkMilestonesViewed(context.Background(), m.userID, m.journalType)
		if err != nil {
			return errMsg{err}
		}
		return markedMsg{count: n}
	}
}
