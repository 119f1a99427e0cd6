package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.path.Width = max(10, min(msg.Width-24, 60))

	case recordMsg:
		m.rec = msg.rec
		m.loaded = true
		m.err = nil
		m.status = msg.status

	case markedMsg:
		m.err = nil
		m.status = fmt.Sprintf("%d milestone(s) marked as seen", msg.count)
		return m, m.load(m.status)

	case errMsg:
		m.err = msg.err
		m.status = ""

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Log):
			return m, m.logEntry()
		case key.Matches(msg, m.keys.Freeze):
			return m, m.awardFreeze()
		case key.Matches(msg, m.keys.Viewed):
			return m, m.markViewed()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load("Refreshed")
		}
	}

	return m, nil
}
