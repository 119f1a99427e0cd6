package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	errs "github.com/stepworks/streakd/internal/errors"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/streak"
	"github.com/stepworks/streakd/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.loaded {
		if m.err != nil {
			return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.viewStatus(), m.help.View(m.keys)))
		}
		return docStyle.Render("Loading streak...")
	}

	sections := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", m.userID, m.rec.JournalType)),
		"",
		m.viewCounters(),
		"",
		m.viewPath(),
		m.viewCalendar(),
	}
	if ms := m.viewMilestones(); ms != "" {
		sections = append(sections, "", ms)
	}
	sections = append(sections, "", m.viewStatus(), m.help.View(m.keys))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func (m Model) viewCounters() string {
	health := string(m.rec.StreakHealth)
	if style, ok := healthStyles[health]; ok {
		health = style.Render(health)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		row("Current", fmt.Sprintf("%d day(s)", m.rec.CurrentStreak)),
		row("Longest", fmt.Sprintf("%d day(s)", m.rec.LongestStreak)),
		row("Entries", fmt.Sprintf("%d", m.rec.TotalEntries)),
		row("Health", health),
		row("Freezes", fmt.Sprintf("%d", m.rec.StreakFreezes)),
		row("Recoveries", fmt.Sprintf("%d", m.rec.RecoveryGrace.AvailableRecoveries)),
	)
}

func (m Model) viewPath() string {
	vp := m.rec.VisualProgress
	bar := m.path.ViewAs(float64(vp.PathPosition) / 100)
	stage := row("Stage", fmt.Sprintf("%d of %d", vp.Stage, streak.StageCount()))
	if len(vp.UnlockedElements) > 0 {
		stage += "  " + strings.Join(vp.UnlockedElements, ", ")
	}
	return lipgloss.JoinVertical(lipgloss.Left, stage, row("Path", bar))
}

// viewCalendar renders the last historyDays days ending today: ● completed,
// ○ bridged by a freeze or recovery, · missed.
func (m Model) viewCalendar() string {
	byDay := make(map[string]models.HistoryEntry, len(m.rec.StreakHistory))
	for _, h := range m.rec.StreakHistory {
		byDay[utils.FormatDay(h.Date)] = h
	}

	today := m.svc.Today()
	var cells []string
	for i := historyDays - 1; i >= 0; i-- {
		h, ok := byDay[utils.FormatDay(today.AddDate(0, 0, -i))]
		switch {
		case ok && h.Completed:
			cells = append(cells, "●")
		case ok && h.RecoveryUsed:
			cells = append(cells, "○")
		default:
			cells = append(cells, "·")
		}
	}
	return row("Last 14 days", strings.Join(cells, " "))
}

func (m Model) viewMilestones() string {
	if len(m.rec.Milestones) == 0 {
		return ""
	}
	lines := []string{labelStyle.Render("Milestones")}
	for _, ms := range m.rec.Milestones {
		line := fmt.Sprintf("  %s (%s %d)", ms.Title, ms.Type, ms.Threshold)
		if !ms.Viewed {
			line = newMilestoneStyle.Render(line + " new!")
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewStatus() string {
	if m.err != nil {
		return errorStyle.Render(errs.Describe(m.err))
	}
	return statusStyle.Render(m.status)
}
