package tui

import "github.com/charmbracelet/lipgloss"

var (
	docStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	newMilestoneStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")).
				Bold(true)

	healthStyles = map[string]lipgloss.Style{
		"strong":     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"recovering": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"broken":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)
