package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/tui"
)

type TuiCmd struct {
	User    string `arg:"" help:"User ID."`
	Journal string `short:"j" default:"${journal}" help:"Journal type."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	p := tea.NewProgram(tui.NewModel(svc, c.User, c.Journal), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
