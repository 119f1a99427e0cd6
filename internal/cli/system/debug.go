package system

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/storage"
)

type DebugCmd struct {
	DBPath     DebugDBPathCmd     `cmd:"" name:"db-path" help:"Show database path."`
	DumpStreak DebugDumpStreakCmd `cmd:"" help:"Dump a stored streak record as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return dumpJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

// DebugDumpStreakCmd prints the record exactly as stored, without refreshing
// derived fields.
type DebugDumpStreakCmd struct {
	User    string `arg:"" help:"User ID."`
	Journal string `short:"j" default:"${journal}" help:"Journal type."`
}

func (cmd *DebugDumpStreakCmd) Run(ctx *cli.Context) error {
	journal := cmd.Journal
	if journal == "" {
		journal = constants.DefaultJournalType
	}
	rec, err := ctx.Store.GetStreak(context.Background(), cmd.User, journal)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no streak found for %s/%s", cmd.User, journal)
		}
		return fmt.Errorf("failed to get streak: %w", err)
	}
	return dumpJSON(ctx, rec)
}

func dumpJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}
