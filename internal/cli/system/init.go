package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing local database before initialization."`
	Source string `help:"Copy streaks from another database path or connection string."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized streakd storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying streaks from: %s\n", c.Source)
		n, err := c.copyFrom(ctx, c.Source)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Printf("Copied %d streak record(s).\n", n)
	}
	return nil
}

// reset removes a local database file. Remote backends are never dropped.
func (c *InitCmd) reset(ctx *cli.Context) error {
	path := ctx.Store.GetConfigPath()
	switch ctx.Store.(type) {
	case *sqlite.Store, *storage.JSONStore:
	default:
		return fmt.Errorf("--force is only supported for local databases")
	}

	if c.Source != "" {
		abs, err1 := filepath.Abs(path)
		src, err2 := filepath.Abs(c.Source)
		if err1 == nil && err2 == nil && abs == src {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func (c *InitCmd) copyFrom(ctx *cli.Context, source string) (int, error) {
	src, err := cli.OpenStore(source)
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	recs, err := src.ListStreaks(context.Background())
	if err != nil {
		return 0, fmt.Errorf("failed to list source streaks: %w", err)
	}
	for _, rec := range recs {
		rec.Version = 0
		if _, err := ctx.Store.SaveStreak(context.Background(), rec, 0); err != nil {
			return 0, fmt.Errorf("failed to copy streak %s: %w", rec.Key(), err)
		}
	}
	return len(recs), nil
}
