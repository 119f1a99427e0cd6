package system

import (
	"fmt"

	"github.com/stepworks/streakd/internal/cli"
)

// migrator is implemented by the SQL backends.
type migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaStatus() (current, latest int, err error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		ctx.Println("This storage backend has no schema migrations.")
		return nil
	}

	count, err := m.Migrate(func(msg string) {
		ctx.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
