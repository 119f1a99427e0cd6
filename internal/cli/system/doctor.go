package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stepworks/streakd/internal/backup"
	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/server"
	"github.com/stepworks/streakd/internal/storage/sqlite"
	"github.com/stepworks/streakd/internal/utils"
	"github.com/stepworks/streakd/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(ctx *cli.Context, recs []models.StreakRecord) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Record integrity", needsDB: true, run: checkRecords},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "API server", warnOnly: true, run: checkServer},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	recs, err := ctx.Store.ListStreaks(context.Background())
	dbReachable := err == nil
	if err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Printf("✓ Database reachable: OK (%d streak record(s))\n", len(recs))
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx, recs)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkSchemaVersion(ctx *cli.Context, _ []models.StreakRecord) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaStatus()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version %d is newer than supported version %d; upgrade streakd", current, latest)
	}
	if current < latest {
		return fmt.Errorf("database schema version %d is behind %d; run 'streakd migrate'", current, latest)
	}
	return nil
}

func checkRecords(_ *cli.Context, recs []models.StreakRecord) error {
	result := validation.New().ValidateRecords(recs)
	if result.HasIssues() {
		return errors.New(result.FormatReport())
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context, _ []models.StreakRecord) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s; run 'streakd backup'", mgr.BackupDir())
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("newest backup is %d day(s) old", int(age.Hours()/24))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context, _ []models.StreakRecord) error {
	now, err := utils.NowInTimezone(ctx.Timezone)
	if err != nil {
		return err
	}
	if !utils.ValidateTimezone("America/New_York") {
		return errors.New("timezone database unavailable")
	}
	if now.Year() < 2020 {
		return errors.New("system clock looks wrong")
	}
	return nil
}

func checkServer(ctx *cli.Context, _ []models.StreakRecord) error {
	lock, err := server.RunningServer(server.LockfilePath(ctx.ConfigDir))
	if errors.Is(err, server.ErrNotRunning) {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("server running on %s (pid %d); restores and --force init must wait until it stops", lock.Addr, lock.PID)
}
