package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/cli/backups"
	"github.com/stepworks/streakd/internal/cli/streaks"
	"github.com/stepworks/streakd/internal/cli/system"
	"github.com/stepworks/streakd/internal/constants"
	apperrors "github.com/stepworks/streakd/internal/errors"
	"github.com/stepworks/streakd/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Database path (.db for SQLite, .json for a flat file) or a PostgreSQL/MongoDB connection string. Credentials must not be embedded; use the OS keyring or STREAKD_DB_CONNECTION." env:"STREAKD_CONFIG" default:"${config}"`
	Timezone string `help:"IANA timezone that defines the user's calendar day." env:"STREAKD_TIMEZONE" default:"${timezone}"`
	AsOf     string `help:"Pretend today is this date (YYYY-MM-DD)." name:"as-of"`
	Debug    bool   `help:"Enable debug logging to stderr." env:"STREAKD_DEBUG"`

	WebhookURL    string `help:"Webhook that receives milestone, streak and reminder notifications." env:"STREAKD_WEBHOOK_URL" name:"webhook-url"`
	WebhookSecret string `help:"Shared secret for the webhook. Falls back to the OS keyring." env:"STREAKD_WEBHOOK_SECRET" name:"webhook-secret"`

	Log        streaks.LogCmd        `cmd:"" help:"Record a journal entry for today."`
	Show       streaks.ShowCmd       `cmd:"" help:"Show a user's streak."`
	List       streaks.ListCmd       `cmd:"" help:"List all streaks."`
	History    streaks.HistoryCmd    `cmd:"" help:"Show the streak calendar."`
	Recover    streaks.RecoverCmd    `cmd:"" help:"Use a recovery to repair a broken streak."`
	Freeze     streaks.FreezeCmd     `cmd:"" help:"Award a streak freeze."`
	Milestones streaks.MilestonesCmd `cmd:"" help:"List milestones and mark them viewed."`

	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive streak view."`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the streak HTTP API."`
	Remind  system.RemindCmd  `cmd:"" help:"Send reminders to users whose streak is at risk today."`
	Init    system.InitCmd    `cmd:"" help:"Initialize streakd storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Debugs  system.DebugCmd   `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage secrets in the OS keyring."`
	Backup  backups.BackupCmd `cmd:"" help:"Manage database backups."`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Journaling streak tracker with freezes, recoveries and milestones"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":            constants.Version,
			"config":             constants.DefaultConfigPath,
			"timezone":           constants.DefaultTimezone,
			"journal":            constants.DefaultJournalType,
			"addr":               constants.DefaultListenAddr,
			"origins":            constants.DefaultCORSOrigins,
			"quiet_start":        constants.DefaultQuietHoursStart,
			"quiet_end":          constants.DefaultQuietHoursEnd,
			"notify_concurrency": strconv.Itoa(constants.NotifyMaxConcurrency),
		},
	)

	command := ctx.Command()
	configDir := cli.DefaultConfigDir()
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Console:   strings.HasPrefix(command, "serve"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := cli.OpenStore(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}

	// init creates the database and keyring commands never touch it.
	if !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "keyring") {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:         store,
		ConfigDir:     configDir,
		Timezone:      CLI.Timezone,
		AsOf:          CLI.AsOf,
		WebhookURL:    CLI.WebhookURL,
		WebhookSecret: CLI.WebhookSecret,
		Debug:         CLI.Debug,
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}
