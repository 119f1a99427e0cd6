package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stepworks/streakd/internal/backup"
	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/keyring"
	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/notifier"
	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/storage/mongodb"
	"github.com/stepworks/streakd/internal/storage/postgres"
	"github.com/stepworks/streakd/internal/storage/sqlite"
	"github.com/stepworks/streakd/internal/tracker"
	"github.com/stepworks/streakd/internal/utils"
)

var ErrEmbeddedCredentials = errors.New("connection strings with embedded credentials are not allowed")

// Context is handed to every command's Run method.
type Context struct {
	Store         storage.Provider
	ConfigDir     string
	Timezone      string
	AsOf          string
	WebhookURL    string
	WebhookSecret string
	Debug         bool
	Out           io.Writer
}

// Stdout returns the writer commands print to.
func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Print(args ...any) {
	fmt.Fprint(c.Stdout(), args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

// Location resolves --timezone, defaulting to UTC.
func (c *Context) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// Clock returns the command's notion of "now". With --as-of the clock is
// pinned to noon of that day in the selected timezone.
func (c *Context) Clock() (func() time.Time, error) {
	if c.AsOf == "" {
		return time.Now, nil
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	day, err := utils.ParseDay(c.AsOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of date %q (expected YYYY-MM-DD): %w", c.AsOf, err)
	}
	pinned := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
	return func() time.Time { return pinned }, nil
}

// Notifier builds the webhook notifier, or returns nil when no webhook is set.
func (c *Context) Notifier() (*notifier.Notifier, error) {
	if c.WebhookURL == "" {
		return nil, nil
	}
	secret := c.WebhookSecret
	if secret == "" {
		if v, err := keyring.Get(keyring.SecretWebhookSecret); err == nil {
			secret = v
		}
	}
	return notifier.New(c.WebhookURL, secret)
}

// Tracker builds the streak service for this invocation.
func (c *Context) Tracker() (*tracker.Service, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	clock, err := c.Clock()
	if err != nil {
		return nil, err
	}
	opts := []tracker.Option{
		tracker.WithLocation(loc),
		tracker.WithClock(clock),
		tracker.WithLogger(logger.With("component", "tracker")),
	}

	n, err := c.Notifier()
	if err != nil {
		return nil, err
	}
	if n != nil {
		opts = append(opts, tracker.WithPublisher(n))
	}
	return tracker.New(c.Store, opts...), nil
}

// PerformAutomaticBackup snapshots SQLite databases and silently handles errors.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// OpenStore picks a storage backend from the --config value. When config is
// the default path and a connection string is available from the environment
// or the keyring, that connection string is used instead.
func OpenStore(config string) (storage.Provider, error) {
	trusted := false
	if config == "" || config == constants.DefaultConfigPath {
		if connStr, source, err := keyring.ResolveConnectionString(); err == nil {
			logger.Debug("Using connection string", "source", source)
			config, trusted = connStr, true
		}
	}
	if config == "" {
		config = constants.DefaultConfigPath
	}

	switch {
	case postgres.IsConnString(config) || strings.Contains(config, "host="):
		if !trusted {
			if _, err := postgres.ValidateConnString(config); err != nil {
				if errors.Is(err, postgres.ErrEmbeddedCredentials) {
					return nil, credentialsHelp()
				}
				return nil, err
			}
		}
		return postgres.New(config), nil

	case mongodb.IsConnString(config):
		if !trusted && hasURLPassword(config) {
			return nil, credentialsHelp()
		}
		return mongodb.New(config), nil

	case strings.HasSuffix(config, ".json"):
		return storage.NewJSONStore(ExpandHome(config)), nil

	default:
		return sqlite.NewStore(ExpandHome(config)), nil
	}
}

func hasURLPassword(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return false
	}
	_, set := u.User.Password()
	return set
}

func credentialsHelp() error {
	return fmt.Errorf("%w; store it with '%s keyring set' or export %s instead",
		ErrEmbeddedCredentials, constants.AppName, constants.EnvDBConnection)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// DefaultConfigDir is where logs, backups and the server lockfile live.
func DefaultConfigDir() string {
	return filepath.Dir(ExpandHome(constants.DefaultConfigPath))
}
