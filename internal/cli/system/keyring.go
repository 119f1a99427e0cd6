package system

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/keyring"
	"github.com/stepworks/streakd/internal/storage/mongodb"
	"github.com/stepworks/streakd/internal/storage/postgres"
)

type KeyringCmd struct {
	Set           KeyringSetCmd           `cmd:"" help:"Store a database connection string in the OS keyring."`
	Get           KeyringGetCmd           `cmd:"" help:"Show the stored connection string with the password masked."`
	Delete        KeyringDeleteCmd        `cmd:"" help:"Remove the stored connection string."`
	Status        KeyringStatusCmd        `cmd:"" help:"Check keyring availability."`
	WebhookSecret KeyringWebhookSecretCmd `cmd:"" name:"webhook-secret" help:"Store the shared secret sent with webhook notifications."`
}

// KeyringSetCmd stores database connection credentials in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL or MongoDB connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	isPostgres := postgres.IsConnString(cmd.ConnectionString) || strings.Contains(cmd.ConnectionString, "host=")
	if !isPostgres && !mongodb.IsConnString(cmd.ConnectionString) {
		return errors.New("connection string must be a PostgreSQL or MongoDB connection string")
	}

	if isPostgres {
		if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Println("✓ Connection string stored successfully in OS keyring")
	ctx.Println("  You can now use streakd without the --config flag")
	return nil
}

type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'streakd keyring set' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	ctx.Println("Connection string retrieved from keyring:")
	ctx.Println(maskPassword(connStr))
	return nil
}

type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")

	for _, s := range []struct{ name, label string }{
		{keyring.SecretDBConnection, "Connection string"},
		{keyring.SecretWebhookSecret, "Webhook secret"},
	} {
		if _, err := keyring.Get(s.name); err == nil {
			ctx.Printf("✓ %s is stored in keyring\n", s.label)
		} else if errors.Is(err, keyring.ErrNotFound) {
			ctx.Printf("ℹ No %s stored in keyring\n", strings.ToLower(s.label))
		}
	}
	return nil
}

type KeyringWebhookSecretCmd struct {
	Secret string `arg:"" help:"Shared secret sent in the X-Streakd-Secret header."`
}

func (cmd *KeyringWebhookSecretCmd) Run(ctx *cli.Context) error {
	if err := keyring.Set(keyring.SecretWebhookSecret, cmd.Secret); err != nil {
		return err
	}
	ctx.Println("✓ Webhook secret stored in OS keyring")
	return nil
}

// maskPassword hides the password of URL or DSN connection strings.
func maskPassword(connStr string) string {
	if strings.Contains(connStr, "://") {
		u, err := url.Parse(connStr)
		if err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				u.User = url.UserPassword(u.User.Username(), "xxxx")
				return strings.Replace(u.String(), ":xxxx@", ":****@", 1)
			}
		}
		return connStr
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
