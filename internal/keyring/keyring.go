package keyring

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/stepworks/streakd/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Known secret names stored under the streakd service.
const (
	SecretDBConnection  = constants.DefaultKeyringUser
	SecretWebhookSecret = "webhook-secret"
)

// Get retrieves a named secret from the OS keyring.
func Get(name string) (string, error) {
	value, err := keyring.Get(constants.AppName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores a named secret in the OS keyring.
func Set(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if err := keyring.Set(constants.AppName, name, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", name, err)
	}
	return nil
}

// Delete removes a named secret from the OS keyring.
func Delete(name string) error {
	if err := keyring.Delete(constants.AppName, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", name, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string from the OS keyring.
func GetConnectionString() (string, error) {
	return Get(SecretDBConnection)
}

// SetConnectionString stores the database connection string in the OS keyring.
func SetConnectionString(connStr string) error {
	return Set(SecretDBConnection, connStr)
}

// DeleteConnectionString removes the database connection string from the OS keyring.
func DeleteConnectionString() error {
	return Delete(SecretDBConnection)
}

// ResolveConnectionString finds a full database connection string. The
// STREAKD_DB_CONNECTION environment variable wins over the keyring. The
// returned source names where it came from.
func ResolveConnectionString() (connStr, source string, err error) {
	if v := os.Getenv(constants.EnvDBConnection); v != "" {
		return v, "env", nil
	}
	v, err := GetConnectionString()
	if err != nil {
		return "", "", err
	}
	return v, "keyring", nil
}

// IsAvailable is a best-effort check that the OS keyring can be read.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
