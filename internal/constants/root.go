package constants

import "time"

const (
	AppName            = "streakd"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/streakd/streakd.db"
	Version            = "v0.3.0"

	// DateFormat is the calendar-day format used for history rows and CLI input (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the wall-clock format used for quiet hours (HH:MM)
	TimeFormat = "15:04"

	// Journal types
	DefaultJournalType = "step10"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "streakd-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries     = 3
	NotifyRetryDelay     = 100 * time.Millisecond
	NotifyTimeout        = 10 * time.Second
	NotifySecretHeader   = "X-Streakd-Secret"
	NotifyMaxConcurrency = 8

	// Save retries on optimistic-concurrency conflicts
	DefaultMaxSaveRetries = 3

	// Connection string sources
	EnvDBConnection = "STREAKD_DB_CONNECTION"
)
