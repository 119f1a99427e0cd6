package constants

const (
	// Allowances granted to a freshly created streak record
	DefaultStreakFreezes       = 1
	DefaultAvailableRecoveries = 1
	MaxAvailableRecoveries     = 1
	RecoveryCooldownDays       = 7

	// Reminder defaults
	DefaultTimezone        = "UTC"
	DefaultQuietHoursStart = "21:00"
	DefaultQuietHoursEnd   = "08:00"

	// HTTP defaults
	DefaultListenAddr  = ":8080"
	DefaultCORSOrigins = "http://localhost:3000"
)
