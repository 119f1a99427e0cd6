package streak

import "errors"

var (
	ErrUserIDRequired         = errors.New("user id is required")
	ErrEntryIDRequired        = errors.New("entry id is required")
	ErrNoStreakToRecover      = errors.New("no streak to recover")
	ErrStreakNotBroken        = errors.New("streak is not broken")
	ErrNoRecoveryAvailable    = errors.New("no recovery available")
	ErrInvalidJournalType     = errors.New("invalid journal type")
	ErrReservedRecoveryReason = errors.New("recovery reason is reserved for automatic freezes")
)
