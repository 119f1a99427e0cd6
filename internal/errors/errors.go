package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/streak"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Describe turns a precondition failure into a message fit for end users.
// Unknown errors fall back to their own text.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, streak.ErrUserIDRequired):
		return "A user id is required."
	case stderrors.Is(err, streak.ErrEntryIDRequired):
		return "An entry id is required."
	case stderrors.Is(err, streak.ErrInvalidJournalType):
		return "Journal type must be lowercase letters, digits, '-' or '_'."
	case stderrors.Is(err, streak.ErrNoStreakToRecover):
		return "There is no streak to recover yet. Write your first entry to start one."
	case stderrors.Is(err, streak.ErrStreakNotBroken):
		return "Your streak is not broken, so there is nothing to recover."
	case stderrors.Is(err, streak.ErrNoRecoveryAvailable):
		return "No recovery is available right now. A new one unlocks a week after the last."
	case stderrors.Is(err, streak.ErrReservedRecoveryReason):
		return "That recovery reason is reserved."
	case stderrors.Is(err, storage.ErrVersionConflict):
		return "The streak was updated somewhere else at the same time. Please try again."
	}
	return err.Error()
}
