package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/stepworks/streakd/internal/errors"
	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/storage"
	"github.com/stepworks/streakd/internal/streak"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = apperrors.Describe(err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondServiceError maps tracker errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, streak.ErrUserIDRequired),
		errors.Is(err, streak.ErrEntryIDRequired),
		errors.Is(err, streak.ErrInvalidJournalType),
		errors.Is(err, streak.ErrReservedRecoveryReason):
		respondError(c, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, streak.ErrNoStreakToRecover), errors.Is(err, storage.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, streak.ErrStreakNotBroken):
		respondError(c, http.StatusConflict, "streak_not_broken", err)
	case errors.Is(err, streak.ErrNoRecoveryAvailable):
		respondError(c, http.StatusConflict, "no_recovery_available", err)
	case errors.Is(err, storage.ErrVersionConflict):
		respondError(c, http.StatusConflict, "version_conflict", err)
	default:
		logger.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Message: "internal server error", Code: "internal"},
		})
	}
}
