package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/tracker"
)

// TimezoneHeader lets clients pass their IANA zone without a body field.
const TimezoneHeader = "X-Timezone"

type entryRequest struct {
	EntryID     string `json:"entryId"`
	JournalType string `json:"journalType"`
	Timezone    string `json:"timezone"`
}

type recoverRequest struct {
	JournalType string `json:"journalType"`
	Reason      string `json:"reason"`
	Timezone    string `json:"timezone"`
}

type journalRequest struct {
	JournalType string `json:"journalType"`
}

type StreakHandler struct {
	svc *tracker.Service
}

func NewStreakHandler(svc *tracker.Service) *StreakHandler {
	return &StreakHandler{svc: svc}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bind decodes an optional JSON body. An empty body leaves dst untouched.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

// serviceFor resolves the caller's timezone from the body, query or header.
func (h *StreakHandler) serviceFor(c *gin.Context, fromBody string) (*tracker.Service, bool) {
	tz := fromBody
	if tz == "" {
		tz = c.Query("timezone")
	}
	if tz == "" {
		tz = c.GetHeader(TimezoneHeader)
	}
	svc, err := h.svc.ForTimezone(tz)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_timezone", err)
		return nil, false
	}
	return svc, true
}

func (h *StreakHandler) GetStreak(c *gin.Context) {
	rec, err := h.svc.GetUserStreak(c.Request.Context(), c.Param("userId"), c.Query("journalType"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *StreakHandler) ListStreaks(c *gin.Context) {
	recs, err := h.svc.ListStreaks(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if recs == nil {
		recs = []models.StreakRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"streaks": recs, "count": len(recs)})
}

func (h *StreakHandler) CreateEntry(c *gin.Context) {
	var req entryRequest
	if !bind(c, &req) {
		return
	}
	svc, ok := h.serviceFor(c, req.Timezone)
	if !ok {
		return
	}
	if req.EntryID == "" {
		req.EntryID = uuid.NewString()
	}

	rec, err := svc.UpdateUserStreak(c.Request.Context(), c.Param("userId"), req.EntryID, req.JournalType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *StreakHandler) Recover(c *gin.Context) {
	var req recoverRequest
	if !bind(c, &req) {
		return
	}
	svc, ok := h.serviceFor(c, req.Timezone)
	if !ok {
		return
	}

	rec, err := svc.RecoverUserStreak(c.Request.Context(), c.Param("userId"), req.JournalType, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *StreakHandler) AwardFreeze(c *gin.Context) {
	var req journalRequest
	if !bind(c, &req) {
		return
	}

	rec, err := h.svc.AwardStreakFreeze(c.Request.Context(), c.Param("userId"), req.JournalType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *StreakHandler) MarkMilestonesViewed(c *gin.Context) {
	var req journalRequest
	if !bind(c, &req) {
		return
	}

	n, err := h.svc.MarkMilestonesViewed(c.Request.Context(), c.Param("userId"), req.JournalType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
