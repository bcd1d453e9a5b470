package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/parser"
	"spendsync/internal/services"
)

// SyncHandler handles mailbox sync and ingest requests.
type SyncHandler struct {
	syncService    services.SyncServicer
	syncRunService services.SyncRunServicer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService services.SyncServicer, syncRunService services.SyncRunServicer) *SyncHandler {
	return &SyncHandler{syncService: syncService, syncRunService: syncRunService}
}

// SyncEmailsRequest carries emails the caller already fetched.
type SyncEmailsRequest struct {
	Emails []parser.RawEmail `json:"emails" binding:"required,max=500"`
}

// SyncResponse reports the counts of a sync.
type SyncResponse struct {
	Fetched         int            `json:"fetched"`
	Imported        int            `json:"imported"`
	New             int            `json:"new"`
	Skipped         int            `json:"skipped"`
	SkippedByReason map[string]int `json:"skipped_by_reason,omitempty"`
}

// Sync handles a mailbox sync for the authenticated user
// @Summary     Sync transactions from the mailbox
// @Description Fetch recent bank notification emails, import new transactions and notify about them
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SyncResponse "Sync counts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "A sync is already running"
// @Failure     412 {object} ErrorResponse "Mailbox not connected"
// @Failure     502 {object} ErrorResponse "Mail provider error"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.syncService.Sync(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSyncResponse(result))
}

// SyncEmails handles reconciling caller-supplied emails
// @Summary     Sync supplied emails
// @Description Parse and import emails the client fetched itself
// @Tags        sync
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SyncEmailsRequest true "Raw emails"
// @Success     200 {object} SyncResponse "Sync counts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "A sync is already running"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sync/emails [post]
func (h *SyncHandler) SyncEmails(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.syncEmails(c, userID)
}

// Ingest handles emails pushed by an external mail fetcher
// @Summary     Ingest emails for a user
// @Description Machine-to-machine variant of /sync/emails authenticated with X-API-Key
// @Tags        ingest
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true "Ingest API key"
// @Param       userID path string true "User ID"
// @Param       request body SyncEmailsRequest true "Raw emails"
// @Success     200 {object} SyncResponse "Sync counts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     409 {object} ErrorResponse "A sync is already running"
// @Router      /ingest/users/{userID}/emails [post]
func (h *SyncHandler) Ingest(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid userID"))
		return
	}
	h.syncEmails(c, userID)
}

func (h *SyncHandler) syncEmails(c *gin.Context, userID string) {
	var req SyncEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.syncService.SyncEmails(c.Request.Context(), userID, req.Emails)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSyncResponse(result))
}

// ListRuns handles listing recent syncs
// @Summary     List sync history
// @Description Most recent sync runs for the authenticated user
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum runs to return (default 20, max 100)"
// @Success     200 {array} models.SyncRun "Sync runs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sync/runs [get]
func (h *SyncHandler) ListRuns(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid limit"))
			return
		}
	}

	runs, err := h.syncRunService.ListRuns(userID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func toSyncResponse(result *services.SyncResult) SyncResponse {
	resp := SyncResponse{
		Fetched:  result.Fetched,
		Imported: result.Imported,
		New:      result.New,
		Skipped:  result.Skipped,
	}
	if len(result.SkippedByReason) > 0 {
		resp.SkippedByReason = make(map[string]int, len(result.SkippedByReason))
		for reason, n := range result.SkippedByReason {
			resp.SkippedByReason[string(reason)] = n
		}
	}
	return resp
}
