package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/services"
)

// SummaryHandler serves month-to-date figures.
type SummaryHandler struct {
	summaryService services.SummaryServicer
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService services.SummaryServicer) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// GetSummary handles the month summary
// @Summary     Month summary
// @Description Income, expenses and balance for the current budget month
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Summary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summary [get]
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.GetSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCategoryUsage handles spend per category
// @Summary     Category usage
// @Description Outgoing spend per category against its monthly budget
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.CategoryUsage "Usage per category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summary/categories [get]
func (h *SummaryHandler) GetCategoryUsage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	usage, err := h.summaryService.GetCategoryUsage(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": usage})
}

// GetTopCategories handles the highest-spend categories
// @Summary     Top categories
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Number of categories (default 3)"
// @Success     200 {array} services.CategoryUsage "Top categories"
// @Failure     400 {object} ErrorResponse "Invalid limit"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /summary/top-categories [get]
func (h *SummaryHandler) GetTopCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 50 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 50"))
			return
		}
	}

	top, err := h.summaryService.GetTopCategories(userID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": top})
}
