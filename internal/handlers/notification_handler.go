package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
	"spendsync/internal/pagination"
	"spendsync/internal/services"
)

// NotificationHandler exposes the notification outbox to the push service.
type NotificationHandler struct {
	notificationService services.NotificationServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications handles listing outbox rows
// @Summary     List notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "pending or delivered"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 200)"
// @Success     200 {object} pagination.Page[models.Notification] "Notifications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	var status *models.NotificationStatus
	if v := c.Query("status"); v != "" {
		s := models.NotificationStatus(v)
		if s != models.NotificationPending && s != models.NotificationDelivered {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status, must be pending or delivered"))
			return
		}
		status = &s
	}

	result, err := h.notificationService.ListNotifications(userID, status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkDelivered handles acknowledging a notification
// @Summary     Mark notification delivered
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} MessageResponse "Acknowledged"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /notifications/{id}/delivered [post]
func (h *NotificationHandler) MarkDelivered(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.notificationService.MarkDelivered(userID, notificationID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as delivered"})
}
