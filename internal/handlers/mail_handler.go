package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spendsync/internal/services"
)

// MailHandler manages the user's mailbox connection.
type MailHandler struct {
	mailService services.MailConnectionServicer
}

// NewMailHandler creates a new MailHandler.
func NewMailHandler(mailService services.MailConnectionServicer) *MailHandler {
	return &MailHandler{mailService: mailService}
}

// ConnectMailRequest carries an OAuth access token obtained by the client.
type ConnectMailRequest struct {
	EmailAddress string     `json:"email_address" binding:"omitempty,email,max=255"`
	AccessToken  string     `json:"access_token" binding:"required"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// Connect handles storing a mailbox token
// @Summary     Connect mailbox
// @Description Store the Gmail access token used by /sync. The token is encrypted at rest.
// @Tags        mail
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConnectMailRequest true "Token"
// @Success     200 {object} models.MailConnection "Connection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Token encryption not configured"
// @Router      /mail/connection [put]
func (h *MailHandler) Connect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConnectMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	conn, err := h.mailService.Connect(userID, req.EmailAddress, req.AccessToken, req.ExpiresAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"connection": conn})
}

// GetConnection handles reading the mailbox connection
// @Summary     Get mailbox connection
// @Tags        mail
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.MailConnection "Connection"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     412 {object} ErrorResponse "Not connected"
// @Router      /mail/connection [get]
func (h *MailHandler) GetConnection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	conn, err := h.mailService.GetConnection(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"connection": conn})
}

// Disconnect handles removing the mailbox connection
// @Summary     Disconnect mailbox
// @Tags        mail
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Disconnected"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     412 {object} ErrorResponse "Not connected"
// @Router      /mail/connection [delete]
func (h *MailHandler) Disconnect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.mailService.Disconnect(userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mailbox disconnected"})
}
