package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
	"spendsync/internal/pagination"
	"spendsync/internal/parser"
	"spendsync/internal/services"
	"spendsync/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for a manual transaction
type CreateTransactionRequest struct {
	Direction     string          `json:"direction" binding:"required,direction"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Currency      string          `json:"currency" binding:"omitempty,iso4217"`
	Description   string          `json:"description" binding:"max=500"`
	Counterparty  string          `json:"counterparty" binding:"max=200"`
	ModeOfPayment string          `json:"mode_of_payment" binding:"max=100"`
	CategoryID    *string         `json:"category_id" binding:"omitempty,uuid"`
	Date          *string         `json:"date"`
}

// AssignCategoryRequest sets or clears a transaction's category
type AssignCategoryRequest struct {
	CategoryID *string `json:"category_id" binding:"omitempty,uuid"`
}

// CreateTransaction handles the creation of a manual transaction
// @Summary     Create a transaction
// @Description Record a transaction by hand
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	in := services.ManualTransactionInput{
		Direction:     parser.Direction(req.Direction),
		Amount:        req.Amount,
		Currency:      req.Currency,
		Description:   req.Description,
		Counterparty:  req.Counterparty,
		ModeOfPayment: req.ModeOfPayment,
		CategoryID:    req.CategoryID,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		in.TransactedAt = &parsed
	}

	transaction, err := h.transactionService.CreateManual(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions handles listing the user's transactions
// @Summary     List transactions
// @Description Paginated transactions, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 50, max 200)"
// @Param       from_date   query string false "Inclusive start (RFC3339 or YYYY-MM-DD)"
// @Param       to_date     query string false "Exclusive end (RFC3339 or YYYY-MM-DD)"
// @Param       direction   query string false "incoming or outgoing"
// @Param       category_id query string false "Category ID"
// @Param       source      query string false "gmail or manual"
// @Success     200 {object} pagination.Page[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
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

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("direction"); v != "" {
		direction := parser.Direction(v)
		if !direction.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid direction, must be incoming or outgoing")
		}
		filter.Direction = &direction
	}

	if v := c.Query("category_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		filter.CategoryID = &v
	}

	if v := c.Query("source"); v != "" {
		source := models.TransactionSource(v)
		switch source {
		case models.SourceGmail, models.SourceManual:
			filter.Source = &source
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid source, must be gmail or manual")
		}
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a single transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// AssignCategory handles setting or clearing a transaction's category
// @Summary     Assign a category
// @Description Set category_id to assign, or send null to clear
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body AssignCategoryRequest true "Category"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Router      /transactions/{id}/category [put]
func (h *TransactionHandler) AssignCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssignCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	transaction, err := h.transactionService.AssignCategory(userID, transactionID, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
