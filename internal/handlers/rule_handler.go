package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/parser"
)

// RuleHandler exposes the parser registry for diagnostics.
type RuleHandler struct {
	registry *parser.Registry
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(registry *parser.Registry) *RuleHandler {
	return &RuleHandler{registry: registry}
}

// RuleResponse describes one registered rule.
type RuleResponse struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
}

// ParseResponse is the outcome of parsing a single email.
type ParseResponse struct {
	RuleID      string                    `json:"rule_id,omitempty"`
	Transaction *parser.ParsedTransaction `json:"transaction,omitempty"`
	Skipped     string                    `json:"skipped,omitempty"`
}

// ListRules handles listing registered rules in dispatch order
// @Summary     List parser rules
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} RuleResponse "Rules in dispatch order"
// @Router      /rules [get]
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules := h.registry.Rules()
	resp := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, RuleResponse{ID: rule.ID(), Sender: rule.Sender()})
	}
	c.JSON(http.StatusOK, gin.H{"rules": resp})
}

// LookupRule handles finding the rule for a sender address
// @Summary     Find the rule for a sender
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Param       sender query string true "Sender address"
// @Success     200 {object} RuleResponse "Matching rule"
// @Failure     400 {object} ErrorResponse "Missing sender"
// @Failure     404 {object} ErrorResponse "No rule handles this sender"
// @Router      /rules/lookup [get]
func (h *RuleHandler) LookupRule(c *gin.Context) {
	sender := strings.TrimSpace(c.Query("sender"))
	if sender == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "sender is required"))
		return
	}

	rule, ok := h.registry.LookupBySender(sender)
	if !ok {
		respondWithError(c, apperrors.ErrRuleNotFound)
		return
	}

	c.JSON(http.StatusOK, RuleResponse{ID: rule.ID(), Sender: rule.Sender()})
}

// Parse handles dry-run parsing of a single email
// @Summary     Parse one email
// @Description Dispatch an email through the rule registry without storing anything
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body parser.RawEmail true "Raw email"
// @Success     200 {object} ParseResponse "Parsed transaction or skip reason"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /parse [post]
func (h *RuleHandler) Parse(c *gin.Context) {
	var email parser.RawEmail
	if err := c.ShouldBindJSON(&email); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result := h.registry.Dispatch(email)
	resp := ParseResponse{RuleID: result.RuleID}
	if result.OK() {
		tx := result.Transaction
		resp.Transaction = &tx
	} else {
		resp.Skipped = string(result.Skip)
	}

	c.JSON(http.StatusOK, resp)
}
