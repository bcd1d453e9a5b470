// Package errors defines the application's typed errors. Services return
// AppError values so handlers can render a stable code and message without
// leaking internal details.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError is an error with a client-facing code and message, an HTTP status
// and an optional wrapped cause.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap copies sentinel and attaches internal as the cause.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage copies sentinel with a different client-facing message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Authentication.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Sync.
var (
	ErrMailNotConnected  = &AppError{Code: "MAIL_NOT_CONNECTED", Message: "Connect your email account to sync transactions", StatusCode: http.StatusPreconditionFailed}
	ErrSyncInProgress    = &AppError{Code: "SYNC_IN_PROGRESS", Message: "A sync is already running for this user", StatusCode: http.StatusConflict}
	ErrMailFetchFailed   = &AppError{Code: "MAIL_FETCH_FAILED", Message: "Could not fetch emails from the mail provider", StatusCode: http.StatusBadGateway}
	ErrSyncPersistence   = &AppError{Code: "SYNC_PERSISTENCE_FAILED", Message: "Could not save synced transactions", StatusCode: http.StatusInternalServerError}
	ErrInvalidMailToken  = &AppError{Code: "INVALID_MAIL_TOKEN", Message: "Mail access token is missing or invalid", StatusCode: http.StatusBadRequest}
	ErrRuleNotFound      = &AppError{Code: "RULE_NOT_FOUND", Message: "No parser rule handles this sender", StatusCode: http.StatusNotFound}
	ErrMailNotConfigured = &AppError{Code: "MAIL_NOT_CONFIGURED", Message: "Mail token encryption is not configured", StatusCode: http.StatusServiceUnavailable}
	ErrSyncCancelled     = &AppError{Code: "SYNC_CANCELLED", Message: "The sync was cancelled before saving", StatusCode: http.StatusRequestTimeout}
)

// Category.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
)

// Transaction.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)
