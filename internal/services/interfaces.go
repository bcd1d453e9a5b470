package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spendsync/internal/models"
	"spendsync/internal/pagination"
	"spendsync/internal/parser"
)

// MessageIDSet holds the message ids a user already has stored.
type MessageIDSet map[string]struct{}

// Has reports whether id is in the set.
func (s MessageIDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// UpsertResult reports which rows an upsert created and which it overwrote.
type UpsertResult struct {
	Inserted []models.Transaction
	Updated  []string // message ids
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Direction  *parser.Direction
	CategoryID *string
	Source     *models.TransactionSource
}

// ManualTransactionInput is a user-entered transaction.
type ManualTransactionInput struct {
	Direction     parser.Direction
	Amount        decimal.Decimal
	Currency      string
	Description   string
	Counterparty  string
	ModeOfPayment string
	CategoryID    *string
	TransactedAt  *time.Time
}

// TransactionServicer is the transaction store.
type TransactionServicer interface {
	ExistingMessageIDs(ctx context.Context, userID string) (MessageIDSet, error)
	UpsertParsed(ctx context.Context, userID string, rows []models.Transaction) (*UpsertResult, error)
	CreateManual(userID string, in ManualTransactionInput) (*models.Transaction, error)
	AssignCategory(userID, transactionID string, categoryID *string) (*models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.Page[models.Transaction], error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name, color string, monthlyBudget decimal.Decimal) (*models.Category, error)
	GetUserCategories(userID string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, color *string, monthlyBudget *decimal.Decimal) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// Summary totals a user's transactions over the current budget month.
type Summary struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Balance     decimal.Decimal `json:"balance"`
	Count       int             `json:"transaction_count"`
}

// CategoryUsage is a category's outgoing spend against its monthly budget.
type CategoryUsage struct {
	models.Category
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// SummaryServicer computes month-to-date figures.
type SummaryServicer interface {
	GetSummary(userID string) (*Summary, error)
	GetCategoryUsage(userID string) ([]CategoryUsage, error)
	GetTopCategories(userID string, limit int) ([]CategoryUsage, error)
}

// SettingsUpdate holds the fields a settings update may change.
type SettingsUpdate struct {
	NotificationsEnabled *bool
	TransactionEmail     *string
}

// SettingsServicer manages per-user preferences.
type SettingsServicer interface {
	GetSettings(userID string) (*models.UserSettings, error)
	UpdateSettings(userID string, update SettingsUpdate) (*models.UserSettings, error)
}

// MailConnectionServicer stores mailbox credentials.
type MailConnectionServicer interface {
	Connect(userID, emailAddress, accessToken string, expiresAt *time.Time) (*models.MailConnection, error)
	GetConnection(userID string) (*models.MailConnection, error)
	Disconnect(userID string) error
	AccessToken(userID string) (string, error)
	MarkSynced(userID string, at time.Time) error
}

// Notification is a push message for one user.
type Notification struct {
	UserID        string
	TransactionID string
	Title         string
	Body          string
	Data          map[string]string
}

// Notifier schedules notifications. Delivery is best-effort.
type Notifier interface {
	Schedule(ctx context.Context, n Notification) error
}

// NotificationServicer exposes the outbox to the push delivery service.
type NotificationServicer interface {
	ListNotifications(userID string, status *models.NotificationStatus, page pagination.PageRequest) (*pagination.Page[models.Notification], error)
	MarkDelivered(userID, notificationID string) error
}

// SyncRunServicer keeps a history of sync outcomes.
type SyncRunServicer interface {
	Record(run *models.SyncRun)
	ListRuns(userID string, limit int) ([]models.SyncRun, error)
}

// SyncResult is the outcome of a sync or reconcile call.
type SyncResult struct {
	Fetched         int                       `json:"fetched"`
	Imported        int                       `json:"imported"`
	New             int                       `json:"new"`
	Skipped         int                       `json:"skipped"`
	SkippedByReason map[parser.SkipReason]int `json:"skipped_by_reason,omitempty"`
}

// SyncServicer imports transactions from notification emails.
type SyncServicer interface {
	// Sync fetches the user's recent notification emails and reconciles them.
	Sync(ctx context.Context, userID string) (*SyncResult, error)
	// SyncEmails reconciles emails fetched by the caller.
	SyncEmails(ctx context.Context, userID string, emails []parser.RawEmail) (*SyncResult, error)
	// Reconcile parses emails, upserts every parsed transaction and notifies
	// about the ones whose message id was not previously stored.
	Reconcile(ctx context.Context, userID string, existing MessageIDSet, emails []parser.RawEmail, notify bool) (*SyncResult, error)
}
