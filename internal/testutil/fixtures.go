package testutil

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"spendsync/internal/models"
	"spendsync/internal/parser"
	"spendsync/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// BaseTime is the fixed instant fixtures are stamped relative to.
var BaseTime = time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)

// NewUserID returns a fresh external user id. Users live in the identity
// provider, so no row is created.
func NewUserID() string {
	return "user-" + uuid.New()
}

// CreateTestCategory creates a category with the given monthly budget.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, budget string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:        userID,
		Name:          fmt.Sprintf("Category %d", nextID()),
		MonthlyBudget: decimal.RequireFromString(budget),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction stores a gmail transaction with a unique message id.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, direction parser.Direction, amount string, at time.Time) *models.Transaction {
	t.Helper()

	messageID := "msg-" + strconv.FormatInt(nextID(), 10)
	tx := &models.Transaction{
		UserID:        userID,
		MessageID:     &messageID,
		Provider:      parser.ProviderGmail,
		Bank:          "POSB",
		Direction:     direction,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "SGD",
		Description:   "Test transaction",
		FromAccount:   parser.SelfAccount,
		ToAccount:     parser.UnknownAccount,
		ModeOfPayment: "Funds Transfer",
		TransactedAt:  at,
		Source:        models.SourceGmail,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestSettings stores settings for userID.
func CreateTestSettings(t *testing.T, db *gorm.DB, userID string, notify bool, transactionEmail string) *models.UserSettings {
	t.Helper()

	settings := &models.UserSettings{
		UserID:               userID,
		NotificationsEnabled: notify,
		TransactionEmail:     transactionEmail,
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test settings: %v", err)
	}
	return settings
}

// POSBEmail returns a POSB outgoing transfer alert with the given id and amount.
func POSBEmail(id, amount, payee string) parser.RawEmail {
	return parser.RawEmail{
		ID:           id,
		From:         "ibanking.alert@dbs.com",
		To:           "me@example.com",
		Subject:      "iBanking Alerts",
		Body:         fmt.Sprintf("SGD %s transferred to %s via PayNow Reference: %s", amount, payee, id),
		InternalDate: strconv.FormatInt(BaseTime.UnixMilli(), 10),
	}
}

// UOBEmail returns a UOB card purchase alert.
func UOBEmail(id, amount, merchant string) parser.RawEmail {
	return parser.RawEmail{
		ID:           id,
		From:         "alert@uobgroup.com",
		To:           "me@example.com",
		Subject:      "UOB Transaction Alert",
		Body:         fmt.Sprintf("A transaction of SGD %s was spent at %s using Card ending 1234.", amount, merchant),
		InternalDate: strconv.FormatInt(BaseTime.UnixMilli(), 10),
	}
}
