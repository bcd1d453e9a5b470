package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
	"spendsync/internal/pagination"
	"spendsync/internal/parser"
)

const (
	manualDescription = "Manual Transaction"
	manualMode        = "Manual Entry"
)

// upsertColumns are overwritten when a re-sync parses a stored message again.
// category_id, source and id are never touched.
var upsertColumns = []string{
	"provider", "bank", "direction", "amount", "currency", "description",
	"from_account", "to_account", "mode_of_payment", "transacted_at",
	"sender_address", "recipient_address", "updated_at",
}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	defaultCurrency string
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, defaultCurrency string) TransactionServicer {
	if defaultCurrency == "" {
		defaultCurrency = parser.DefaultCurrency
	}
	return &transactionService{db: db, defaultCurrency: defaultCurrency}
}

// ExistingMessageIDs returns every message id stored for the user.
func (s *transactionService) ExistingMessageIDs(ctx context.Context, userID string) (MessageIDSet, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND message_id IS NOT NULL", userID).
		Pluck("message_id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	set := make(MessageIDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// UpsertParsed writes rows keyed by (user_id, message_id) in one statement
// inside one database transaction. Rows repeating a message id earlier in the
// batch are dropped. The result tells which message ids were new to the store.
func (s *transactionService) UpsertParsed(ctx context.Context, userID string, rows []models.Transaction) (*UpsertResult, error) {
	batch := make([]models.Transaction, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.MessageID == nil || *row.MessageID == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "parsed transaction without message id")
		}
		if _, dup := seen[*row.MessageID]; dup {
			continue
		}
		seen[*row.MessageID] = struct{}{}
		ids = append(ids, *row.MessageID)

		row.UserID = userID
		row.Source = models.SourceGmail
		row.CategoryID = nil
		row.Category = nil
		batch = append(batch, row)
	}

	result := &UpsertResult{}
	if len(batch) == 0 {
		return result, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored []string
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND message_id IN ?", userID, ids).
			Pluck("message_id", &stored).Error; err != nil {
			return err
		}
		storedIDs := make(map[string]struct{}, len(stored))
		for _, id := range stored {
			storedIDs[id] = struct{}{}
		}

		// Conflicting rows keep their stored id; the id generated for them
		// here is discarded by the update.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(&batch).Error; err != nil {
			return err
		}

		for _, row := range batch {
			if _, ok := storedIDs[*row.MessageID]; ok {
				result.Updated = append(result.Updated, *row.MessageID)
			} else {
				result.Inserted = append(result.Inserted, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncPersistence, err)
	}
	return result, nil
}

// CreateManual stores a user-entered transaction.
func (s *transactionService) CreateManual(userID string, in ManualTransactionInput) (*models.Transaction, error) {
	if !in.Direction.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be incoming or outgoing")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(s.db, userID, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	transactedAt := time.Now().UTC()
	if in.TransactedAt != nil {
		transactedAt = in.TransactedAt.UTC()
	}
	from, to := parser.Accounts(in.Direction, strings.TrimSpace(in.Counterparty))

	tx := &models.Transaction{
		UserID:        userID,
		Direction:     in.Direction,
		Amount:        in.Amount.Round(2),
		Currency:      strings.ToUpper(parser.FirstNonEmpty(in.Currency, s.defaultCurrency)),
		Description:   parser.FirstNonEmpty(in.Description, manualDescription),
		FromAccount:   from,
		ToAccount:     to,
		ModeOfPayment: parser.FirstNonEmpty(in.ModeOfPayment, manualMode),
		TransactedAt:  transactedAt,
		CategoryID:    in.CategoryID,
		Source:        models.SourceManual,
	}
	if err := s.db.Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// AssignCategory sets or clears a transaction's category.
func (s *transactionService) AssignCategory(userID, transactionID string, categoryID *string) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if categoryID != nil {
			if err := s.checkCategory(tx, userID, *categoryID); err != nil {
				return err
			}
		}

		if err := tx.Model(&transaction).Update("category_id", categoryID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.CategoryID = categoryID
		result = &transaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *transactionService) checkCategory(db *gorm.DB, userID, categoryID string) error {
	var count int64
	if err := db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// GetUserTransactions lists a user's transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.Page[models.Transaction], error) {
	page.Defaults()

	base := applyTransactionFilters(
		s.db.Model(&models.Transaction{}).Where("user_id = ?", userID),
		filter,
	).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Scope(page)).
		Order("transacted_at DESC").
		Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPage(transactions, page, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transacted_at >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transacted_at < ?", *f.ToDate)
	}
	if f.Direction != nil {
		q = q.Where("direction = ?", *f.Direction)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Source != nil {
		q = q.Where("source = ?", *f.Source)
	}
	return q
}

// sumByDirection splits amounts into incoming and outgoing totals.
func sumByDirection(rows []models.Transaction) (income, expenses decimal.Decimal) {
	for _, row := range rows {
		if row.Direction == parser.DirectionIncoming {
			income = income.Add(row.Amount)
		} else {
			expenses = expenses.Add(row.Amount)
		}
	}
	return income, expenses
}
