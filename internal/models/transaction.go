package models

import (
	"time"

	"github.com/shopspring/decimal"

	"spendsync/internal/parser"
)

// TransactionSource records how a transaction entered the store.
type TransactionSource string

const (
	SourceGmail  TransactionSource = "gmail"
	SourceManual TransactionSource = "manual"
)

// Transaction is a stored transaction. Email-sourced rows are keyed by
// (user_id, message_id); manual rows have no message id.
type Transaction struct {
	Base
	UserID        string            `gorm:"not null;index;uniqueIndex:idx_transactions_user_message,priority:1" json:"user_id"`
	MessageID     *string           `gorm:"uniqueIndex:idx_transactions_user_message,priority:2" json:"message_id,omitempty"`
	Provider      string            `json:"provider,omitempty"`
	Bank          string            `json:"bank,omitempty"`
	Direction     parser.Direction  `gorm:"size:16;not null" json:"direction"`
	Amount        decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency      string            `gorm:"size:3;not null" json:"currency"`
	Description   string            `gorm:"not null" json:"description"`
	FromAccount   string            `json:"from_account"`
	ToAccount     string            `json:"to_account"`
	ModeOfPayment string            `json:"mode_of_payment"`
	TransactedAt  time.Time         `gorm:"not null;index" json:"transacted_at"`
	CategoryID    *string           `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Source        TransactionSource `gorm:"size:16;not null" json:"source"`

	// Envelope addresses of the originating email.
	SenderAddress    string `json:"sender_address,omitempty"`
	RecipientAddress string `json:"recipient_address,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
}

// FromParsed builds a gmail-sourced transaction for userID.
func FromParsed(userID string, p parser.ParsedTransaction) Transaction {
	messageID := p.MessageID
	return Transaction{
		UserID:        userID,
		MessageID:     &messageID,
		Provider:      p.Provider,
		Bank:          p.Bank,
		Direction:     p.Direction,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Description:   p.Description,
		FromAccount:   p.FromAccount,
		ToAccount:     p.ToAccount,
		ModeOfPayment: p.ModeOfPayment,
		TransactedAt:  p.TransactedAt,
		Source:        SourceGmail,
	}
}
