// Package parser turns bank notification emails into normalized transaction records.
//
// A Rule recognises one sender's notification format and extracts a ParsedTransaction
// from it. Rules are held in a Registry, which dispatches each email to the first
// matching rule and isolates that rule's faults from the rest of a sync.
package parser

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawEmail is a fetched, decoded notification email.
type RawEmail struct {
	ID           string `json:"id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Subject      string `json:"subject"`
	Snippet      string `json:"snippet"`
	Body         string `json:"body"`
	InternalDate string `json:"internalDate"` // epoch millis
}

// Direction is the flow of money relative to the user.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

const (
	// ProviderGmail is the provenance recorded for every email-sourced transaction.
	ProviderGmail = "gmail"

	// SelfAccount labels the side of a transaction the user owns.
	SelfAccount = "Me"

	// UnknownAccount labels a counterparty that could not be resolved.
	UnknownAccount = "Unknown"

	// DefaultCurrency is used when a rule cannot detect a currency.
	DefaultCurrency = "SGD"
)

// ParsedTransaction is the normalized output of a rule.
type ParsedTransaction struct {
	MessageID     string          `json:"message_id"`
	Provider      string          `json:"provider"`
	Bank          string          `json:"bank"`
	Direction     Direction       `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	FromAccount   string          `json:"from_account"`
	ToAccount     string          `json:"to_account"`
	ModeOfPayment string          `json:"mode_of_payment"`
	TransactedAt  time.Time       `json:"transacted_at"`
}

// SkipReason explains why an email produced no transaction.
type SkipReason string

const (
	SkipNoMatch       SkipReason = "no_match"
	SkipMissingAmount SkipReason = "missing_amount"
	SkipRuleFault     SkipReason = "rule_fault"
	SkipZeroAmount    SkipReason = "zero_amount"

	// SkipAmountOutOfRange marks an amount of MaxAmount or more.
	SkipAmountOutOfRange SkipReason = "amount_out_of_range"
)

// Result is the outcome of extracting one email: either a populated
// transaction or the reason it was skipped, never both.
type Result struct {
	Transaction ParsedTransaction
	Skip        SkipReason
	RuleID      string
}

// Parsed wraps a fully populated transaction.
func Parsed(tx ParsedTransaction) Result {
	return Result{Transaction: tx}
}

// Skipped returns a Result carrying no transaction.
func Skipped(reason SkipReason) Result {
	return Result{Skip: reason}
}

// OK reports whether the result carries a transaction.
func (r Result) OK() bool {
	return r.Skip == ""
}
