package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPOSBRule_Matches(t *testing.T) {
	rule := NewPOSBRule()
	assert.True(t, rule.Matches(RawEmail{From: "DBS <IBanking.Alert@dbs.com>"}))
	assert.False(t, rule.Matches(RawEmail{From: "alert@uobgroup.com"}))
	assert.False(t, rule.Matches(RawEmail{}))
}

func TestPOSBRule_OutgoingTransfer(t *testing.T) {
	email := RawEmail{
		ID:           "msg-a",
		From:         "ibanking.alert@dbs.com",
		Subject:      "Transaction Alerts",
		Body:         "SGD 50.00 transferred to John Tan via Funds Transfer Reference: ABC123",
		InternalDate: "1700000000000",
	}

	res, err := NewPOSBRule().Extract(email)
	require.NoError(t, err)
	require.True(t, res.OK())

	tx := res.Transaction
	assert.Equal(t, "msg-a", tx.MessageID)
	assert.Equal(t, ProviderGmail, tx.Provider)
	assert.Equal(t, "POSB", tx.Bank)
	assert.Equal(t, DirectionOutgoing, tx.Direction)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, "SGD", tx.Currency)
	assert.Equal(t, "ABC123", tx.Description)
	assert.Equal(t, "Me", tx.FromAccount)
	assert.Equal(t, "John Tan", tx.ToAccount)
	assert.Equal(t, "Funds Transfer", tx.ModeOfPayment)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), tx.TransactedAt)
}

func TestPOSBRule_Incoming(t *testing.T) {
	res, err := NewPOSBRule().Extract(RawEmail{
		ID:   "msg-b",
		From: "ibanking.alert@dbs.com",
		Body: "You have received SGD 1,234.56 from Mary Lim via PayNow.",
	})
	require.NoError(t, err)
	tx := res.Transaction
	assert.Equal(t, DirectionIncoming, tx.Direction)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "Mary Lim", tx.FromAccount)
	assert.Equal(t, "Me", tx.ToAccount)
	assert.Equal(t, "PayNow", tx.ModeOfPayment)
}

func TestPOSBRule_BothKeywordFamiliesIsOutgoing(t *testing.T) {
	res, err := NewPOSBRule().Extract(RawEmail{
		From: "ibanking.alert@dbs.com",
		Body: "Incoming request: SGD 10.00 paid to Bob",
	})
	require.NoError(t, err)
	assert.Equal(t, DirectionOutgoing, res.Transaction.Direction)
	assert.Equal(t, "Bob", res.Transaction.ToAccount)
}

func TestPOSBRule_Defaults(t *testing.T) {
	res, err := NewPOSBRule().Extract(RawEmail{From: "ibanking.alert@dbs.com", Body: "nothing useful"})
	require.NoError(t, err)
	require.True(t, res.OK())

	tx := res.Transaction
	assert.True(t, tx.Amount.IsZero())
	assert.Equal(t, "POSB Transaction", tx.Description)
	assert.Equal(t, "Funds Transfer", tx.ModeOfPayment)
	assert.Equal(t, "Unknown", tx.ToAccount)
}

func TestPOSBRule_PayeeNameWithStopWord(t *testing.T) {
	res, err := NewPOSBRule().Extract(RawEmail{
		ID:   "to-1",
		From: "ibanking.alert@dbs.com",
		Body: "SGD 20.00 transferred to Tan Ah To via PayNow",
	})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "Tan Ah To", res.Transaction.ToAccount)
	assert.Equal(t, "PayNow", res.Transaction.ModeOfPayment)
}
