package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUOBRule_Matches(t *testing.T) {
	rule := NewUOBRule()
	assert.True(t, rule.Matches(RawEmail{From: "alert@uobgroup.com"}))
	assert.True(t, rule.Matches(RawEmail{From: "No-Reply@UOBgroup.com"}))
	assert.False(t, rule.Matches(RawEmail{From: "ibanking.alert@dbs.com"}))
}

func TestUOBRule_CardPurchase(t *testing.T) {
	res, err := NewUOBRule().Extract(RawEmail{
		ID:      "uob-1",
		From:    "alert@uobgroup.com",
		Subject: "UOB Card Transaction Alert",
		Body:    "A transaction of SGD 12.80 was charged to your UOB credit card at Starbucks on 01 Jan using Apple Pay.",
	})
	require.NoError(t, err)
	require.True(t, res.OK())

	tx := res.Transaction
	assert.Equal(t, "UOB", tx.Bank)
	assert.Equal(t, DirectionOutgoing, tx.Direction)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.80")))
	assert.Equal(t, "Starbucks", tx.Description)
	assert.Equal(t, "Me", tx.FromAccount)
	assert.Equal(t, "Starbucks", tx.ToAccount)
	assert.Equal(t, "Apple Pay", tx.ModeOfPayment)
}

func TestUOBRule_IncomingWithReference(t *testing.T) {
	res, err := NewUOBRule().Extract(RawEmail{
		From: "alert@uobgroup.com",
		Body: "You have received SGD 300.00 from Jane Doe. Reference No: TX 9981",
	})
	require.NoError(t, err)

	tx := res.Transaction
	assert.Equal(t, DirectionIncoming, tx.Direction)
	assert.Equal(t, "Jane Doe", tx.FromAccount)
	assert.Equal(t, "Me", tx.ToAccount)
	assert.Equal(t, "TX 9981", tx.Description)
	assert.Equal(t, "Card", tx.ModeOfPayment)
}

func TestUOBRule_FallbackDescription(t *testing.T) {
	res, err := NewUOBRule().Extract(RawEmail{From: "alert@uobgroup.com", Snippet: "Your alert"})
	require.NoError(t, err)
	assert.Equal(t, "Your alert", res.Transaction.Description)

	res, err = NewUOBRule().Extract(RawEmail{From: "alert@uobgroup.com"})
	require.NoError(t, err)
	assert.Equal(t, "UOB Transaction", res.Transaction.Description)
}
