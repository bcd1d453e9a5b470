package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
rules:
  - id: acme-bank
    sender: Alerts@AcmeBank.example
    bank: ACME
    currency: usd
    default_mode: Debit Card
  - id: posb
    sender: ibanking.alert@dbs.com
`

func TestParseRuleFile(t *testing.T) {
	rules, err := ParseRuleFile([]byte(sampleRules))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	acme, ok := rules[0].(*KeyValueRule)
	require.True(t, ok)
	assert.Equal(t, "acme-bank", acme.ID())
	assert.Equal(t, "alerts@acmebank.example", acme.Sender())
	assert.Equal(t, "USD", acme.Currency)
	assert.Equal(t, "Debit Card", acme.DefaultMode)
	assert.Equal(t, "ACME Transaction", acme.Label)
}

func TestParseRuleFile_Invalid(t *testing.T) {
	_, err := ParseRuleFile([]byte("rules:\n  - bank: nobody\n"))
	assert.Error(t, err)

	_, err = ParseRuleFile([]byte("rules: [unclosed"))
	assert.Error(t, err)
}

func TestLoadRuleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	reg := DefaultRegistry()
	added, err := LoadRuleFile(reg, path)
	require.NoError(t, err)
	// posb is already registered.
	assert.Equal(t, 1, added)
	assert.Len(t, reg.Rules(), 4)

	res := reg.Dispatch(RawEmail{ID: "acme-1", From: "alerts@acmebank.example", Body: "amount: 9.99\nwith: Shop"})
	require.True(t, res.OK())
	assert.Equal(t, "acme-bank", res.RuleID)
	assert.Equal(t, "USD", res.Transaction.Currency)
	assert.Equal(t, "Debit Card", res.Transaction.ModeOfPayment)

	_, err = LoadRuleFile(reg, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRuleFile_RejectsUnknownCurrency(t *testing.T) {
	_, err := ParseRuleFile([]byte("rules:\n  - id: acme\n    sender: alerts@acme.example\n    currency: dollars\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid currency")

	rules, err := ParseRuleFile([]byte("rules:\n  - id: acme\n    sender: alerts@acme.example\n    currency: eur\n"))
	require.NoError(t, err)
	assert.Equal(t, "EUR", rules[0].(*KeyValueRule).Currency)
}
