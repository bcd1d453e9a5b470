package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRule records how often it is asked to extract.
type stubRule struct {
	id       string
	sender   string
	extracts int
	extract  func(RawEmail) (Result, error)
}

func (s *stubRule) ID() string     { return s.id }
func (s *stubRule) Sender() string { return s.sender }

func (s *stubRule) Matches(email RawEmail) bool {
	return fromContains(email, s.sender)
}

func (s *stubRule) Extract(email RawEmail) (Result, error) {
	s.extracts++
	if s.extract != nil {
		return s.extract(email)
	}
	return Parsed(ParsedTransaction{MessageID: email.ID, Bank: s.id}), nil
}

func TestRegistry_RegisterRejectsDuplicateID(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, reg.Register(&stubRule{id: "a", sender: "a@x"}))
	assert.False(t, reg.Register(&stubRule{id: "a", sender: "other@x"}))
	assert.True(t, reg.Register(&stubRule{id: "b", sender: "b@x"}))

	rules := reg.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "a", rules[0].ID())
	assert.Equal(t, "a@x", rules[0].Sender())
	assert.Equal(t, "b", rules[1].ID())
}

func TestRegistry_DefaultOrder(t *testing.T) {
	var ids []string
	for _, r := range DefaultRegistry().Rules() {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"posb", "uob", "timeformetostudy-test"}, ids)
}

func TestRegistry_DispatchNoMatch(t *testing.T) {
	a := &stubRule{id: "a", sender: "a@x"}
	reg := NewRegistry(a)

	res := reg.Dispatch(RawEmail{ID: "1", From: "stranger@example.com"})
	assert.False(t, res.OK())
	assert.Equal(t, SkipNoMatch, res.Skip)
	assert.Zero(t, a.extracts)
}

func TestRegistry_DispatchFirstMatchOnly(t *testing.T) {
	first := &stubRule{id: "first", sender: "bank@x"}
	second := &stubRule{id: "second", sender: "bank@x"}
	reg := NewRegistry(first, second)

	email := RawEmail{ID: "m1", From: "bank@x"}
	res := reg.Dispatch(email)
	require.True(t, res.OK())
	assert.Equal(t, "first", res.RuleID)
	assert.Equal(t, "first", res.Transaction.Bank)
	assert.Equal(t, 1, first.extracts)
	assert.Zero(t, second.extracts)
}

func TestRegistry_DispatchEqualsExtract(t *testing.T) {
	reg := DefaultRegistry()
	email := RawEmail{
		ID:           "m2",
		From:         "ibanking.alert@dbs.com",
		Body:         "SGD 50.00 transferred to John Tan via Funds Transfer Reference: ABC123",
		InternalDate: "1700000000000",
	}
	want, err := NewPOSBRule().Extract(email)
	require.NoError(t, err)

	got := reg.Dispatch(email)
	assert.Equal(t, "posb", got.RuleID)
	assert.Equal(t, want.Transaction, got.Transaction)
}

func TestRegistry_DispatchIsolatesFaults(t *testing.T) {
	panicky := &stubRule{id: "panicky", sender: "panic@x", extract: func(RawEmail) (Result, error) {
		panic("boom")
	}}
	failing := &stubRule{id: "failing", sender: "fail@x", extract: func(RawEmail) (Result, error) {
		return Result{}, errors.New("bad format")
	}}
	// Would match the same emails; must never be reached after a fault.
	fallback := &stubRule{id: "fallback", sender: "@x"}
	reg := NewRegistry(panicky, failing, fallback)

	res := reg.Dispatch(RawEmail{ID: "p", From: "panic@x"})
	assert.Equal(t, SkipRuleFault, res.Skip)
	assert.Equal(t, "panicky", res.RuleID)

	res = reg.Dispatch(RawEmail{ID: "f", From: "fail@x"})
	assert.Equal(t, SkipRuleFault, res.Skip)
	assert.Equal(t, "failing", res.RuleID)

	assert.Zero(t, fallback.extracts)

	res = reg.Dispatch(RawEmail{ID: "ok", From: "ok@x"})
	require.True(t, res.OK())
	assert.Equal(t, "fallback", res.RuleID)
}

func TestRegistry_LookupBySender(t *testing.T) {
	reg := DefaultRegistry()

	rule, ok := reg.LookupBySender("DBS <IBANKING.ALERT@DBS.COM>")
	require.True(t, ok)
	assert.Equal(t, "posb", rule.ID())

	rule, ok = reg.LookupBySender("alert@uobgroup.com")
	require.True(t, ok)
	assert.Equal(t, "uob", rule.ID())

	_, ok = reg.LookupBySender("someone@example.com")
	assert.False(t, ok)
	_, ok = reg.LookupBySender("")
	assert.False(t, ok)
}

func TestRegistry_DispatchSkipsOversizedAmount(t *testing.T) {
	reg := NewRegistry(NewPOSBRule())

	res := reg.Dispatch(RawEmail{
		ID:   "big",
		From: "ibanking.alert@dbs.com",
		Body: "SGD 1,000,000,000,000.00 transferred to John Tan via PayNow",
	})
	assert.False(t, res.OK())
	assert.Equal(t, SkipAmountOutOfRange, res.Skip)
	assert.Equal(t, "posb", res.RuleID)

	res = reg.Dispatch(RawEmail{
		ID:   "max",
		From: "ibanking.alert@dbs.com",
		Body: "SGD 999,999,999,999.99 transferred to John Tan via PayNow",
	})
	require.True(t, res.OK())
	assert.Equal(t, "999999999999.99", res.Transaction.Amount.StringFixed(2))
}
