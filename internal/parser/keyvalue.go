package parser

import (
	"regexp"
	"strings"
)

var (
	kvKeys = map[string]*regexp.Regexp{}

	leadingNumber   = regexp.MustCompile(`^[-+]?[\d,]*\.?\d+`)
	incomingSubject = KeywordPattern("incoming", "credit")
)

func init() {
	for _, key := range []string{"amount", "direction", "description", "counterparty", "with", "method", "mode", "currency"} {
		kvKeys[key] = regexp.MustCompile(`(?i)\b` + key + `\s*[:=-]\s*([^\n]+)`)
	}
}

// keyValue returns the trimmed value of a "key: value" line, or "".
func keyValue(body, key string) string {
	re, ok := kvKeys[key]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// KeyValueRule parses plain "key: value" notification bodies. It is used for
// test senders and for issuers declared in a rule file.
type KeyValueRule struct {
	RuleID        string
	SenderAddress string
	Bank          string
	Currency      string
	DefaultMode   string
	Label         string
}

// NewTestEmailRule returns the rule for the hand-written test mailbox.
func NewTestEmailRule() *KeyValueRule {
	return &KeyValueRule{
		RuleID:        "timeformetostudy-test",
		SenderAddress: "timeformetostudy@gmail.com",
		Bank:          "Test",
		Currency:      DefaultCurrency,
		DefaultMode:   "Email Test",
		Label:         "Test transaction",
	}
}

func (r *KeyValueRule) ID() string     { return r.RuleID }
func (r *KeyValueRule) Sender() string { return r.SenderAddress }

func (r *KeyValueRule) Matches(email RawEmail) bool {
	return fromContains(email, r.SenderAddress)
}

// Extract requires a non-zero amount line. An explicit direction line wins;
// otherwise the subject decides and the default is outgoing.
func (r *KeyValueRule) Extract(email RawEmail) (Result, error) {
	body := email.Body

	number := strings.TrimPrefix(leadingNumber.FindString(keyValue(body, "amount")), "+")
	if number == "" {
		return Skipped(SkipMissingAmount), nil
	}
	amount, err := ParseAmount(number)
	if err != nil || amount.IsZero() {
		return Skipped(SkipMissingAmount), nil
	}
	amount = amount.Abs()

	var direction Direction
	switch strings.ToLower(keyValue(body, "direction")) {
	case string(DirectionIncoming):
		direction = DirectionIncoming
	case string(DirectionOutgoing):
		direction = DirectionOutgoing
	default:
		direction = DirectionOutgoing
		if incomingSubject.MatchString(email.Subject) {
			direction = DirectionIncoming
		}
	}

	unresolved := "Unknown recipient"
	if direction == DirectionIncoming {
		unresolved = "Unknown sender"
	}
	counterparty := FirstNonEmpty(keyValue(body, "counterparty"), keyValue(body, "with"), unresolved)
	from, to := Accounts(direction, counterparty)

	currency := NormalizeCurrency(r.Currency, DefaultCurrency)
	if fields := strings.Fields(keyValue(body, "currency")); len(fields) > 0 {
		currency = NormalizeCurrency(fields[0], currency)
	}

	return Parsed(ParsedTransaction{
		MessageID:     email.ID,
		Provider:      ProviderGmail,
		Bank:          r.Bank,
		Direction:     direction,
		Amount:        amount,
		Currency:      currency,
		Description:   FirstNonEmpty(keyValue(body, "description"), email.Subject, email.Snippet, r.Label, r.Bank+" transaction"),
		FromAccount:   from,
		ToAccount:     to,
		ModeOfPayment: FirstNonEmpty(keyValue(body, "method"), keyValue(body, "mode"), r.DefaultMode, "Email"),
		TransactedAt:  TransactedAt(email.InternalDate),
	}), nil
}
