package parser

import "regexp"

const uobSender = "alert@uobgroup.com"

var (
	uobIssuer    = regexp.MustCompile(`(?i)uob`)
	uobAmount    = AmountPattern("SGD")
	uobIncoming  = KeywordPattern("received", "credit")
	uobOutgoing  = KeywordPattern("spent", "charged", "debit", "purchase", "paid")
	uobMerchant  = LabelPattern("at")
	uobFrom      = LabelPattern("from")
	uobUsing     = LabelPattern("using")
	uobReference = regexp.MustCompile(`(?i)Reference\s*No\.?\s*[:\-]?\s*([A-Za-z0-9 -]+)`)
)

// UOBRule parses UOB card and account alerts. Any sender mentioning UOB matches,
// since UOB sends from several alert addresses.
type UOBRule struct{}

// NewUOBRule returns the UOB alert rule.
func NewUOBRule() *UOBRule { return &UOBRule{} }

func (r *UOBRule) ID() string     { return "uob" }
func (r *UOBRule) Sender() string { return uobSender }

func (r *UOBRule) Matches(email RawEmail) bool {
	return uobIssuer.MatchString(email.From)
}

// Extract reads a UOB alert. Outgoing keywords win over incoming ones, so a
// "credit card" purchase alert stays outgoing.
func (r *UOBRule) Extract(email RawEmail) (Result, error) {
	body := email.Body
	amount, _ := MatchAmount(uobAmount, body)

	direction := DirectionOutgoing
	if uobIncoming.MatchString(body) && !uobOutgoing.MatchString(body) {
		direction = DirectionIncoming
	}

	merchant := MatchLabel(uobMerchant, body)
	counterparty := merchant
	if direction == DirectionIncoming {
		counterparty = MatchLabel(uobFrom, body)
	}
	from, to := Accounts(direction, counterparty)

	return Parsed(ParsedTransaction{
		MessageID:     email.ID,
		Provider:      ProviderGmail,
		Bank:          "UOB",
		Direction:     direction,
		Amount:        amount,
		Currency:      "SGD",
		Description:   FirstNonEmpty(MatchLabel(uobReference, body), merchant, email.Subject, email.Snippet, "UOB Transaction"),
		FromAccount:   from,
		ToAccount:     to,
		ModeOfPayment: FirstNonEmpty(MatchLabel(uobUsing, body), "Card"),
		TransactedAt:  TransactedAt(email.InternalDate),
	}), nil
}
