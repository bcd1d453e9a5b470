package parser

import "regexp"

const posbSender = "ibanking.alert@dbs.com"

var (
	posbAmount    = AmountPattern("SGD")
	posbIncoming  = KeywordPattern("received", "incoming")
	posbOutgoing  = KeywordPattern("transferred", "transfer", "debited", "paid")
	posbFrom      = LabelPattern("from")
	posbTo        = LabelPattern("to")
	posbVia       = LabelPattern("via")
	posbReference = regexp.MustCompile(`(?i)Reference:\s*` + namePattern)
)

// POSBRule parses DBS/POSB iBanking transfer alerts.
type POSBRule struct{}

// NewPOSBRule returns the POSB alert rule.
func NewPOSBRule() *POSBRule { return &POSBRule{} }

func (r *POSBRule) ID() string     { return "posb" }
func (r *POSBRule) Sender() string { return posbSender }

func (r *POSBRule) Matches(email RawEmail) bool {
	return fromContains(email, posbSender)
}

// Extract reads a POSB alert. A body with both incoming and outgoing keywords
// is outgoing.
func (r *POSBRule) Extract(email RawEmail) (Result, error) {
	body := email.Body
	amount, _ := MatchAmount(posbAmount, body)

	direction := DirectionOutgoing
	if posbIncoming.MatchString(body) && !posbOutgoing.MatchString(body) {
		direction = DirectionIncoming
	}

	var counterparty string
	if direction == DirectionIncoming {
		counterparty = MatchLabel(posbFrom, body)
	} else {
		counterparty = MatchLabel(posbTo, body)
	}
	from, to := Accounts(direction, counterparty)

	return Parsed(ParsedTransaction{
		MessageID:     email.ID,
		Provider:      ProviderGmail,
		Bank:          "POSB",
		Direction:     direction,
		Amount:        amount,
		Currency:      "SGD",
		Description:   FirstNonEmpty(MatchLabel(posbReference, body), email.Subject, email.Snippet, "POSB Transaction"),
		FromAccount:   from,
		ToAccount:     to,
		ModeOfPayment: FirstNonEmpty(MatchLabel(posbVia, body), "Funds Transfer"),
		TransactedAt:  TransactedAt(email.InternalDate),
	}), nil
}
