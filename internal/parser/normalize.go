package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// clock is the fallback time source for emails with an unusable internal date.
var clock = time.Now

// namePattern captures a counterparty, merchant or payment-mode label.
const namePattern = `([A-Za-z0-9 .'&-]+)`

// MaxAmount is the first amount too large for the transactions.amount column.
var MaxAmount = decimal.New(1, 12)

// clauseBoundary marks the start of the next clause in notification prose,
// e.g. "to John Tan via PayNow" stops the counterparty at "via". "on" and "at"
// only end a label when a date or time follows, so names such as "Tan Ah To"
// or "Lim On Wah" survive.
var clauseBoundary = regexp.MustCompile(`(?i)\s+(?:(?:via|using|reference|ref)\b|(?:on|at)\s+(?:\d|(?:` + dateWord + `)\b))`)

const dateWord = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?|` +
	`mon(?:day)?|tue(?:s|sday)?|wed(?:nesday)?|thu(?:rs|rsday)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?|today|yesterday`

// AmountPattern returns a pattern matching the first amount prefixed by currency.
func AmountPattern(currency string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(currency) + `\s*([\d,]+\.?\d{0,2})`)
}

// LabelPattern returns a pattern capturing the label that follows keyword.
func LabelPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + keyword + `\s+` + namePattern)
}

// KeywordPattern returns a case-insensitive pattern matching any of the keywords
// anywhere in the text.
func KeywordPattern(keywords ...string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}

// ParseAmount converts formatted currency text such as "1,234.56" into a decimal.
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", text, err)
	}
	return d, nil
}

// MatchAmount returns the first amount captured by re in body.
// The second return value is false when no usable amount is present.
func MatchAmount(re *regexp.Regexp, body string) (decimal.Decimal, bool) {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return decimal.Zero, false
	}
	d, err := ParseAmount(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// MatchLabel returns the label captured by re, cut at the next clause and
// trimmed of trailing punctuation. It returns "" when nothing usable matched.
func MatchLabel(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return CleanLabel(m[1])
}

// CleanLabel cuts s at the first clause keyword and strips trailing punctuation.
func CleanLabel(s string) string {
	if loc := clauseBoundary.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimRight(strings.TrimSpace(s), " .,;:-'")
}

// NormalizeCurrency returns code as an upper-case ISO 4217 code, or fallback
// when code is not one.
func NormalizeCurrency(code, fallback string) string {
	u, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return fallback
	}
	return u.String()
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Accounts places the user and the counterparty on the correct sides of a transfer.
func Accounts(direction Direction, counterparty string) (from, to string) {
	if counterparty == "" {
		counterparty = UnknownAccount
	}
	if direction == DirectionIncoming {
		return counterparty, SelfAccount
	}
	return SelfAccount, counterparty
}

// TransactedAt converts an epoch-millis internal date into a UTC instant.
// An unparseable value falls back to the current time.
func TransactedAt(internalDate string) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(internalDate), 10, 64)
	if err != nil || ms <= 0 {
		return clock().UTC()
	}
	return time.UnixMilli(ms).UTC()
}

// FormatAmount renders an amount with its currency, e.g. "SGD 50.00".
func FormatAmount(currency string, amount decimal.Decimal) string {
	return currency + " " + amount.StringFixed(2)
}
