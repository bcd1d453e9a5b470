package parser

import "strings"

// Rule recognises and extracts one issuer's notification format.
type Rule interface {
	// ID is the rule's unique short identifier.
	ID() string
	// Sender is the address signature identifying the issuer.
	Sender() string
	// Matches reports whether the email comes from this rule's issuer.
	// It must not panic on malformed input.
	Matches(email RawEmail) bool
	// Extract derives a transaction from a matching email. Sub-extractions that
	// fail fall back to documented defaults; a Skipped result means the email
	// carries nothing to import.
	Extract(email RawEmail) (Result, error)
}

func fromContains(email RawEmail, signature string) bool {
	if signature == "" {
		return false
	}
	return strings.Contains(strings.ToLower(email.From), strings.ToLower(signature))
}
