package parser

import (
	"fmt"
	"strings"
	"sync"

	"spendsync/internal/logger"
)

// Registry holds rules in registration order. The first registered rule that
// matches an email is the only one asked to extract it.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
	ids   map[string]struct{}
}

// NewRegistry creates a registry holding rules in the given order.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{ids: make(map[string]struct{})}
	for _, rule := range rules {
		r.Register(rule)
	}
	return r
}

// DefaultRegistry returns a registry with all built-in rules.
func DefaultRegistry() *Registry {
	return NewRegistry(NewPOSBRule(), NewUOBRule(), NewTestEmailRule())
}

// Register appends rule. Registering an id that is already present is a no-op
// and reports false.
func (r *Registry) Register(rule Rule) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[rule.ID()]; ok {
		return false
	}
	r.ids[rule.ID()] = struct{}{}
	r.rules = append(r.rules, rule)
	return true
}

// Rules returns a snapshot of the registered rules in priority order.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Dispatch extracts email with the first matching rule. A rule that fails
// during extraction yields SkipRuleFault and an amount the store cannot hold
// yields SkipAmountOutOfRange; dispatch never falls through to
// later rules once one has matched.
func (r *Registry) Dispatch(email RawEmail) Result {
	for _, rule := range r.Rules() {
		if !safeMatches(rule, email) {
			continue
		}
		res, err := safeExtract(rule, email)
		if err != nil {
			logger.Get().Warnw("parser rule failed",
				"rule", rule.ID(),
				"message_id", email.ID,
				"error", err,
			)
			res = Skipped(SkipRuleFault)
		}
		if res.OK() && res.Transaction.Amount.Abs().GreaterThanOrEqual(MaxAmount) {
			logger.Get().Warnw("parsed amount out of range",
				"rule", rule.ID(),
				"message_id", email.ID,
				"amount", res.Transaction.Amount.String(),
			)
			res = Skipped(SkipAmountOutOfRange)
		}
		res.RuleID = rule.ID()
		return res
	}
	return Skipped(SkipNoMatch)
}

// LookupBySender returns the first rule whose sender signature appears in sender.
func (r *Registry) LookupBySender(sender string) (Rule, bool) {
	if sender == "" {
		return nil, false
	}
	lowered := strings.ToLower(sender)
	for _, rule := range r.Rules() {
		sig := strings.ToLower(rule.Sender())
		if sig != "" && strings.Contains(lowered, sig) {
			return rule, true
		}
	}
	return nil, false
}

func safeMatches(rule Rule, email RawEmail) (matched bool) {
	defer func() {
		if p := recover(); p != nil {
			logger.Get().Warnw("parser rule match panicked", "rule", rule.ID(), "message_id", email.ID, "panic", p)
			matched = false
		}
	}()
	return rule.Matches(email)
}

func safeExtract(rule Rule, email RawEmail) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in rule %s: %v", rule.ID(), p)
		}
	}()
	return rule.Extract(email)
}
