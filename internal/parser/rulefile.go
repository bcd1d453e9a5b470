package parser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleFile declares additional key-value rules.
//
//	rules:
//	  - id: acme-bank
//	    sender: alerts@acmebank.example
//	    bank: ACME
//	    currency: USD
//	    default_mode: Debit Card
type RuleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one declared rule.
type RuleSpec struct {
	ID          string `yaml:"id"`
	Sender      string `yaml:"sender"`
	Bank        string `yaml:"bank"`
	Currency    string `yaml:"currency"`
	DefaultMode string `yaml:"default_mode"`
	Label       string `yaml:"label"`
}

// ParseRuleFile decodes and validates a rule file.
func ParseRuleFile(data []byte) ([]Rule, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, spec := range file.Rules {
		if spec.ID == "" || spec.Sender == "" {
			return nil, fmt.Errorf("rule %d: id and sender are required", i)
		}
		code := FirstNonEmpty(spec.Currency, DefaultCurrency)
		if NormalizeCurrency(code, "") == "" {
			return nil, fmt.Errorf("rule %d: invalid currency %q", i, spec.Currency)
		}
		bank := FirstNonEmpty(spec.Bank, spec.ID)
		rules = append(rules, &KeyValueRule{
			RuleID:        spec.ID,
			SenderAddress: strings.ToLower(spec.Sender),
			Bank:          bank,
			Currency:      NormalizeCurrency(code, DefaultCurrency),
			DefaultMode:   FirstNonEmpty(spec.DefaultMode, "Email"),
			Label:         FirstNonEmpty(spec.Label, bank+" Transaction"),
		})
	}
	return rules, nil
}

// LoadRuleFile reads a rule file and registers its rules after the built-ins.
// It returns the number of rules added.
func LoadRuleFile(reg *Registry, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading rule file: %w", err)
	}
	rules, err := ParseRuleFile(data)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, rule := range rules {
		if reg.Register(rule) {
			added++
		}
	}
	return added, nil
}
