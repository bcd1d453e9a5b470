package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"spendsync/internal/parser"
)

// parseOutput is printed for each email.
type parseOutput struct {
	ID          string                    `json:"id"`
	RuleID      string                    `json:"rule_id,omitempty"`
	Transaction *parser.ParsedTransaction `json:"transaction,omitempty"`
	Skipped     string                    `json:"skipped,omitempty"`
}

func newParseCommand(registry registryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <email.json|->",
		Short: "Parse one email or a JSON array of emails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			emails, err := decodeEmails(data)
			if err != nil {
				return err
			}

			out := make([]parseOutput, 0, len(emails))
			for _, email := range emails {
				res := reg.Dispatch(email)
				o := parseOutput{ID: email.ID, RuleID: res.RuleID}
				if res.OK() {
					tx := res.Transaction
					o.Transaction = &tx
				} else {
					o.Skipped = string(res.Skip)
				}
				out = append(out, o)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// decodeEmails accepts a single email object or an array of them.
func decodeEmails(data []byte) ([]parser.RawEmail, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var emails []parser.RawEmail
		if err := json.Unmarshal(trimmed, &emails); err != nil {
			return nil, fmt.Errorf("decoding emails: %w", err)
		}
		return emails, nil
	}
	var email parser.RawEmail
	if err := json.Unmarshal(trimmed, &email); err != nil {
		return nil, fmt.Errorf("decoding email: %w", err)
	}
	return []parser.RawEmail{email}, nil
}
