// Package commands implements the spendsync diagnostics CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"spendsync/internal/parser"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var rulesFile string

	rootCmd := &cobra.Command{
		Use:   "spendsync",
		Short: "Inspect how bank notification emails are parsed",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "YAML file of extra key-value rules")

	registry := func() (*parser.Registry, error) {
		reg := parser.DefaultRegistry()
		if rulesFile != "" {
			if _, err := parser.LoadRuleFile(reg, rulesFile); err != nil {
				return nil, fmt.Errorf("loading rules: %w", err)
			}
		}
		return reg, nil
	}

	rootCmd.AddCommand(newParseCommand(registry))
	rootCmd.AddCommand(newRulesCommand(registry))
	rootCmd.AddCommand(newLookupCommand(registry))

	return rootCmd
}

type registryFunc func() (*parser.Registry, error)
