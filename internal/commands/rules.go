package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRulesCommand(registry registryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List registered rules in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSENDER")
			for _, rule := range reg.Rules() {
				fmt.Fprintf(w, "%s\t%s\n", rule.ID(), rule.Sender())
			}
			return w.Flush()
		},
	}
}

func newLookupCommand(registry registryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <sender>",
		Short: "Show which rule handles a sender address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}

			rule, ok := reg.LookupBySender(args[0])
			if !ok {
				return fmt.Errorf("no rule handles %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rule.ID(), rule.Sender())
			return nil
		},
	}
}
