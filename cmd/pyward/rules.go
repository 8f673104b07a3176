package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aideng18/PyWard/internal/rules"
	"github.com/aideng18/PyWard/internal/rulesdsl"
)

func newRulesCmd() *cobra.Command {
	var rulesPack string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesPack == "" {
				rulesPack = appCfg.Analysis.RulesPack
			}
			if rulesPack != "" {
				if _, err := rulesdsl.LoadAndRegister(rulesPack); err != nil {
					return err
				}
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tSEVERITY\tSUMMARY")
			for _, r := range rules.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Category, r.Severity, r.Summary)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&rulesPack, "rules-pack", "", "YAML rule pack to include")
	return cmd
}
