package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/spf13/cobra"
)

var (
	rulesSort      string
	rulesDir       string
	rulesDelimiter string
)

var rulesCmd = &cobra.Command{
	Use:   "rules <file>",
	Short: "Print a chest score-rule table, optionally sorted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		dir, err := ranking.ParseDirection(rulesDir)
		if err != nil {
			return err
		}
		ropt, err := rosterOptions(c, rulesDelimiter)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open rules: %w", err)
		}
		defer f.Close()
		rules, err := roster.IngestRules(f, ropt)
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no rules)")
			return nil
		}
		rules = ranking.Sort(rules, ranking.Spec{Column: rulesSort, Direction: dir}, rankingOptions(c))

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", roster.RuleColType, roster.RuleColLevel, roster.RuleColPoints)
		for _, r := range rules {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Type, num(r.Level), num(r.Points))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesSort, "sort", "", "column to order by: TYPE|LEVEL|POINTS (empty keeps file order)")
	rulesCmd.Flags().StringVar(&rulesDir, "dir", "asc", "sort direction: asc|desc")
	rulesCmd.Flags().StringVar(&rulesDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto-detect if omitted)")
}
