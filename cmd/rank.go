package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	rankSort      string
	rankDir       string
	rankTop       int
	rankSheet     string
	rankDelimiter string
	rankJSON      bool
)

var rankCmd = &cobra.Command{
	Use:   "rank <file>",
	Short: "Print the players of an export ordered by a column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		dir, err := ranking.ParseDirection(rankDir)
		if err != nil {
			return err
		}
		ropt, err := rosterOptions(c, rankDelimiter)
		if err != nil {
			return err
		}
		col, err := ingestExport(args[0], rankSheet, ropt)
		if err != nil {
			return err
		}
		if rankSort != "" && !col.HasColumn(rankSort) && col.Len() > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Column %q not found; keeping file order\n", rankSort)
		}
		col = col.Sorted(ranking.Spec{Column: rankSort, Direction: dir}, rankingOptions(c))
		recs := col.Records()
		if rankTop > 0 && len(recs) > rankTop {
			recs = recs[:rankTop]
		}
		if rankJSON {
			b, err := utils.PrettyJSON(recs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		return writeRanking(cmd.OutOrStdout(), col.CategoryKeys(), recs)
	},
}

func writeRanking(w io.Writer, cats []string, recs []roster.PlayerRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"#", roster.ColPlayer, roster.ColTotalScore, roster.ColChestCount}, cats...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i, r := range recs {
		row := []string{strconv.Itoa(i + 1), r.Name, num(r.TotalScore), num(r.ChestCount)}
		for _, k := range cats {
			row = append(row, num(r.Categories[k]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVar(&rankSort, "sort", roster.ColTotalScore, "column to order by")
	rankCmd.Flags().StringVar(&rankDir, "dir", "desc", "sort direction: asc|desc")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "show only the first N players (0 = all)")
	rankCmd.Flags().StringVar(&rankSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	rankCmd.Flags().StringVar(&rankDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto-detect if omitted)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print records as JSON")
}
