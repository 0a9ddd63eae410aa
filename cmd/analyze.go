package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/chefscore-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/chefscore-cli/internal/config"
	"github.com/KaramelBytes/chefscore-cli/internal/isoweek"
	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/utils"
	"github.com/spf13/cobra"
)

// analyzeParams are the flags shared by analyze and analyze-batch.
type analyzeParams struct {
	Format    string
	Sort      string
	Dir       string
	Histogram string
	Buckets   int
	Top       int
	Pairs     int
	Sheet     string
	Delimiter string
	Week      string
}

var (
	ana           analyzeParams
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze one weekly CSV/XLSX export and print a clan report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		out, err := renderAnalysis(c, args[0], ana)
		if err != nil {
			return err
		}
		if anaOutputPath != "" {
			if dir := filepath.Dir(anaOutputPath); dir != "." {
				if err := utils.EnsureDir(dir); err != nil {
					return fmt.Errorf("ensure output dir: %w", err)
				}
			}
			if err := utils.SafeWriteFile(anaOutputPath, []byte(out)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

// ingestExport loads path, honoring an explicit XLSX sheet.
func ingestExport(path, sheet string, opt roster.Options) (*roster.Collection, error) {
	if sheet != "" && strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return roster.IngestXLSX(path, sheet, opt)
	}
	return roster.IngestFile(path, opt)
}

// renderAnalysis ingests one export and renders its report as markdown or JSON.
func renderAnalysis(c *cfgpkg.Global, path string, p analyzeParams) (string, error) {
	format := strings.ToLower(strings.TrimSpace(p.Format))
	if format != "" && format != "markdown" && format != "md" && format != "json" {
		return "", fmt.Errorf("unsupported --format: %s (use markdown or json)", p.Format)
	}
	dir, err := ranking.ParseDirection(p.Dir)
	if err != nil {
		return "", err
	}
	ropt, err := rosterOptions(c, p.Delimiter)
	if err != nil {
		return "", err
	}
	col, err := ingestExport(path, p.Sheet, ropt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if p.Sort != "" {
		col = col.Sorted(ranking.Spec{Column: p.Sort, Direction: dir}, rankingOptions(c))
	}

	sopt := snapshotOptions(c)
	if p.Histogram != "" {
		sopt.HistogramColumn = p.Histogram
	}
	if p.Buckets > 0 {
		sopt.Buckets = p.Buckets
	}
	rep := analysis.NewReport(filepath.Base(path), col, sopt)
	if p.Week != "" {
		id, err := isoweek.ParseID(p.Week)
		if err != nil {
			return "", err
		}
		rep.Week = id.String()
	}
	if p.Top > 0 && len(rep.Ranking) > p.Top {
		rep.Ranking = rep.Ranking[:p.Top]
	}
	rep.TopPairs = p.Pairs

	if format == "json" {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return rep.Markdown(), nil
}

func bindAnalyzeFlags(cmd *cobra.Command, p *analyzeParams) {
	cmd.Flags().StringVar(&p.Format, "format", "markdown", "output format: markdown|json")
	cmd.Flags().StringVar(&p.Sort, "sort", roster.ColTotalScore, "column to rank players by (empty keeps file order)")
	cmd.Flags().StringVar(&p.Dir, "dir", "desc", "sort direction: asc|desc")
	cmd.Flags().StringVar(&p.Histogram, "histogram", "", "column to bin in the histogram (default from config)")
	cmd.Flags().IntVar(&p.Buckets, "buckets", 0, "histogram bucket count (default from config)")
	cmd.Flags().IntVar(&p.Top, "top", 0, "limit the ranking to the first N players (0 = all)")
	cmd.Flags().IntVar(&p.Pairs, "pairs", 0, "number of correlation pairs to list (0 = 10)")
	cmd.Flags().StringVar(&p.Sheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	cmd.Flags().StringVar(&p.Delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto-detect if omitted)")
	cmd.Flags().StringVar(&p.Week, "week", "", "ISO week label for the report, e.g. 2024-W05")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	bindAnalyzeFlags(analyzeCmd, &ana)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
}
