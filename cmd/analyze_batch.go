package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/KaramelBytes/chefscore-cli/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	ab          analyzeParams
	abOutputDir string
	abJobs      int
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze several weekly exports concurrently, reporting in input order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}

		jobs := abJobs
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}
		reports := make([]string, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				out, err := renderAnalysis(c, path, ab)
				if err != nil {
					return err
				}
				reports[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		total := len(files)
		ext := ".report.md"
		if strings.EqualFold(ab.Format, "json") {
			ext = ".report.json"
		}
		if abOutputDir != "" {
			if err := utils.EnsureDir(abOutputDir); err != nil {
				return fmt.Errorf("ensure output dir: %w", err)
			}
		}
		for i, path := range files {
			if abOutputDir == "" {
				if !abQuiet {
					fmt.Fprintf(w, "[%d/%d] %s\n", i+1, total, filepath.Base(path))
				}
				fmt.Fprintln(w, reports[i])
				continue
			}
			outFile := uniqueReportPath(abOutputDir, path, ext)
			if err := utils.SafeWriteFile(outFile, []byte(reports[i])); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(w, "[%d/%d] ✓ Wrote %s\n", i+1, total, outFile)
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates, sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// uniqueReportPath avoids overwriting reports for inputs sharing a basename.
func uniqueReportPath(dir, input, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	cand := filepath.Join(dir, base+ext)
	for idx := 2; ; idx++ {
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
		cand = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
	}
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	bindAnalyzeFlags(analyzeBatchCmd, &ab)
	analyzeBatchCmd.Flags().StringVar(&abOutputDir, "output-dir", "", "write one report per input into this directory")
	analyzeBatchCmd.Flags().IntVar(&abJobs, "jobs", 0, "concurrent analyses (default: number of CPUs)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress output")
}
