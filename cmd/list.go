package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/chefscore-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listDataset string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets, or the weeks stored in one with -d",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if listDataset == "" {
			root, err := datasetsRoot(c)
			if err != nil {
				return err
			}
			dirs, err := os.ReadDir(root)
			if err != nil {
				return err
			}
			found := false
			for _, e := range dirs {
				if !e.IsDir() {
					continue
				}
				if _, err := os.Stat(filepath.Join(root, e.Name(), utils.DatasetFileName)); err == nil {
					fmt.Fprintf(w, "- %s\n", e.Name())
					found = true
				}
			}
			if !found {
				fmt.Fprintln(w, "(no datasets)")
			}
			return nil
		}

		d, err := loadDataset(c, listDataset)
		if err != nil {
			return err
		}
		weeks := d.List()
		if len(weeks) == 0 {
			fmt.Fprintln(w, "(no weeks)")
			return nil
		}
		for _, e := range weeks {
			fmt.Fprintf(w, "- %s: %d players, %d skipped (%s)\n", e.Week, e.Players, e.Rejected, e.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listDataset, "dataset", "d", "", "dataset whose weeks to list")
}
