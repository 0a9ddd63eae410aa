package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/chefscore-cli/internal/isoweek"
	"github.com/spf13/cobra"
)

var (
	addDataset   string
	addWeek      string
	addDelimiter string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a weekly export to a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		week, err := weekOrCurrent(addWeek)
		if err != nil {
			return err
		}
		d, err := loadDataset(c, addDataset)
		if err != nil {
			return err
		}
		ropt, err := rosterOptions(c, addDelimiter)
		if err != nil {
			return err
		}
		e, err := d.AddWeek(args[0], week, ropt)
		if err != nil {
			return err
		}
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Week %s added from %s (%d players", e.Week, filepath.Base(args[0]), e.Players)
		if e.Rejected > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), ", %d rows skipped", e.Rejected)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ")")
		return nil
	},
}

// weekOrCurrent parses s, defaulting to the week containing today.
func weekOrCurrent(s string) (isoweek.ID, error) {
	if s == "" {
		return isoweek.IDFor(time.Now()), nil
	}
	return isoweek.ParseID(s)
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addDataset, "dataset", "d", "", "dataset name (default: the dataset enclosing the working directory)")
	addCmd.Flags().StringVarP(&addWeek, "week", "w", "", "ISO week of the export, e.g. 2024-W05 (default current week)")
	addCmd.Flags().StringVar(&addDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto-detect if omitted)")
}
