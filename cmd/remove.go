package cmd

import (
	"fmt"

	"github.com/KaramelBytes/chefscore-cli/internal/isoweek"
	"github.com/spf13/cobra"
)

var (
	removeDataset string
)

var removeCmd = &cobra.Command{
	Use:   "remove <week>",
	Short: "Remove a stored week from a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		id, err := isoweek.ParseID(args[0])
		if err != nil {
			return err
		}
		d, err := loadDataset(c, removeDataset)
		if err != nil {
			return err
		}
		if err := d.RemoveWeek(id.String()); err != nil {
			return err
		}
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed week %s from %s\n", id, d.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVarP(&removeDataset, "dataset", "d", "", "dataset name (default: the dataset enclosing the working directory)")
}
