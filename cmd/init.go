package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/chefscore-cli/internal/dataset"
	"github.com/KaramelBytes/chefscore-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init <dataset-name>",
	Short: "Initialize a new dataset of weekly exports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		name := args[0]
		dir, err := resolveDatasetDir(c, name)
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing dataset.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(dir, utils.DatasetFileName)); err == nil {
				return fmt.Errorf("dataset already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect dataset directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize dataset", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat dataset directory: %w", err)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		d := dataset.New(name, initDescription, dir)
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dataset initialized: %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDescription, "desc", "", "dataset description")
}
