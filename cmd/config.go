package cmd

import (
	"fmt"
	"strings"

	cfgpkg "github.com/KaramelBytes/chefscore-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ChefScore configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "datasets_dir: %s\n", c.DatasetsDir)
		fmt.Fprintf(w, "language: %s\n", c.Language)
		fmt.Fprintf(w, "delimiter: %q\n", c.Delimiter)
		fmt.Fprintf(w, "thousands_separator: %q\n", c.ThousandsSeparator)
		fmt.Fprintf(w, "decimal_separator: %q\n", c.DecimalSeparator)
		fmt.Fprintf(w, "histogram_buckets: %d\n", c.HistogramBuckets)
		fmt.Fprintf(w, "histogram_column: %s\n", c.HistogramColumn)
		if c.SourceURL != "" {
			fmt.Fprintf(w, "source_url: %s\n", c.SourceURL)
		}
		fmt.Fprintf(w, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Fprintf(w, "retry_max_attempts: %d\n", c.RetryMaxAttempts)
		fmt.Fprintf(w, "retry_base_delay_ms: %d\n", c.RetryBaseDelayMs)
		fmt.Fprintf(w, "retry_max_delay_ms: %d\n", c.RetryMaxDelayMs)
		fmt.Fprintf(w, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(w, "allowed_origins: %s\n", strings.Join(c.AllowedOrigins, ","))
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(w, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Set a config value and save to disk. Keys: " + strings.Join(cfgpkg.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
