package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"github.com/spf13/cobra"
)

var (
	fetchDataset   string
	fetchURL       string
	fetchDelimiter string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <week>",
	Short: "Download a weekly export from the configured source URL into a dataset",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		var arg string
		if len(args) == 1 {
			arg = args[0]
		}
		week, err := weekOrCurrent(arg)
		if err != nil {
			return err
		}
		tmpl := fetchURL
		if tmpl == "" {
			tmpl = c.SourceURL
		}
		if tmpl == "" {
			return fmt.Errorf("no source URL: pass --url or set source_url (must contain %s)", transport.WeekPlaceholder)
		}
		src, err := transport.NewHTTPSource(tmpl, httpOptions(c))
		if err != nil {
			return err
		}
		d, err := loadDataset(c, fetchDataset)
		if err != nil {
			return err
		}
		ropt, err := rosterOptions(c, fetchDelimiter)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		data, err := src.Fetch(ctx, week.String())
		if err != nil {
			return err
		}
		e, err := d.AddWeekData(week, data, src.URL(week.String()), ropt)
		if err != nil {
			return err
		}
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Week %s fetched into %s (%d players)\n", e.Week, d.Name, e.Players)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchDataset, "dataset", "d", "", "dataset name (default: the dataset enclosing the working directory)")
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "URL template containing {week} (overrides source_url)")
	fetchCmd.Flags().StringVar(&fetchDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto-detect if omitted)")
}
