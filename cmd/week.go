package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/KaramelBytes/chefscore-cli/internal/isoweek"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "ISO week helpers",
}

var weekRangeCmd = &cobra.Command{
	Use:   "range <week> <year>",
	Short: "Print the Monday..Sunday dates of an ISO week",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		week, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid week: %s", args[0])
		}
		year, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid year: %s", args[1])
		}
		rng, err := isoweek.WeekDateRange(week, year)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s .. %s\n",
			isoweek.ID{Year: year, Week: week}, rng.Start.Format(dateLayout), rng.End.Format(dateLayout))
		return nil
	},
}

var weekOfCmd = &cobra.Command{
	Use:   "of [YYYY-MM-DD]",
	Short: "Print the ISO week containing a date (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := time.Now()
		if len(args) == 1 {
			d, err := time.Parse(dateLayout, args[0])
			if err != nil {
				return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", args[0])
			}
			t = d
		}
		id := isoweek.IDFor(t)
		rng, err := id.Range()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s .. %s\n", id, rng.Start.Format(dateLayout), rng.End.Format(dateLayout))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weekCmd)
	weekCmd.AddCommand(weekRangeCmd)
	weekCmd.AddCommand(weekOfCmd)
}
