package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/macrodesk/riskengine/journal"
)

var eventsCmd = &cobra.Command{
	Use:   "events <YYYY-MM-DD>",
	Short: "List journaled risk events for a day",
	Long: `Query the SQLite journal for circuit-breaker and loss-tracker events
recorded on a given day.

Example:
  riskmon events 2026-08-21 --db risk.sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

var eventsDBPath string

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVarP(&eventsDBPath, "db", "d", "./risk.sqlite", "path to SQLite journal DB")
}

func runEvents(cmd *cobra.Command, args []string) error {
	day, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", args[0], err)
	}

	j, err := journal.NewSQLite(eventsDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	events, err := j.ListEventsBetween(day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	if len(events) == 0 {
		fmt.Printf("No events on %s\n", args[0])
		return nil
	}

	for _, ev := range events {
		key := ""
		if ev.Key != "" {
			key = " key=" + ev.Key
		}
		fmt.Printf("%s  %-18s %s -> %s  drawdown %.2f%%%s  %s\n",
			ev.Time.Format(time.RFC3339), ev.Type, ev.From, ev.To, ev.Drawdown*100, key, ev.Action)
	}
	return nil
}
