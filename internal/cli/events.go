package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/observability"
)

var (
	eventsType  string
	eventsPath  string
	eventsSince string
	eventsLimit int
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print entries from the event log",
	Long: `Print handled change notifications and script runs from
.donewatch_events.jsonl, oldest first.

Types: change.dispatched, change.dispatch_failed, change.read_failed,
change.no_growth, change.disabled, script.run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not available")
		}

		filter := observability.EventFilter{
			Type:  eventsType,
			Path:  eventsPath,
			Limit: eventsLimit,
		}
		if eventsSince != "" {
			window, err := parseSince(eventsSince)
			if err != nil {
				return err
			}
			since := time.Now().UTC().Add(-window)
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			enc := json.NewEncoder(out)
			for _, e := range events {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		}

		if len(events) == 0 {
			fmt.Fprintln(out, "No events.")
			return nil
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %-5s %-23s %s", e.Time.Local().Format("2006-01-02 15:04:05"), e.Level, e.Type, e.Path)
			if title, ok := e.Data["title"].(string); ok {
				line += "  " + title
			}
			if msg, ok := e.Data["error"].(string); ok {
				line += "  error: " + msg
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "only events of this type")
	eventsCmd.Flags().StringVar(&eventsPath, "path", "", "only events for this target file")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "only events newer than this window (e.g. 24h, 7d)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "show at most this many of the newest events (0 for all)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print raw JSON lines")
	rootCmd.AddCommand(eventsCmd)
}
