package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/observability"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var logLevelFlag string

var rootCmd = &cobra.Command{
	Use:   "donewatch",
	Short: "Run an automation script when a task lands in a board's Done section",
	Long: `donewatch watches Markdown task boards in a notes vault. When a new
wiki-linked entry appears under the "## Done" heading of a monitored board,
it runs the configured script (AppleScript via osascript by default) with the
task title passed in as input, e.g. to log the task to a calendar.

Settings live in .donewatch.yaml under DONEWATCH_HOME or the current directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if LogLevel != nil && cmd.Flags().Changed("log-level") {
			LogLevel.Set(observability.ParseLevel(logLevelFlag))
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "donewatch %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
