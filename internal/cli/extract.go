package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/core"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the entries of a board's Done section",
	Long: `Read a board and print the wiki-linked entries found under its
"## Done" heading, one per line, in document order. The file does not need
to be a target.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reader == nil {
			return fmt.Errorf("file reader not initialized")
		}

		text, err := Reader.ReadFile(cmdContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("extract %s: %w", args[0], err)
		}

		sec := core.ExtractSection(text, models.DoneHeading)
		out := cmd.OutOrStdout()
		if !sec.Found {
			fmt.Fprintf(out, "No %q section in %s.\n", models.DoneHeading, args[0])
			return nil
		}
		if len(sec.Tasks) == 0 {
			fmt.Fprintln(out, "Done section is empty.")
			return nil
		}
		for i, t := range sec.Tasks {
			fmt.Fprintf(out, "%3d  %s\n", i+1, t.Title)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Handle one change notification for a file",
	Long: `Run a single detection cycle for a file, exactly as the watcher would
after a modification, and print the outcome. Useful from editor save hooks
when a long-running watcher is not wanted.

The observed Done sections are kept in .donewatch_state.yaml between check
invocations, so repeated checks of an unchanged board do not dispatch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Detector == nil {
			return fmt.Errorf("detector not initialized")
		}

		if StateStore != nil {
			states, err := StateStore.LoadState()
			if err != nil {
				return fmt.Errorf("check %s: %w", args[0], err)
			}
			Detector.State().Restore(states)
		}

		path := args[0]
		if Settings != nil {
			path = normalizeTarget(vaultPath(Settings.Current().VaultPath), path)
		}
		result := Detector.HandleChange(cmdContext(cmd), path)

		if StateStore != nil {
			if err := StateStore.SaveState(Detector.State().Snapshot()); err != nil {
				return fmt.Errorf("check %s: %w", args[0], err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s (previous %d, current %d)\n", result.Path, result.Outcome, result.Previous, result.Current)
		if result.Dispatched != nil {
			fmt.Fprintf(out, "dispatched: %s\n", result.Dispatched.Title)
		}
		if result.Output != "" {
			fmt.Fprintln(out, result.Output)
		}
		if result.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", result.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(checkCmd)
}
