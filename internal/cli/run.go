package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

var runTitle string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured script",
	Long: `Run the configured default script once, independent of file watching,
and print its output. A failing script makes the command exit non-zero.

With --title the script receives the same input a dispatched task would,
which is handy for testing a script before enabling the trigger.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Action == nil {
			return fmt.Errorf("script action not initialized")
		}

		var payload *models.DispatchPayload
		if runTitle != "" {
			p := models.NewDispatchPayload(models.TaskRecord{Title: runTitle})
			payload = &p
		}

		out, err := Action.Run(cmdContext(cmd), payload)
		if Recorder != nil {
			Recorder.RecordScriptRun(out, err)
		}
		if out != "" {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&runTitle, "title", "", "pass this task title to the script as input")
	rootCmd.AddCommand(runCmd)
}
