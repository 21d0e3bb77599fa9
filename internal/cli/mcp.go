package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/core"
	dwmcp "github.com/valter-silva-au/donewatch/internal/mcp"
)

var mcpReadOnly bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose boards and dispatch history over MCP",
	Long: `Serve donewatch to MCP (Model Context Protocol) clients such as AI
assistants. The protocol runs on stdin/stdout, so logs go to stderr.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP on stdio until the client disconnects",
	Long: `Serve MCP on stdio until the client disconnects or the process is
interrupted.

With --read-only the run_script tool is not offered, so a client can read
boards and history but never start the automation script.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newMCPServer()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cliLogger().Info("mcp server starting", "tools", srv.Tools(), "read_only", mcpReadOnly)
		if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp serve: %w", err)
		}
		return nil
	},
}

var mcpToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools 'mcp serve' would offer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newMCPServer()
		if err != nil {
			return err
		}
		for _, name := range srv.Tools() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func newMCPServer() (*dwmcp.Server, error) {
	if Settings == nil || Reader == nil {
		return nil, fmt.Errorf("services not initialized")
	}
	var action core.ActionRunner
	if !mcpReadOnly && Action != nil {
		action = Action
	}
	return dwmcp.NewServer(Settings, Reader, action, EventLog, appVersion), nil
}

func init() {
	mcpCmd.PersistentFlags().BoolVar(&mcpReadOnly, "read-only", false, "do not offer the run_script tool")
	mcpCmd.AddCommand(mcpServeCmd, mcpToolsCmd)
	rootCmd.AddCommand(mcpCmd)
}
