package cli

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/core"
	"github.com/valter-silva-au/donewatch/internal/integration"
	"github.com/valter-silva-au/donewatch/internal/observability"
	"github.com/valter-silva-au/donewatch/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string

	Settings   *core.Settings
	ConfigMgr  core.ConfigurationManager
	Detector   *core.Detector
	Action     core.ActionRunner
	Reader     core.ContentReader
	Enumerator integration.FileEnumerator
	StateStore storage.StateStore
)

// Observability service instances, set during app initialization in app.go.
var (
	Logger          *slog.Logger
	LogLevel        *slog.LevelVar
	EventLog        observability.EventLog
	Summaries       observability.SummaryCalculator
	Recorder        *observability.ChangeRecorder
	Metrics         *observability.Metrics
	MetricsRegistry *prometheus.Registry
)

// cliLogger returns Logger, or a discarding logger before wiring.
func cliLogger() *slog.Logger {
	if Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return Logger
}

// cmdContext returns the command's context, which is nil when RunE is
// invoked directly.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// vaultPath resolves the configured vault against BasePath.
func vaultPath(vault string) string {
	return integration.ResolvePath(BasePath, vault)
}
