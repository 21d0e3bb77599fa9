// Package internal provides the App struct that wires all components of
// donewatch together and initializes the CLI layer.
package internal

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valter-silva-au/donewatch/internal/cli"
	"github.com/valter-silva-au/donewatch/internal/core"
	"github.com/valter-silva-au/donewatch/internal/integration"
	"github.com/valter-silva-au/donewatch/internal/observability"
	"github.com/valter-silva-au/donewatch/internal/storage"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

// File names under the base path.
const (
	eventLogFile = ".donewatch_events.jsonl"
	stateFile    = ".donewatch_state.yaml"
)

// App holds all service dependencies for donewatch.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr     core.ConfigurationManager
	SettingsStore storage.SettingsStore
	Settings      *core.Settings

	// Storage layer
	StateStore storage.StateStore

	// Core services
	Action   *core.Action
	Detector *core.Detector

	// Integration services
	Reader     *integration.FileReader
	Enumerator integration.FileEnumerator

	// Observability
	Logger          *slog.Logger
	LogLevel        *slog.LevelVar
	EventLog        observability.EventLog
	Summaries       observability.SummaryCalculator
	Metrics         *observability.Metrics
	MetricsRegistry *prometheus.Registry
	Recorder        *observability.ChangeRecorder
}

// NewApp creates and wires all components of donewatch. basePath is the
// directory holding .donewatch.yaml and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Observability: logging ---
	app.LogLevel = new(slog.LevelVar)
	app.LogLevel.Set(observability.ParseLevel(os.Getenv("DONEWATCH_LOG_LEVEL")))
	app.Logger = observability.NewLogger(observability.LogConfig{
		Level:   os.Getenv("DONEWATCH_LOG_LEVEL"),
		Format:  os.Getenv("DONEWATCH_LOG_FORMAT"),
		Leveler: app.LogLevel,
	})

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		// Keep going with defaults so 'config set' can repair a broken file.
		app.Logger.Warn("loading settings, using defaults", "path", app.ConfigMgr.Path(), "error", err)
		cfg = models.DefaultMonitorConfig()
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		app.Logger.Warn("invalid settings", "error", err)
	}
	app.SettingsStore = storage.NewSettingsStore(app.ConfigMgr.Path())
	app.Settings = core.NewSettings(cfg, app.SettingsStore)

	// --- Storage layer ---
	app.StateStore = storage.NewStateStore(filepath.Join(basePath, stateFile))

	// --- Observability: events and metrics ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, eventLogFile))
	if err != nil {
		// Non-fatal: run without the event log.
		app.Logger.Warn("event log disabled", "error", err)
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.Summaries = observability.NewSummaryCalculator(app.EventLog)
	}
	app.MetricsRegistry = prometheus.NewRegistry()
	app.MetricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = observability.MustNewMetrics(app.MetricsRegistry)
	app.Metrics.SetTargetFiles(len(cfg.TargetFiles))
	app.Recorder = observability.NewChangeRecorder(app.EventLog, app.Metrics, app.Logger)

	// --- Integration services ---
	vault := integration.ResolvePath(basePath, cfg.VaultPath)
	app.Reader = integration.NewFileReader(vault)
	app.Enumerator = integration.NewFileEnumerator(vault)

	// --- Core services ---
	runner := observability.InstrumentRunner(&configuredRunner{settings: app.Settings}, app.Metrics)
	app.Action = core.NewAction(runner, app.Settings, app.Logger)
	app.Detector = core.NewDetector(app.Settings, app.Reader, app.Action, core.NewStateTracker(), app.Recorder, app.Logger)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Settings = app.Settings
	cli.ConfigMgr = app.ConfigMgr
	cli.Detector = app.Detector
	cli.Action = app.Action
	cli.Reader = app.Reader
	cli.Enumerator = app.Enumerator
	cli.StateStore = app.StateStore

	cli.Logger = app.Logger
	cli.LogLevel = app.LogLevel
	cli.EventLog = app.EventLog
	cli.Summaries = app.Summaries
	cli.Recorder = app.Recorder
	cli.Metrics = app.Metrics
	cli.MetricsRegistry = app.MetricsRegistry

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding .donewatch.yaml.
// It checks the DONEWATCH_HOME env var, then walks up from the current
// directory looking for the settings file, then falls back to the current
// directory.
func ResolveBasePath() string {
	if home := os.Getenv("DONEWATCH_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.SettingsFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// configuredRunner adapts integration.ScriptExecutor to core.ScriptRunner,
// picking up interpreter changes from the live settings on every run.
type configuredRunner struct {
	settings *core.Settings
}

func (r *configuredRunner) Run(ctx context.Context, script string) (string, error) {
	cfg := r.settings.Current()
	exec := integration.NewScriptExecutor(integration.ScriptExecConfig{
		Interpreter: cfg.Interpreter,
		Args:        cfg.InterpreterArgs,
	})
	return exec.Run(ctx, script)
}
