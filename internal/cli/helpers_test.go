package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/core"
	"github.com/valter-silva-au/donewatch/internal/integration"
	"github.com/valter-silva-au/donewatch/internal/observability"
	"github.com/valter-silva-au/donewatch/internal/storage"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

// recordingRunner stands in for osascript and records composed scripts.
type recordingRunner struct {
	scripts []string
	output  string
	err     error
}

func (r *recordingRunner) Run(_ context.Context, script string) (string, error) {
	r.scripts = append(r.scripts, script)
	return r.output, r.err
}

// testEnv wires the package-level services against a temp base directory
// and restores the previous values when the test ends.
type testEnv struct {
	base   string
	runner *recordingRunner
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	origBase, origSettings, origConfigMgr := BasePath, Settings, ConfigMgr
	origDetector, origAction, origReader := Detector, Action, Reader
	origEnumerator, origStateStore := Enumerator, StateStore
	origEventLog, origSummaries, origRecorder := EventLog, Summaries, Recorder
	origMetrics, origRegistry := Metrics, MetricsRegistry
	t.Cleanup(func() {
		BasePath, Settings, ConfigMgr = origBase, origSettings, origConfigMgr
		Detector, Action, Reader = origDetector, origAction, origReader
		Enumerator, StateStore = origEnumerator, origStateStore
		EventLog, Summaries, Recorder = origEventLog, origSummaries, origRecorder
		Metrics, MetricsRegistry = origMetrics, origRegistry
	})

	base := t.TempDir()
	BasePath = base
	ConfigMgr = core.NewConfigurationManager(base)
	Settings = core.NewSettings(models.DefaultMonitorConfig(), storage.NewSettingsStore(ConfigMgr.Path()))
	Reader = integration.NewFileReader(base)
	Enumerator = integration.NewFileEnumerator(base)
	StateStore = storage.NewStateStore(filepath.Join(base, "state.yaml"))

	log, err := observability.NewJSONLEventLog(filepath.Join(base, "events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })
	EventLog = log
	Summaries = observability.NewSummaryCalculator(log)
	MetricsRegistry = prometheus.NewRegistry()
	Metrics = observability.MustNewMetrics(MetricsRegistry)
	Recorder = observability.NewChangeRecorder(log, Metrics, nil)

	runner := &recordingRunner{}
	Action = core.NewAction(runner, Settings, nil)
	Detector = core.NewDetector(Settings, Reader, Action, nil, Recorder, nil)

	return &testEnv{base: base, runner: runner}
}

func (e *testEnv) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) setTargets(t *testing.T, targets ...string) {
	t.Helper()
	err := Settings.Update(func(cfg *models.MonitorConfig) error {
		cfg.TargetFiles = targets
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// runCommand executes cmd.RunE with captured stdout and stderr.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	err := cmd.RunE(cmd, args)
	return stdout.String(), stderr.String(), err
}
