package core

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/donewatch/pkg/models"
)

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg, err := cm.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, models.DefaultMonitorConfig()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_ReadsAllKeys(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `default_script: 'display notification summary of input'
enable_done_heading_trigger: false
target_files:
  - Boards/Work.md
  - Boards/Home.md
calendar_name: Work
vault_path: /notes
interpreter: /usr/bin/osascript
interpreter_args: ["-l", "AppleScript", "-e"]
debounce: 2s
prime_on_start: true
`)

	cfg, err := NewConfigurationManager(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &models.MonitorConfig{
		DefaultScript:            "display notification summary of input",
		EnableDoneHeadingTrigger: false,
		TargetFiles:              []string{"Boards/Work.md", "Boards/Home.md"},
		CalendarName:             "Work",
		VaultPath:                "/notes",
		Interpreter:              "/usr/bin/osascript",
		InterpreterArgs:          []string{"-l", "AppleScript", "-e"},
		Debounce:                 2 * time.Second,
		PrimeOnStart:             true,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "calendar_name: Personal\n")

	cfg, err := NewConfigurationManager(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CalendarName != "Personal" {
		t.Errorf("CalendarName = %q, want %q", cfg.CalendarName, "Personal")
	}
	if !cfg.EnableDoneHeadingTrigger {
		t.Error("EnableDoneHeadingTrigger should default to true")
	}
	if cfg.Interpreter != models.DefaultInterpreter {
		t.Errorf("Interpreter = %q, want %q", cfg.Interpreter, models.DefaultInterpreter)
	}
	if cfg.Debounce != models.DefaultDebounce {
		t.Errorf("Debounce = %s, want %s", cfg.Debounce, models.DefaultDebounce)
	}
	if cfg.TargetFiles == nil || len(cfg.TargetFiles) != 0 {
		t.Errorf("TargetFiles = %v, want empty non-nil", cfg.TargetFiles)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "target_files: [oops\n")

	if _, err := NewConfigurationManager(dir).Load(); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *models.MonitorConfig)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(*models.MonitorConfig) {}},
		{name: "empty interpreter", mutate: func(c *models.MonitorConfig) { c.Interpreter = " " }, wantErr: "interpreter"},
		{name: "negative debounce", mutate: func(c *models.MonitorConfig) { c.Debounce = -time.Second }, wantErr: "debounce"},
		{name: "empty target", mutate: func(c *models.MonitorConfig) { c.TargetFiles = []string{""} }, wantErr: "empty paths"},
		{name: "duplicate target", mutate: func(c *models.MonitorConfig) { c.TargetFiles = []string{"a.md", "a.md"} }, wantErr: "more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultMonitorConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateConfig() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if err := ValidateConfig(nil); err == nil {
		t.Error("ValidateConfig(nil) error = nil")
	}
}

type memoryWriter struct {
	saved []*models.MonitorConfig
	err   error
}

func (w *memoryWriter) SaveSettings(cfg *models.MonitorConfig) error {
	if w.err != nil {
		return w.err
	}
	w.saved = append(w.saved, cfg.Clone())
	return nil
}

func TestSettings_UpdatePersistsAndSwaps(t *testing.T) {
	w := &memoryWriter{}
	s := NewSettings(models.DefaultMonitorConfig(), w)

	err := s.Update(func(c *models.MonitorConfig) error {
		c.TargetFiles = append(c.TargetFiles, "a.md")
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !s.Current().IsTarget("a.md") {
		t.Error("Current() missing new target")
	}
	if len(w.saved) != 1 || !w.saved[0].IsTarget("a.md") {
		t.Errorf("saved = %+v, want one save with a.md", w.saved)
	}
}

func TestSettings_UpdateRollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		writer *memoryWriter
		fn     func(c *models.MonitorConfig) error
	}{
		{
			name:   "callback error",
			writer: &memoryWriter{},
			fn:     func(*models.MonitorConfig) error { return errors.New("nope") },
		},
		{
			name:   "validation error",
			writer: &memoryWriter{},
			fn: func(c *models.MonitorConfig) error {
				c.Interpreter = ""
				return nil
			},
		},
		{
			name:   "save error",
			writer: &memoryWriter{err: errors.New("disk full")},
			fn: func(c *models.MonitorConfig) error {
				c.CalendarName = "Changed"
				return nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings(models.DefaultMonitorConfig(), tt.writer)
			if err := s.Update(tt.fn); err == nil {
				t.Fatal("Update() error = nil, want error")
			}
			if !reflect.DeepEqual(s.Current(), models.DefaultMonitorConfig()) {
				t.Errorf("Current() = %+v, want unchanged defaults", s.Current())
			}
		})
	}
}

func TestSettings_CurrentIsSnapshot(t *testing.T) {
	s := NewSettings(nil, nil)
	cfg := s.Current()
	cfg.TargetFiles = append(cfg.TargetFiles, "leak.md")
	cfg.CalendarName = "Leak"

	if s.Current().IsTarget("leak.md") || s.Current().CalendarName == "Leak" {
		t.Error("mutating Current() result changed the live settings")
	}
}

func TestSettings_Replace(t *testing.T) {
	w := &memoryWriter{}
	s := NewSettings(nil, w)
	next := models.DefaultMonitorConfig()
	next.CalendarName = "Reloaded"
	s.Replace(next)

	if s.Current().CalendarName != "Reloaded" {
		t.Errorf("CalendarName = %q, want %q", s.Current().CalendarName, "Reloaded")
	}
	if len(w.saved) != 0 {
		t.Error("Replace() must not persist")
	}
}

func TestNormalizeTarget(t *testing.T) {
	vault := t.TempDir()
	outside := filepath.Join(filepath.Dir(vault), "Elsewhere.md")
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean relative", in: "Boards/Work.md", want: "Boards/Work.md"},
		{name: "dot prefix", in: "./Board.md", want: "Board.md"},
		{name: "redundant segments", in: "Boards/../Boards//Work.md", want: "Boards/Work.md"},
		{name: "absolute inside vault", in: filepath.Join(vault, "Boards", "Work.md"), want: "Boards/Work.md"},
		{name: "absolute outside vault", in: outside, want: filepath.ToSlash(outside)},
		{name: "relative escaping vault", in: "../Elsewhere.md", want: filepath.ToSlash(outside)},
		{name: "empty kept for validation", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTarget(vault, tt.in); got != tt.want {
				t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoad_NormalizesTargetFiles(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "Board.md")
	writeSettings(t, dir, "target_files:\n  - "+abs+"\n  - ./Board.md\n  - ./Boards/Work.md\n")

	cfg, err := NewConfigurationManager(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"Board.md", "Boards/Work.md"}
	if !reflect.DeepEqual(cfg.TargetFiles, want) {
		t.Errorf("TargetFiles = %q, want %q", cfg.TargetFiles, want)
	}
	if !cfg.IsTarget("Board.md") {
		t.Error("IsTarget(Board.md) = false for an absolute entry inside the vault")
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig() error = %v", err)
	}
}

func TestLoad_NormalizesAgainstVaultPath(t *testing.T) {
	dir := t.TempDir()
	vault := filepath.Join(dir, "notes")
	writeSettings(t, dir, "vault_path: notes\ntarget_files:\n  - "+filepath.Join(vault, "Board.md")+"\n")

	cfg, err := NewConfigurationManager(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := []string{"Board.md"}; !reflect.DeepEqual(cfg.TargetFiles, want) {
		t.Errorf("TargetFiles = %q, want %q", cfg.TargetFiles, want)
	}
}
