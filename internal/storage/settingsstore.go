// Package storage persists donewatch settings as YAML on disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/valter-silva-au/donewatch/pkg/models"
	"gopkg.in/yaml.v3"
)

// SettingsStore writes MonitorConfig back to the settings file. Reading is
// handled by core.ConfigurationManager through Viper.
type SettingsStore interface {
	SaveSettings(cfg *models.MonitorConfig) error
	Path() string
}

type fileSettingsStore struct {
	path string
}

// NewSettingsStore creates a SettingsStore that writes to path.
func NewSettingsStore(path string) SettingsStore {
	return &fileSettingsStore{path: path}
}

// settingsFile is the on-disk layout. Durations are written in their string
// form so the file stays hand-editable.
type settingsFile struct {
	DefaultScript            string   `yaml:"default_script"`
	EnableDoneHeadingTrigger bool     `yaml:"enable_done_heading_trigger"`
	TargetFiles              []string `yaml:"target_files"`
	CalendarName             string   `yaml:"calendar_name"`
	VaultPath                string   `yaml:"vault_path"`
	Interpreter              string   `yaml:"interpreter"`
	InterpreterArgs          []string `yaml:"interpreter_args"`
	Debounce                 string   `yaml:"debounce"`
	PrimeOnStart             bool     `yaml:"prime_on_start"`
}

func toSettingsFile(cfg *models.MonitorConfig) settingsFile {
	targets := cfg.TargetFiles
	if targets == nil {
		targets = []string{}
	}
	args := cfg.InterpreterArgs
	if args == nil {
		args = []string{}
	}
	return settingsFile{
		DefaultScript:            cfg.DefaultScript,
		EnableDoneHeadingTrigger: cfg.EnableDoneHeadingTrigger,
		TargetFiles:              targets,
		CalendarName:             cfg.CalendarName,
		VaultPath:                cfg.VaultPath,
		Interpreter:              cfg.Interpreter,
		InterpreterArgs:          args,
		Debounce:                 cfg.Debounce.String(),
		PrimeOnStart:             cfg.PrimeOnStart,
	}
}

// MarshalSettings renders cfg in the settings file layout.
func MarshalSettings(cfg *models.MonitorConfig) ([]byte, error) {
	data, err := yaml.Marshal(toSettingsFile(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}
	return data, nil
}

// Path returns the settings file location.
func (s *fileSettingsStore) Path() string {
	return s.path
}

// SaveSettings writes cfg atomically: the YAML goes to a temp file in the
// same directory which is then renamed over the settings file.
func (s *fileSettingsStore) SaveSettings(cfg *models.MonitorConfig) error {
	if cfg == nil {
		return fmt.Errorf("saving settings: config is nil")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("saving settings: creating directory: %w", err)
	}

	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	defer func() { _ = unlock() }()

	data, err := MarshalSettings(cfg)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".donewatch-*.yaml")
	if err != nil {
		return fmt.Errorf("saving settings: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("saving settings: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving settings: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving settings: replacing %s: %w", s.path, err)
	}
	return nil
}

// lockFile acquires an exclusive flock on path, creating it if needed.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	// syscall.Flock is Unix-specific, like the rest of the osascript tooling.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
