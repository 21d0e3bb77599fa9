// Package core contains the business logic for donewatch: Done-section
// extraction, change detection and dispatch, script composition and
// configuration.
package core

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

// SettingsFileName is the settings file read from the base path.
const SettingsFileName = ".donewatch.yaml"

// ConfigurationManager loads and validates the persisted MonitorConfig.
type ConfigurationManager interface {
	Load() (*models.MonitorConfig, error)
	Path() string
	ValidateConfig(cfg *models.MonitorConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML settings file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .donewatch.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// Path returns the settings file location.
func (cm *viperConfigManager) Path() string {
	return filepath.Join(cm.basePath, SettingsFileName)
}

// Load reads the settings file merged over the defaults. A missing file
// yields the defaults.
func (cm *viperConfigManager) Load() (*models.MonitorConfig, error) {
	cfg := models.DefaultMonitorConfig()

	v := viper.New()
	v.SetConfigFile(cm.Path())
	v.SetConfigType("yaml")

	v.SetDefault("default_script", cfg.DefaultScript)
	v.SetDefault("enable_done_heading_trigger", cfg.EnableDoneHeadingTrigger)
	v.SetDefault("target_files", cfg.TargetFiles)
	v.SetDefault("calendar_name", cfg.CalendarName)
	v.SetDefault("vault_path", cfg.VaultPath)
	v.SetDefault("interpreter", cfg.Interpreter)
	v.SetDefault("interpreter_args", cfg.InterpreterArgs)
	v.SetDefault("debounce", cfg.Debounce)
	v.SetDefault("prime_on_start", cfg.PrimeOnStart)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || isNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", SettingsFileName, err)
	}

	cfg.DefaultScript = v.GetString("default_script")
	cfg.EnableDoneHeadingTrigger = v.GetBool("enable_done_heading_trigger")
	cfg.CalendarName = v.GetString("calendar_name")
	cfg.VaultPath = v.GetString("vault_path")
	cfg.TargetFiles = NormalizeTargets(cm.vault(cfg.VaultPath), v.GetStringSlice("target_files"))
	cfg.Interpreter = v.GetString("interpreter")
	// Use IsSet so an explicit empty list is kept.
	if v.IsSet("interpreter_args") {
		cfg.InterpreterArgs = v.GetStringSlice("interpreter_args")
	}
	cfg.Debounce = v.GetDuration("debounce")
	cfg.PrimeOnStart = v.GetBool("prime_on_start")

	return cfg, nil
}

func (cm *viperConfigManager) vault(vaultPath string) string {
	if filepath.IsAbs(vaultPath) {
		return vaultPath
	}
	return filepath.Join(cm.basePath, filepath.FromSlash(vaultPath))
}

// NormalizeTarget rewrites a target path into the form the watcher reports:
// slash-separated and relative to vault, or absolute when it lies outside.
// Relative input is taken as relative to vault.
func NormalizeTarget(vault, target string) string {
	if strings.TrimSpace(target) == "" {
		return target
	}
	p := filepath.FromSlash(target)
	if !filepath.IsAbs(p) {
		p = filepath.Join(vault, p)
	}
	absVault, err := filepath.Abs(vault)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(target))
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(target))
	}
	rel, err := filepath.Rel(absVault, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}

// NormalizeTargets applies NormalizeTarget to every entry and drops entries
// that collapse onto an earlier one. The result is never nil.
func NormalizeTargets(vault string, targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		n := NormalizeTarget(vault, t)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// ValidateConfig checks the settings for values the watcher cannot use.
func (cm *viperConfigManager) ValidateConfig(cfg *models.MonitorConfig) error {
	return ValidateConfig(cfg)
}

// ValidateConfig returns an error listing every invalid field of cfg.
func ValidateConfig(cfg *models.MonitorConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.Interpreter) == "" {
		errs = append(errs, "interpreter must not be empty")
	}
	if cfg.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("debounce must be non-negative, got %s", cfg.Debounce))
	}
	seen := make(map[string]bool, len(cfg.TargetFiles))
	for _, p := range cfg.TargetFiles {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, "target_files must not contain empty paths")
			continue
		}
		if seen[p] {
			errs = append(errs, fmt.Sprintf("target_files contains %q more than once", p))
		}
		seen[p] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// SettingsWriter persists settings after every edit.
// This interface is defined locally in core to avoid importing storage.
type SettingsWriter interface {
	SaveSettings(cfg *models.MonitorConfig) error
}

// Settings is the live, mutable settings holder shared by the detector, the
// watcher and the CLI. It implements ConfigProvider.
type Settings struct {
	mu     sync.RWMutex
	cfg    *models.MonitorConfig
	writer SettingsWriter
}

// NewSettings wraps cfg. writer may be nil, in which case edits are kept in
// memory only.
func NewSettings(cfg *models.MonitorConfig, writer SettingsWriter) *Settings {
	if cfg == nil {
		cfg = models.DefaultMonitorConfig()
	}
	return &Settings{cfg: cfg.Clone(), writer: writer}
}

// Current returns a snapshot of the settings.
func (s *Settings) Current() *models.MonitorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Update applies fn to a copy of the settings, validates and persists the
// result, then makes it current. Nothing changes if any step fails.
func (s *Settings) Update(fn func(cfg *models.MonitorConfig) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := ValidateConfig(next); err != nil {
		return err
	}
	if s.writer != nil {
		if err := s.writer.SaveSettings(next); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
	}
	s.cfg = next
	return nil
}

// Replace swaps in settings loaded from elsewhere without persisting them.
func (s *Settings) Replace(cfg *models.MonitorConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Clone()
}
