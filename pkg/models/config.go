package models

import "time"

// Default values applied when the settings file omits a key.
const (
	DefaultCalendarName = "Logs"
	DefaultInterpreter  = "osascript"
	DefaultDebounce     = 500 * time.Millisecond
	DoneHeading         = "## Done"
)

// DefaultInterpreterArgs precede the script on the interpreter command line.
var DefaultInterpreterArgs = []string{"-e"}

// MonitorConfig holds the persisted settings read from .donewatch.yaml.
type MonitorConfig struct {
	DefaultScript            string        `yaml:"default_script" mapstructure:"default_script"`
	EnableDoneHeadingTrigger bool          `yaml:"enable_done_heading_trigger" mapstructure:"enable_done_heading_trigger"`
	TargetFiles              []string      `yaml:"target_files" mapstructure:"target_files"`
	CalendarName             string        `yaml:"calendar_name" mapstructure:"calendar_name"`
	VaultPath                string        `yaml:"vault_path" mapstructure:"vault_path"`
	Interpreter              string        `yaml:"interpreter" mapstructure:"interpreter"`
	InterpreterArgs          []string      `yaml:"interpreter_args" mapstructure:"interpreter_args"`
	Debounce                 time.Duration `yaml:"debounce" mapstructure:"debounce"`
	PrimeOnStart             bool          `yaml:"prime_on_start" mapstructure:"prime_on_start"`
}

// DefaultMonitorConfig returns the settings used when no file exists.
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		DefaultScript:            "",
		EnableDoneHeadingTrigger: true,
		TargetFiles:              []string{},
		CalendarName:             DefaultCalendarName,
		VaultPath:                ".",
		Interpreter:              DefaultInterpreter,
		InterpreterArgs:          append([]string(nil), DefaultInterpreterArgs...),
		Debounce:                 DefaultDebounce,
		PrimeOnStart:             false,
	}
}

// IsTarget reports whether path is one of the monitored files.
// Membership is exact string equality.
func (c *MonitorConfig) IsTarget(path string) bool {
	for _, t := range c.TargetFiles {
		if t == path {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (c *MonitorConfig) Clone() *MonitorConfig {
	out := *c
	out.TargetFiles = append([]string{}, c.TargetFiles...)
	out.InterpreterArgs = append([]string(nil), c.InterpreterArgs...)
	return &out
}
