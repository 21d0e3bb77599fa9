package models

import "testing"

func TestMonitorConfig_IsTarget(t *testing.T) {
	cfg := DefaultMonitorConfig()
	cfg.TargetFiles = []string{"Boards/Work.md"}

	tests := map[string]bool{
		"Boards/Work.md":   true,
		"boards/work.md":   false,
		"./Boards/Work.md": false,
		"Work.md":          false,
	}
	for path, want := range tests {
		if got := cfg.IsTarget(path); got != want {
			t.Errorf("IsTarget(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestMonitorConfig_CloneIsDeep(t *testing.T) {
	cfg := DefaultMonitorConfig()
	cfg.TargetFiles = []string{"a.md"}

	c := cfg.Clone()
	c.TargetFiles[0] = "changed.md"
	c.InterpreterArgs[0] = "-l"

	if cfg.TargetFiles[0] != "a.md" || cfg.InterpreterArgs[0] != "-e" {
		t.Errorf("Clone() shares slices with the original: %+v", cfg)
	}
}

func TestNewDispatchPayload(t *testing.T) {
	p := NewDispatchPayload(TaskRecord{Title: "Buy milk"})
	if p.Title != "Buy milk" || p.Content != "Buy milk" {
		t.Errorf("NewDispatchPayload() = %+v", p)
	}
}
