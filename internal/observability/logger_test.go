package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf})
	logger.Debug("hidden")
	logger.Info("dispatching", "path", "a.md")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "dispatching" || rec["path"] != "a.md" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLogger_LevelerOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelError)
	logger := NewLogger(LogConfig{Level: "debug", Output: &buf, Leveler: lv})

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at error level: %q", buf.String())
	}
	lv.Set(slog.LevelDebug)
	logger.Debug("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("output = %q, want debug line after level change", buf.String())
	}
}
