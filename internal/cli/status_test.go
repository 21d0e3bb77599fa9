package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/donewatch/internal/observability"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"0d", 0, true},
		{"-5d", 0, true},
		{"xd", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSince(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSince(%q) error = nil", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseSince(%q) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("tell app\n  activate\nend tell"); got != "tell app ..." {
		t.Errorf("firstLine() = %q", got)
	}
	if got := firstLine("  say hi  \n"); got != "say hi" {
		t.Errorf("firstLine() = %q", got)
	}
}

func TestRenderStatus(t *testing.T) {
	cfg := models.DefaultMonitorConfig()
	cfg.TargetFiles = []string{"Boards/Work.md"}
	cfg.EnableDoneHeadingTrigger = false
	summary := &observability.Summary{
		Dispatched:     3,
		DispatchByPath: map[string]int{"Boards/Work.md": 3},
		LastDispatch: &observability.Event{
			Time: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			Data: map[string]any{"title": "Ship"},
		},
	}

	out := renderStatus(cfg, summary, "7d")
	for _, want := range []string{"disabled", "Boards/Work.md", "3 dispatched", "Ship", "Activity (last 7d)", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderStatus() missing %q:\n%s", want, out)
		}
	}

	out = renderStatus(models.DefaultMonitorConfig(), nil, "24h")
	if !strings.Contains(out, "event log unavailable") || !strings.Contains(out, "none") {
		t.Errorf("renderStatus(nil summary) = %s", out)
	}
}

func TestStatusCmd(t *testing.T) {
	env := setupEnv(t)
	env.setTargets(t, "Board.md")
	env.writeFile(t, "Board.md", "## Done\n- [[A]]\n")
	Detector.HandleChange(cmdContext(statusCmd), "Board.md")

	statusSince = "24h"
	defer func() { statusSince = "7d" }()

	out, _, err := runCommand(t, statusCmd)
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "dispatched:      1") {
		t.Errorf("status output = %s", out)
	}
}
