package cli

import (
	"strings"
	"testing"
)

func TestMCPToolsCmd(t *testing.T) {
	setupEnv(t)

	out, _, err := runCommand(t, mcpToolsCmd)
	if err != nil {
		t.Fatalf("mcp tools error = %v", err)
	}
	if !strings.Contains(out, "run_script\n") || !strings.Contains(out, "extract_done_tasks\n") {
		t.Errorf("output = %q", out)
	}
}

func TestMCPToolsCmd_ReadOnly(t *testing.T) {
	setupEnv(t)
	mcpReadOnly = true
	t.Cleanup(func() { mcpReadOnly = false })

	out, _, err := runCommand(t, mcpToolsCmd)
	if err != nil {
		t.Fatalf("mcp tools error = %v", err)
	}
	if strings.Contains(out, "run_script") {
		t.Errorf("read-only output offers run_script: %q", out)
	}
}

func TestMCPToolsCmd_Uninitialized(t *testing.T) {
	setupEnv(t)
	Reader = nil

	if _, _, err := runCommand(t, mcpToolsCmd); err == nil {
		t.Error("mcp tools error = nil without services")
	}
}
