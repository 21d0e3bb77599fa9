package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/valter-silva-au/donewatch/pkg/models"
)

// ScriptRunner executes a complete script and returns its standard output.
// This interface is defined locally in core to avoid importing integration.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

// appleScriptEscaper escapes characters that would terminate or corrupt an
// AppleScript string literal.
var appleScriptEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// QuoteAppleScript renders s as a double-quoted AppleScript string literal.
func QuoteAppleScript(s string) string {
	return `"` + appleScriptEscaper.Replace(s) + `"`
}

// InputStatement builds the statement that binds the payload to the
// AppleScript variable "input".
func InputStatement(payload models.DispatchPayload, label string) string {
	return fmt.Sprintf("set input to {calendarName:%s, summary:%s, description:%s}",
		QuoteAppleScript(label),
		QuoteAppleScript(payload.Title),
		QuoteAppleScript(payload.Content),
	)
}

// ComposeScript prepends the input statement to script when a payload is
// given. Without a payload the script is returned unchanged.
func ComposeScript(script string, payload *models.DispatchPayload, label string) string {
	if payload == nil {
		return script
	}
	return InputStatement(*payload, label) + "\n" + script
}

// Action composes the configured script with an optional payload and hands
// it to a ScriptRunner.
type Action struct {
	runner ScriptRunner
	config ConfigProvider
	logger Logger
}

// NewAction creates an Action. logger may be nil.
func NewAction(runner ScriptRunner, config ConfigProvider, logger Logger) *Action {
	return &Action{runner: runner, config: config, logger: orNopLogger(logger)}
}

// Run executes the configured default script. Failures are logged and
// returned to the caller.
func (a *Action) Run(ctx context.Context, payload *models.DispatchPayload) (string, error) {
	cfg := a.config.Current()
	script := ComposeScript(cfg.DefaultScript, payload, cfg.CalendarName)

	out, err := a.runner.Run(ctx, script)
	if err != nil {
		a.logger.Error("script execution failed", "error", err)
		return out, fmt.Errorf("running script: %w", err)
	}
	return out, nil
}
