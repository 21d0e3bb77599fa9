package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// scriptWaitDelay bounds how long Exec waits for output pipes after the
// interpreter has been killed.
const scriptWaitDelay = 2 * time.Second

// ScriptExecConfig holds the interpreter used to run automation scripts.
type ScriptExecConfig struct {
	// Interpreter is the binary, e.g. "osascript".
	Interpreter string
	// Args precede the script argument, e.g. ["-e"].
	Args []string
	// Stderr receives a copy of the interpreter's standard error when set.
	Stderr io.Writer
}

// ScriptExecResult captures the outcome of one interpreter invocation.
type ScriptExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ScriptExitError is returned when the interpreter exits non-zero.
type ScriptExitError struct {
	Interpreter string
	Result      *ScriptExecResult
}

func (e *ScriptExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Interpreter, e.Result.ExitCode)
	if stderr := strings.TrimSpace(e.Result.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// ScriptExecutor runs a literal script through an external interpreter.
type ScriptExecutor interface {
	// Exec runs the script and returns the captured output. A non-zero exit
	// is reported both in the result and as a *ScriptExitError.
	Exec(ctx context.Context, script string) (*ScriptExecResult, error)
	// Run returns only the trimmed standard output.
	Run(ctx context.Context, script string) (string, error)
	// CommandLine returns the argv that Exec would use.
	CommandLine(script string) []string
}

type scriptExecutor struct {
	config ScriptExecConfig
}

// NewScriptExecutor creates a ScriptExecutor for the given interpreter.
func NewScriptExecutor(config ScriptExecConfig) ScriptExecutor {
	return &scriptExecutor{config: config}
}

// CommandLine builds interpreter + args + script. The script is always a
// single argv element so no shell parsing is involved.
func (e *scriptExecutor) CommandLine(script string) []string {
	argv := make([]string, 0, len(e.config.Args)+2)
	argv = append(argv, e.config.Interpreter)
	argv = append(argv, e.config.Args...)
	argv = append(argv, script)
	return argv
}

// Exec starts the interpreter and waits for it to finish.
func (e *scriptExecutor) Exec(ctx context.Context, script string) (*ScriptExecResult, error) {
	if e.config.Interpreter == "" {
		return nil, fmt.Errorf("no script interpreter configured")
	}

	argv := e.CommandLine(script)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	cmd.WaitDelay = scriptWaitDelay
	killProcessGroupOnCancel(cmd)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	if e.config.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, e.config.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()

	result := &ScriptExecResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, &ScriptExitError{Interpreter: e.config.Interpreter, Result: result}
		}
		// Could not be started, or killed by cancellation.
		return result, fmt.Errorf("executing %s: %w", e.config.Interpreter, err)
	}

	return result, nil
}

// Run executes the script and returns its standard output without the
// trailing newline.
func (e *scriptExecutor) Run(ctx context.Context, script string) (string, error) {
	result, err := e.Exec(ctx, script)
	if result == nil {
		return "", err
	}
	return strings.TrimRight(result.Stdout, "\r\n"), err
}
