package core

import (
	"context"

	"github.com/valter-silva-au/donewatch/pkg/models"
)

// ContentReader returns the full text of a monitored file.
// This interface is defined locally in core to avoid importing integration.
type ContentReader interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// ConfigProvider exposes the current settings snapshot. The snapshot may
// change between change notifications but is read once per notification.
type ConfigProvider interface {
	Current() *models.MonitorConfig
}

// OutcomeRecorder receives the result of every handled change notification.
// It is implemented by the observability adapters wired in app.go.
type OutcomeRecorder interface {
	RecordChange(result models.ChangeResult)
}

// Logger is the structured logging surface used by core. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func orNopLogger(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// StaticConfig is a ConfigProvider that always returns the same settings.
type StaticConfig struct {
	Config *models.MonitorConfig
}

// Current returns the wrapped settings.
func (s StaticConfig) Current() *models.MonitorConfig {
	return s.Config
}
