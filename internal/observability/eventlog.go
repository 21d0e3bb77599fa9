package observability

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
)

// Event types written by the change recorder.
const (
	EventDispatched     = "change.dispatched"
	EventDispatchFailed = "change.dispatch_failed"
	EventReadFailed     = "change.read_failed"
	EventNoGrowth       = "change.no_growth"
	EventDisabled       = "change.disabled"
	EventScriptRun      = "script.run"
)

// Event levels.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// maxEventLine bounds a single JSONL record; script output is stored in
// Data and can be long.
const maxEventLine = 1 << 20

// ErrEventLogClosed is returned by Write after Close.
var ErrEventLogClosed = errors.New("event log closed")

// Event is one line of the history: a handled change notification or a
// manual script run.
type Event struct {
	ID      string         `json:"id,omitempty"`
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Path    string         `json:"path,omitempty"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter selects events. Zero fields match everything. A positive
// Limit keeps the newest matches.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
	Path  string
	Limit int
}

// Match reports whether e passes every criterion of f.
func (f EventFilter) Match(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.Level != "" && e.Level != f.Level:
		return false
	case f.Path != "" && e.Path != f.Path:
		return false
	}
	return true
}

// EventLog stores the dispatch history.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog appends one JSON object per line. Reads open the file
// separately so they never block writers for long.
type jsonlEventLog struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewJSONLEventLog opens (creating if needed) the history file at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &jsonlEventLog{path: path, f: f, enc: enc}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return ErrEventLogClosed
	}
	// Encode writes the record and its newline in one call.
	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("writing event %s: %w", event.Type, err)
	}
	return nil
}

// Read returns matching events oldest first. Lines that do not decode are
// skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var matched []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	for sc.Scan() {
		var e Event
		if json.Unmarshal(sc.Bytes(), &e) != nil || !filter.Match(e) {
			continue
		}
		matched = append(matched, e)
		// Drop the oldest match once the window is full.
		if filter.Limit > 0 && len(matched) > filter.Limit {
			matched = matched[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return matched, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f, l.enc = nil, nil
	if err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
