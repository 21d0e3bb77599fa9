package observability

import (
	"fmt"
	"time"
)

// Summary aggregates the event log for status reporting.
type Summary struct {
	Dispatched     int            `json:"dispatched"`
	DispatchFailed int            `json:"dispatch_failed"`
	ReadFailed     int            `json:"read_failed"`
	NoGrowth       int            `json:"no_growth"`
	ScriptRuns     int            `json:"script_runs"`
	DispatchByPath map[string]int `json:"dispatch_by_path"`
	EventCount     int            `json:"event_count"`
	LastDispatch   *Event         `json:"last_dispatch,omitempty"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
}

// SummaryCalculator derives a Summary from the event log.
type SummaryCalculator interface {
	Calculate(since time.Time) (*Summary, error)
}

type summaryCalculator struct {
	eventLog EventLog
}

// NewSummaryCalculator creates a SummaryCalculator that reads from eventLog.
func NewSummaryCalculator(eventLog EventLog) SummaryCalculator {
	return &summaryCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (sc *summaryCalculator) Calculate(since time.Time) (*Summary, error) {
	events, err := sc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for summary: %w", err)
	}

	s := &Summary{DispatchByPath: make(map[string]int)}
	s.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			s.OldestEvent = &t
		}
		t := event.Time
		s.NewestEvent = &t

		switch event.Type {
		case EventDispatched:
			s.Dispatched++
			s.DispatchByPath[event.Path]++
			e := event
			s.LastDispatch = &e
		case EventDispatchFailed:
			s.DispatchFailed++
		case EventReadFailed:
			s.ReadFailed++
		case EventNoGrowth:
			s.NoGrowth++
		case EventScriptRun:
			s.ScriptRuns++
		}
	}

	return s, nil
}
