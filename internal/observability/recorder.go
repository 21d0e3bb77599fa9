package observability

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

// ChangeRecorder writes handled notifications to the event log and metrics.
// Either sink may be nil.
type ChangeRecorder struct {
	log     EventLog
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewChangeRecorder creates a ChangeRecorder.
func NewChangeRecorder(log EventLog, metrics *Metrics, logger *slog.Logger) *ChangeRecorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChangeRecorder{
		log:     log,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// RecordChange stores one detector result. Ignored notifications only count
// towards metrics; they would flood the log otherwise.
func (r *ChangeRecorder) RecordChange(result models.ChangeResult) {
	r.metrics.ObserveChange(result.Outcome)

	event, ok := r.eventFor(result)
	if !ok {
		return
	}
	r.write(event)
}

// RecordScriptRun stores a manual script invocation.
func (r *ChangeRecorder) RecordScriptRun(output string, err error) {
	event := Event{
		Type:    EventScriptRun,
		Level:   LevelInfo,
		Message: "script run",
		Data:    map[string]any{"output": output},
	}
	if err != nil {
		event.Level = LevelError
		event.Data["error"] = err.Error()
	}
	r.write(event)
}

func (r *ChangeRecorder) eventFor(result models.ChangeResult) (Event, bool) {
	event := Event{
		Path: result.Path,
		Data: map[string]any{
			"previous": result.Previous,
			"current":  result.Current,
		},
	}
	if result.Dispatched != nil {
		event.Data["title"] = result.Dispatched.Title
	}
	if result.Err != nil {
		event.Data["error"] = result.Err.Error()
	}

	switch result.Outcome {
	case models.OutcomeDispatched:
		event.Type, event.Level, event.Message = EventDispatched, LevelInfo, "completed task dispatched"
		event.Data["output"] = result.Output
	case models.OutcomeDispatchFailed:
		event.Type, event.Level, event.Message = EventDispatchFailed, LevelError, "dispatch failed"
	case models.OutcomeReadFailed:
		event.Type, event.Level, event.Message = EventReadFailed, LevelError, "reading target failed"
	case models.OutcomeNoGrowth:
		event.Type, event.Level, event.Message = EventNoGrowth, LevelInfo, "no new completed task"
	case models.OutcomeDisabled:
		event.Type, event.Level, event.Message = EventDisabled, LevelInfo, "trigger disabled"
	default:
		return Event{}, false
	}
	return event, true
}

func (r *ChangeRecorder) write(event Event) {
	if r.log == nil {
		return
	}
	event.ID = r.newID()
	event.Time = r.now()
	if err := r.log.Write(event); err != nil {
		r.logger.Warn("writing event log", "type", event.Type, "error", err)
	}
}
