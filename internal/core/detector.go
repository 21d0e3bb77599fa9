package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/valter-silva-au/donewatch/pkg/models"
)

// ActionRunner runs the automation script with an optional payload.
// *Action satisfies it.
type ActionRunner interface {
	Run(ctx context.Context, payload *models.DispatchPayload) (string, error)
}

// Detector decides whether a file change represents a newly completed task
// and dispatches it. Failures of a single notification never escape
// HandleChange.
type Detector struct {
	config   ConfigProvider
	reader   ContentReader
	action   ActionRunner
	state    *StateTracker
	recorder OutcomeRecorder
	logger   Logger
	locks    pathLocks
}

// NewDetector creates a Detector. state, recorder and logger may be nil.
func NewDetector(config ConfigProvider, reader ContentReader, action ActionRunner, state *StateTracker, recorder OutcomeRecorder, logger Logger) *Detector {
	if state == nil {
		state = NewStateTracker()
	}
	return &Detector{
		config:   config,
		reader:   reader,
		action:   action,
		state:    state,
		recorder: recorder,
		logger:   orNopLogger(logger),
	}
}

// State returns the tracker holding the observed sequences.
func (d *Detector) State() *StateTracker {
	return d.state
}

// HandleChange processes one change notification for path. Notifications for
// the same path run one at a time.
func (d *Detector) HandleChange(ctx context.Context, path string) models.ChangeResult {
	result := d.handle(ctx, path)
	if d.recorder != nil {
		d.recorder.RecordChange(result)
	}
	return result
}

func (d *Detector) handle(ctx context.Context, path string) models.ChangeResult {
	result := models.ChangeResult{Path: path}
	cfg := d.config.Current()

	if !cfg.IsTarget(path) {
		result.Outcome = models.OutcomeIgnored
		return result
	}
	if !cfg.EnableDoneHeadingTrigger {
		result.Outcome = models.OutcomeDisabled
		return result
	}

	unlock := d.locks.lock(path)
	defer unlock()

	text, err := d.reader.ReadFile(ctx, path)
	if err != nil {
		d.logger.Error("reading target file", "path", path, "error", err)
		result.Outcome = models.OutcomeReadFailed
		result.Err = fmt.Errorf("reading %s: %w", path, err)
		return result
	}

	current := ExtractDoneTasks(text)
	result.Previous = d.state.Len(path)
	result.Current = len(current)
	defer d.state.Set(path, current)

	if result.Current <= result.Previous {
		d.logger.Debug("no new done task", "path", path, "previous", result.Previous, "current", result.Current)
		result.Outcome = models.OutcomeNoGrowth
		return result
	}

	payload := models.NewDispatchPayload(current[len(current)-1])
	result.Dispatched = &payload
	d.logger.Info("dispatching completed task", "path", path, "title", payload.Title)

	out, err := d.action.Run(ctx, &payload)
	result.Output = out
	if err != nil {
		d.logger.Error("dispatch failed", "path", path, "title", payload.Title, "error", err)
		result.Outcome = models.OutcomeDispatchFailed
		result.Err = err
		return result
	}

	result.Outcome = models.OutcomeDispatched
	return result
}

// Prime records the current Done sequence of every target file without
// dispatching. Files that cannot be read are skipped and reported in the
// returned error.
func (d *Detector) Prime(ctx context.Context) error {
	cfg := d.config.Current()
	var errs []error
	for _, path := range cfg.TargetFiles {
		unlock := d.locks.lock(path)
		text, err := d.reader.ReadFile(ctx, path)
		if err != nil {
			unlock()
			d.logger.Warn("priming target file", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("priming %s: %w", path, err))
			continue
		}
		tasks := ExtractDoneTasks(text)
		d.state.Set(path, tasks)
		unlock()
		d.logger.Debug("primed target file", "path", path, "tasks", len(tasks))
	}
	return errors.Join(errs...)
}
