package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

// Metrics exposes Prometheus collectors that report watcher activity.
type Metrics struct {
	changeEvents   *prometheus.CounterVec
	scriptDuration *prometheus.HistogramVec
	trackedFiles   prometheus.Gauge
}

// MustNewMetrics constructs Metrics and registers them with reg. Pass a fresh
// prometheus.NewRegistry() in tests. Registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		changeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "donewatch",
				Name:      "change_events_total",
				Help:      "File change notifications handled, by outcome.",
			},
			[]string{"outcome"},
		),
		scriptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "donewatch",
				Name:      "script_duration_seconds",
				Help:      "Wall time of automation script invocations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		trackedFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "donewatch",
				Name:      "target_files",
				Help:      "Number of configured target files.",
			},
		),
	}
	reg.MustRegister(m.changeEvents, m.scriptDuration, m.trackedFiles)

	// Pre-create the outcome series so they export as zero.
	for _, o := range models.AllOutcomes {
		m.changeEvents.WithLabelValues(string(o))
	}
	return m
}

// ObserveChange counts one handled notification.
func (m *Metrics) ObserveChange(outcome models.Outcome) {
	if m == nil {
		return
	}
	m.changeEvents.WithLabelValues(string(outcome)).Inc()
}

// ObserveScript records a script invocation's duration.
func (m *Metrics) ObserveScript(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.scriptDuration.WithLabelValues(status).Observe(d.Seconds())
}

// SetTargetFiles updates the configured target count.
func (m *Metrics) SetTargetFiles(n int) {
	if m == nil {
		return
	}
	m.trackedFiles.Set(float64(n))
}

// ScriptRunner mirrors core.ScriptRunner so runners can be instrumented
// without importing core.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

type instrumentedRunner struct {
	next    ScriptRunner
	metrics *Metrics
	now     func() time.Time
}

// InstrumentRunner wraps next so each Run is timed into m.
func InstrumentRunner(next ScriptRunner, m *Metrics) ScriptRunner {
	if m == nil {
		return next
	}
	return &instrumentedRunner{next: next, metrics: m, now: time.Now}
}

func (r *instrumentedRunner) Run(ctx context.Context, script string) (string, error) {
	start := r.now()
	out, err := r.next.Run(ctx, script)
	if errors.Is(err, context.Canceled) {
		return out, err
	}
	r.metrics.ObserveScript(r.now().Sub(start), err)
	return out, err
}
