// Package metrics defines Prometheus metrics for the alert watcher.
//
// Metric naming follows Prometheus conventions:
//   - alertwatch_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
)

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	// TicksTotal counts scheduler ticks.
	TicksTotal prometheus.Counter

	// CapturesTotal counts area captures by result (ok, error, timeout, cancelled).
	CapturesTotal *prometheus.CounterVec

	// CaptureDurationSeconds is a histogram of capture plus sampling latency.
	CaptureDurationSeconds prometheus.Histogram

	// SkippedTotal counts areas skipped because a previous capture was in flight.
	SkippedTotal prometheus.Counter

	// ActionsTotal counts engine decisions by action and state.
	ActionsTotal *prometheus.CounterVec

	// SoundsTotal counts sound requests by result (played, throttled, error).
	SoundsTotal *prometheus.CounterVec

	// DriftTotal counts perceptual layout changes of watch areas.
	DriftTotal prometheus.Counter

	// NotificationsTotal counts webhook deliveries by result.
	NotificationsTotal *prometheus.CounterVec

	// ActiveAlerts is the number of areas currently in alert.
	ActiveAlerts prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertwatch_ticks_total",
			Help: "Total number of scheduler ticks.",
		}),
		CapturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertwatch_captures_total",
			Help: "Total area captures by result.",
		}, []string{"result"}),
		CaptureDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alertwatch_capture_duration_seconds",
			Help:    "Duration of one area capture in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		SkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertwatch_area_skipped_total",
			Help: "Total area analyses skipped while a previous one was in flight.",
		}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertwatch_actions_total",
			Help: "Total alert decisions by action and state.",
		}, []string{"action", "state"}),
		SoundsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertwatch_sounds_total",
			Help: "Total alert sound requests by result.",
		}, []string{"result"}),
		DriftTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertwatch_area_drift_total",
			Help: "Total perceptual layout changes detected in watch areas.",
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertwatch_notifications_total",
			Help: "Total webhook deliveries by result.",
		}, []string{"result"}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertwatch_active_alerts",
			Help: "Number of watch areas currently in alert.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TicksTotal,
		m.CapturesTotal,
		m.CaptureDurationSeconds,
		m.SkippedTotal,
		m.ActionsTotal,
		m.SoundsTotal,
		m.DriftTotal,
		m.NotificationsTotal,
		m.ActiveAlerts,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TickStarted implements scheduler.Observer.
func (m *Metrics) TickStarted() { m.TicksTotal.Inc() }

// CaptureDone implements scheduler.Observer.
func (m *Metrics) CaptureDone(_ string, d time.Duration, err error) {
	m.CapturesTotal.WithLabelValues(CaptureResult(err)).Inc()
	m.CaptureDurationSeconds.Observe(d.Seconds())
}

// AreaSkipped implements scheduler.Observer.
func (m *Metrics) AreaSkipped(string) { m.SkippedTotal.Inc() }

// DriftDetected implements scheduler.Observer.
func (m *Metrics) DriftDetected(string, int) { m.DriftTotal.Inc() }

// RecordAction counts a non-noop engine decision.
func (m *Metrics) RecordAction(a alert.Action) {
	if a.Kind == alert.NoOp {
		return
	}
	m.ActionsTotal.WithLabelValues(a.Kind.String(), a.State.String()).Inc()
}

// RecordSound counts a sound request outcome.
func (m *Metrics) RecordSound(played bool, err error) {
	switch {
	case err != nil:
		m.SoundsTotal.WithLabelValues("error").Inc()
	case played:
		m.SoundsTotal.WithLabelValues("played").Inc()
	default:
		m.SoundsTotal.WithLabelValues("throttled").Inc()
	}
}

// RecordNotification counts a webhook delivery outcome.
func (m *Metrics) RecordNotification(n int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NotificationsTotal.WithLabelValues(result).Add(float64(n))
}

// SetActiveAlerts records the number of areas in alert.
func (m *Metrics) SetActiveAlerts(n int) { m.ActiveAlerts.Set(float64(n)) }
