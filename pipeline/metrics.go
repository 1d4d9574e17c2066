package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks stage run outcomes and durations. Each Metrics owns its
// registry so multiple managers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the pipeline metric vectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedal_stage_runs_total",
				Help: "Count of stage runs by stage and final status",
			},
			[]string{"stage", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pedal_stage_run_duration_seconds",
				Help:    "Stage run duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-3, 2, 14), // 1ms to ~16s
			},
			[]string{"stage"},
		),
	}
	m.registry.MustRegister(m.runs, m.duration)
	return m
}

// Registry exposes the underlying registry for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records the outcome and duration of one stage run.
func (m *Metrics) ObserveRun(stage string, status StageStatus, elapsed time.Duration) {
	m.runs.WithLabelValues(stage, status.String()).Inc()
	m.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
