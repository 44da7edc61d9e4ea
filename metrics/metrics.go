package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mnrates"

// Adapter run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
)

// Metrics holds the ingestion collectors.
// A nil *Metrics is valid and records nothing
type Metrics struct {
	adapterRuns     *prometheus.CounterVec
	adapterDuration *prometheus.HistogramVec
	snapshotsSaved  *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

// New creates and registers the ingestion collectors with the registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		adapterRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "adapter_runs_total",
				Help:      "Total number of bank adapter runs per bank and outcome",
			},
			[]string{"bank", "outcome"},
		),
		adapterDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "adapter_duration_seconds",
				Help:      "Bank adapter run duration in seconds per bank and transport kind",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"bank", "kind"},
		),
		snapshotsSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_saved_total",
				Help:      "Total number of persisted bank snapshots per bank",
			},
			[]string{"bank"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last completed ingestion run",
			},
		),
	}
}

// ObserveAdapterRun records a single adapter run
func (m *Metrics) ObserveAdapterRun(bank, kind, outcome string, took time.Duration) {
	if m == nil {
		return
	}

	m.adapterRuns.WithLabelValues(bank, outcome).Inc()
	m.adapterDuration.WithLabelValues(bank, kind).Observe(took.Seconds())
}

// SnapshotSaved records a persisted snapshot
func (m *Metrics) SnapshotSaved(bank string) {
	if m == nil {
		return
	}

	m.snapshotsSaved.WithLabelValues(bank).Inc()
}

// RunCompleted records the completion time of an ingestion run
func (m *Metrics) RunCompleted(at time.Time) {
	if m == nil {
		return
	}

	m.lastRun.Set(float64(at.Unix()))
}
