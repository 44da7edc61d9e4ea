package ingest

import (
	"log/slog"
	"time"

	"github.com/sig-0/mnrates/metrics"
)

type Option func(o *Orchestrator)

// WithLogger specifies the logger for the orchestrator
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithWorkers specifies the worker ceilings of the direct
// and rendered transport pools. Defaults to 8 and 2.
// Non-positive values keep the default
func WithWorkers(direct, rendered int) Option {
	return func(o *Orchestrator) {
		if direct > 0 {
			o.directWorkers = direct
		}

		if rendered > 0 {
			o.renderedWorkers = rendered
		}
	}
}

// WithAdapterTimeout specifies the per-adapter run timeout.
// Defaults to 2min
func WithAdapterTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.adapterTimeout = timeout
		}
	}
}

// WithMetrics specifies the metrics the orchestrator records to
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock specifies the time source of the orchestrator.
// Used for snapshot capture times
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}
