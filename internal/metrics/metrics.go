// Package metrics exposes Prometheus collectors for statement execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector records statement counts, latency and rows read.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Statements counts executed statements by operation and outcome.
	Statements *prometheus.CounterVec

	// Duration is the statement latency in seconds.
	Duration *prometheus.HistogramVec

	// Rows counts rows produced by read operations.
	Rows *prometheus.CounterVec
}

// New creates a Collector registered with reg. A nil reg leaves the
// collectors unregistered, which is useful in tests.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		Statements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nosqlite_statements_total",
				Help: "Total number of executed statements",
			},
			[]string{"op", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nosqlite_statement_duration_seconds",
				Help:    "Statement latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nosqlite_rows_total",
				Help: "Total number of rows read by queries",
			},
			[]string{"op"},
		),
	}
}

// ObserveStatement records one statement execution.
func (c *Collector) ObserveStatement(op string, err error, d time.Duration) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.Statements.WithLabelValues(op, outcome).Inc()
	c.Duration.WithLabelValues(op).Observe(d.Seconds())
}

// AddRows records n rows read by op.
func (c *Collector) AddRows(op string, n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.Rows.WithLabelValues(op).Add(float64(n))
}
