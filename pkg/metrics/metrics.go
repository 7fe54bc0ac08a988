// Package metrics exposes Prometheus collectors for file-manager
// operations. Metrics are operator observability and are entirely separate
// from the audit trail, which is a security record.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the operations counter.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation_error"
	OutcomeDenied     = "denied"
	OutcomeStorage    = "storage_error"
)

// Metrics holds the collectors registered by the server.
type Metrics struct {
	// Operations counts dispatched operations by action and outcome.
	Operations *prometheus.CounterVec

	// OperationDuration observes end-to-end operation latency by action.
	OperationDuration *prometheus.HistogramVec

	// AuditFailures counts audit events that could not be recorded.
	AuditFailures prometheus.Counter
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bucketfm",
			Name:      "operations_total",
			Help:      "File-manager operations by action and outcome.",
		}, []string{"action", "outcome"}),

		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bucketfm",
			Name:      "operation_duration_seconds",
			Help:      "End-to-end operation latency by action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),

		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bucketfm",
			Name:      "audit_failures_total",
			Help:      "Audit events that could not be recorded.",
		}),
	}

	reg.MustRegister(m.Operations, m.OperationDuration, m.AuditFailures)

	return m
}

// ObserveOperation records one completed operation. Nil receivers are
// tolerated so metrics stay optional in tests.
func (m *Metrics) ObserveOperation(action, outcome string, start time.Time) {
	if m == nil {
		return
	}

	m.Operations.WithLabelValues(action, outcome).Inc()
	m.OperationDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

// ObserveAuditFailure records one failed audit write.
func (m *Metrics) ObserveAuditFailure() {
	if m == nil {
		return
	}

	m.AuditFailures.Inc()
}
