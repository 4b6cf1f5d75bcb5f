package operations

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gitlab.com/folio-vcs/folio/internal/errors"
)

const (
	statusSuccess   = "success"
	statusConflict  = "conflict"
	statusNoChanges = "no_changes"
	statusEmpty     = "empty"
	statusNotFound  = "not_found"
	statusInvalid   = "invalid"
	statusError     = "error"
)

// Metrics collects Prometheus metrics about the operations run by a Service.
type Metrics struct {
	operationsTotal       *prometheus.CounterVec
	operationLatency      *prometheus.HistogramVec
	rollbacksTotal        *prometheus.CounterVec
	conflictingPathsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_operations_total",
				Help: "Total number of operations by their final status",
			},
			[]string{"operation", "status"},
		),
		operationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folio_operation_duration_seconds",
				Help:    "Latency of operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		rollbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_rollbacks_total",
				Help: "Total number of transactions that have been rolled back",
			},
			[]string{"operation"},
		),
		conflictingPathsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_conflicting_paths_total",
				Help: "Total number of conflicting paths operations have run into",
			},
			[]string{"operation"},
		),
	}
}

// Describe is used to describe Prometheus metrics.
func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, descs)
}

// Collect is used to collect Prometheus metrics.
func (m *Metrics) Collect(metrics chan<- prometheus.Metric) {
	m.operationsTotal.Collect(metrics)
	m.operationLatency.Collect(metrics)
	m.rollbacksTotal.Collect(metrics)
	m.conflictingPathsTotal.Collect(metrics)
}

func (m *Metrics) observe(operation string, latency time.Duration, err error) {
	m.operationsTotal.WithLabelValues(operation, status(err)).Inc()
	m.operationLatency.WithLabelValues(operation).Observe(latency.Seconds())

	var conflictErr errors.MergeConflictError
	if stderrors.As(err, &conflictErr) {
		m.conflictingPathsTotal.WithLabelValues(operation).Add(float64(len(conflictErr.Paths)))
	}
}

func (m *Metrics) rollback(operation string) {
	m.rollbacksTotal.WithLabelValues(operation).Inc()
}

func status(err error) string {
	var (
		conflictErr errors.MergeConflictError
		notFoundErr errors.CommitNotFoundError
		mainlineErr errors.InvalidMainlineError
		stateErr    errors.RepositoryStateError
		argumentErr errors.InvalidArgumentError
	)

	switch {
	case err == nil:
		return statusSuccess
	case stderrors.As(err, &conflictErr):
		return statusConflict
	case stderrors.Is(err, errors.ErrNoChangesToSave):
		return statusNoChanges
	case stderrors.Is(err, errors.ErrEmptyChange):
		return statusEmpty
	case stderrors.Is(err, errors.ErrRepositoryNotFound), stderrors.As(err, &notFoundErr):
		return statusNotFound
	case stderrors.As(err, &mainlineErr), stderrors.As(err, &stateErr), stderrors.As(err, &argumentErr):
		return statusInvalid
	default:
		return statusError
	}
}
