// Package rankingmetrics defines the metrics contract for the ranking module.
package rankingmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RankingMetrics records operation and handler outcomes for the ranking module.
type RankingMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)

	RecordHandlerAttempt(handlerName string)
	RecordHandlerSuccess(handlerName string)
	RecordHandlerFailure(handlerName string)
	RecordHandlerDuration(handlerName string, seconds float64)

	RecordSnapshotRowsWritten(ctx context.Context, scopeType string, count int)
}

type prometheusMetrics struct {
	operationAttempts  *prometheus.CounterVec
	operationSuccesses *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec

	handlerAttempts  *prometheus.CounterVec
	handlerSuccesses *prometheus.CounterVec
	handlerFailures  *prometheus.CounterVec
	handlerDuration  *prometheus.HistogramVec

	snapshotRowsWritten *prometheus.CounterVec
}

// NewPrometheusMetrics registers ranking metrics on the given registry.
func NewPrometheusMetrics(registry prometheus.Registerer) RankingMetrics {
	m := &prometheusMetrics{
		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "operation_attempts_total",
			Help:      "Number of ranking service operation attempts.",
		}, []string{"operation"}),
		operationSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "operation_successes_total",
			Help:      "Number of ranking service operations that succeeded.",
		}, []string{"operation"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "operation_failures_total",
			Help:      "Number of ranking service operations that failed.",
		}, []string{"operation"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ranking",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ranking service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		handlerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "handler_attempts_total",
			Help:      "Number of message handler invocations.",
		}, []string{"handler"}),
		handlerSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "handler_successes_total",
			Help:      "Number of message handler invocations that succeeded.",
		}, []string{"handler"}),
		handlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "handler_failures_total",
			Help:      "Number of message handler invocations that failed.",
		}, []string{"handler"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ranking",
			Name:      "handler_duration_seconds",
			Help:      "Duration of message handler invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		snapshotRowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "snapshot_rows_written_total",
			Help:      "Number of snapshot rows written, by scope type.",
		}, []string{"scope_type"}),
	}

	registry.MustRegister(
		m.operationAttempts, m.operationSuccesses, m.operationFailures, m.operationDuration,
		m.handlerAttempts, m.handlerSuccesses, m.handlerFailures, m.handlerDuration,
		m.snapshotRowsWritten,
	)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation string) {
	m.operationAttempts.WithLabelValues(operation).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation string) {
	m.operationSuccesses.WithLabelValues(operation).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation string) {
	m.operationFailures.WithLabelValues(operation).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordHandlerAttempt(handlerName string) {
	m.handlerAttempts.WithLabelValues(handlerName).Inc()
}

func (m *prometheusMetrics) RecordHandlerSuccess(handlerName string) {
	m.handlerSuccesses.WithLabelValues(handlerName).Inc()
}

func (m *prometheusMetrics) RecordHandlerFailure(handlerName string) {
	m.handlerFailures.WithLabelValues(handlerName).Inc()
}

func (m *prometheusMetrics) RecordHandlerDuration(handlerName string, seconds float64) {
	m.handlerDuration.WithLabelValues(handlerName).Observe(seconds)
}

func (m *prometheusMetrics) RecordSnapshotRowsWritten(_ context.Context, scopeType string, count int) {
	m.snapshotRowsWritten.WithLabelValues(scopeType).Add(float64(count))
}

// NoOpMetrics discards all recordings. Used in tests.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordHandlerAttempt(string)                                    {}
func (NoOpMetrics) RecordHandlerSuccess(string)                                    {}
func (NoOpMetrics) RecordHandlerFailure(string)                                    {}
func (NoOpMetrics) RecordHandlerDuration(string, float64)                          {}
func (NoOpMetrics) RecordSnapshotRowsWritten(context.Context, string, int)         {}
