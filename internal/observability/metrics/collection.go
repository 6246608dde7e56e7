package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectionMetrics records collection service operations.
type CollectionMetrics struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	errors     *prometheus.CounterVec
}

var _ Recorder = (*CollectionMetrics)(nil)

// NewCollectionMetrics creates the collectors and registers them.
func NewCollectionMetrics(registry prometheus.Registerer) (*CollectionMetrics, error) {
	m := &CollectionMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonsai_operations_total",
			Help: "Total number of collection operations by operation and status",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bonsai_operation_duration_seconds",
			Help:    "Duration of collection operations in seconds",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonsai_operation_errors_total",
			Help: "Total number of failed collection operations by operation and error category",
		}, []string{"operation", "error_type"}),
	}

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register collection metrics: %w", err)
	}
	return m, nil
}

// RecordOperation implements Recorder.
func (m *CollectionMetrics) RecordOperation(operation, status string) {
	m.operations.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *CollectionMetrics) RecordDuration(operation string, seconds float64) {
	m.durations.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *CollectionMetrics) RecordError(operation, errorType string) {
	m.errors.WithLabelValues(operation, errorType).Inc()
}

// Describe implements prometheus.Collector.
func (m *CollectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operations.Describe(ch)
	m.durations.Describe(ch)
	m.errors.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *CollectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operations.Collect(ch)
	m.durations.Collect(ch)
	m.errors.Collect(ch)
}
