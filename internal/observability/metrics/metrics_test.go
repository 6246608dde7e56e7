package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gather returns the metric family called name from registry.
func gather(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	require.Failf(t, "metric family not found", "%s", name)
	return nil
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestCollectionMetricsRecorder(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m, err := NewCollectionMetrics(registry)
	require.NoError(t, err)

	var r Recorder = m
	r.RecordOperation("tree_create", StatusSuccess)
	r.RecordOperation("tree_create", StatusSuccess)
	r.RecordOperation("tree_create", StatusError)
	r.RecordError("tree_create", "conflict")
	r.RecordDuration("tree_create", 0.02)
	r.RecordDuration("tree_create", 0.5)

	assert.InDelta(t, 2, testutil.ToFloat64(m.operations.WithLabelValues("tree_create", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errors.WithLabelValues("tree_create", "conflict")), 0)

	family := gather(t, registry, "bonsai_operation_duration_seconds")
	require.Len(t, family.GetMetric(), 1)
	hist := family.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.52, hist.GetSampleSum(), 1e-9)
	assert.Equal(t, map[string]string{"operation": "tree_create"}, labels(family.GetMetric()[0]))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	_, err := NewCollectionMetrics(registry)
	require.NoError(t, err)

	_, err = NewCollectionMetrics(registry)
	require.Error(t, err)
}

func TestNotificationMetrics(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m, err := NewNotificationMetrics(registry)
	require.NoError(t, err)

	m.RecordDelivery("telegram", nil, 0.2)
	m.RecordDelivery("telegram", errors.New("unauthorized"), 1.5)
	m.RecordCheck(3)
	m.RateLimited.Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("telegram", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("telegram", StatusError)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.PendingReminders), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimited), 0)
	assert.Positive(t, testutil.ToFloat64(m.LastCheckTime))
}

func TestMQTTMetrics(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m, err := NewMQTTMetrics(registry)
	require.NoError(t, err)

	m.UpdateConnectionStatus(true)
	m.RecordPublish(128, time.Now(), nil)
	m.RecordPublish(128, time.Now(), errors.New("not connected"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.ConnectionStatus), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesDelivered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors), 0)

	hist := gather(t, registry, "mqtt_message_size_bytes").GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(registry)
	require.NoError(t, err)

	m.RequestStarted()
	m.RequestStarted()
	m.RequestFinished("GET", "/api/v1/trees/:id", 404, 0.003)

	assert.InDelta(t, 1, testutil.ToFloat64(m.inFlight), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/trees/:id", "404")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}
