// Package observability exposes the Prometheus metrics of bonsai-go.
// Error telemetry is handled by the telemetry package.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/bonsai-go/internal/observability/metrics"
)

// Metrics holds every collector of the application on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	Collection   *metrics.CollectionMetrics
	Notification *metrics.NotificationMetrics
	MQTT         *metrics.MQTTMetrics
	HTTP         *metrics.HTTPMetrics
}

// NewMetrics creates and registers all collectors, plus the Go runtime and
// process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collection, err := metrics.NewCollectionMetrics(registry)
	if err != nil {
		return nil, err
	}
	notification, err := metrics.NewNotificationMetrics(registry)
	if err != nil {
		return nil, err
	}
	mqtt, err := metrics.NewMQTTMetrics(registry)
	if err != nil {
		return nil, err
	}
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		registry:     registry,
		Collection:   collection,
		Notification: notification,
		MQTT:         mqtt,
		HTTP:         httpMetrics,
	}, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.HTTPErrorOnError,
		Registry:      m.registry,
	})
}

// RegisterHandlers mounts /metrics on mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", m.Handler())
}

// promLogger routes promhttp errors to the module logger.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	GetLogger().Error(fmt.Sprint(v...))
}
