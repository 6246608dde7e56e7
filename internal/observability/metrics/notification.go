package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics records reminder notification delivery.
type NotificationMetrics struct {
	DeliveriesTotal  *prometheus.CounterVec   // by service and status
	DeliveryDuration *prometheus.HistogramVec // by service
	RateLimited      prometheus.Counter
	PendingReminders prometheus.Gauge // due and not yet notified at the last check
	LastCheckTime    prometheus.Gauge
}

// NewNotificationMetrics creates the collectors and registers them.
func NewNotificationMetrics(registry prometheus.Registerer) (*NotificationMetrics, error) {
	m := &NotificationMetrics{
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Total number of reminder notification deliveries by service and status",
		}, []string{"service", "status"}),
		DeliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Time taken to deliver a reminder notification",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"service"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_rate_limited_total",
			Help: "Total number of notifications deferred by the rate limiter",
		}),
		PendingReminders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_pending_reminders",
			Help: "Due reminders awaiting notification at the last check",
		}),
		LastCheckTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_last_check_timestamp_seconds",
			Help: "Timestamp of the last reminder check",
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register notification metrics: %w", err)
	}
	return m, nil
}

// RecordDelivery counts one delivery attempt and its latency.
func (m *NotificationMetrics) RecordDelivery(service string, err error, seconds float64) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.DeliveriesTotal.WithLabelValues(service, status).Inc()
	m.DeliveryDuration.WithLabelValues(service).Observe(seconds)
}

// RecordCheck stores the outcome of a reminder check.
func (m *NotificationMetrics) RecordCheck(pending int) {
	m.PendingReminders.Set(float64(pending))
	m.LastCheckTime.SetToCurrentTime()
}

// Describe implements prometheus.Collector.
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.DeliveriesTotal.Describe(ch)
	m.DeliveryDuration.Describe(ch)
	ch <- m.RateLimited.Desc()
	ch <- m.PendingReminders.Desc()
	ch <- m.LastCheckTime.Desc()
}

// Collect implements prometheus.Collector.
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.DeliveriesTotal.Collect(ch)
	m.DeliveryDuration.Collect(ch)
	ch <- m.RateLimited
	ch <- m.PendingReminders
	ch <- m.LastCheckTime
}
