package reminder

import (
	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/mqtt"
	"github.com/tphakala/bonsai-go/internal/notification"
	"github.com/tphakala/bonsai-go/internal/observability"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
)

// ErrNoChannels is returned when neither push notifications nor MQTT are enabled.
var ErrNoChannels = errors.NewStd("no reminder notification channel is enabled, configure notification.urls or mqtt")

// NewSenders builds a sender per enabled channel. m may be nil.
// The returned func releases the senders.
func NewSenders(settings *conf.Settings, m *observability.Metrics) ([]notification.Sender, func(), error) {
	var (
		senders     []notification.Sender
		mqttMetrics *metrics.MQTTMetrics
		closers     []func()
	)
	if m != nil {
		mqttMetrics = m.MQTT
	}

	if settings.Notification.Enabled {
		s, err := notification.NewShoutrrrSender(settings.Notification.URLs, settings.Notification.Timeout)
		if err != nil {
			return nil, nil, err
		}
		senders = append(senders, s)
	}

	if settings.MQTT.Enabled {
		cfg := mqtt.ConfigFromSettings(&settings.MQTT)
		client, err := mqtt.NewClient(cfg, mqttMetrics)
		if err != nil {
			return nil, nil, err
		}
		publisher := mqtt.NewPublisher(client, cfg.Topic)
		closers = append(closers, publisher.Close)
		senders = append(senders, publisher)
	}

	if len(senders) == 0 {
		return nil, nil, ErrNoChannels
	}

	release := func() {
		for _, c := range closers {
			c()
		}
	}
	return senders, release, nil
}

// NewChecker builds the reminder checker on the enabled channels.
// m may be nil. The returned func releases the senders.
func NewChecker(settings *conf.Settings, service *collection.Service, m *observability.Metrics) (*notification.Checker, func(), error) {
	senders, release, err := NewSenders(settings, m)
	if err != nil {
		return nil, nil, err
	}

	var notifyMetrics *metrics.NotificationMetrics
	if m != nil {
		notifyMetrics = m.Notification
	}

	checker, err := notification.NewChecker(service, senders,
		notification.WithRateLimit(settings.Notification.RateLimit, settings.Notification.Burst),
		notification.WithMetrics(notifyMetrics),
		notification.WithClock(service.Now),
	)
	if err != nil {
		release()
		return nil, nil, err
	}

	names := make([]string, 0, len(senders))
	for _, s := range senders {
		names = append(names, s.Name())
	}
	notification.GetLogger().Debug("reminder checker ready", logger.Any("senders", names))
	return checker, release, nil
}
