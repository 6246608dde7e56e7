package mqtt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
	"github.com/tphakala/bonsai-go/internal/privacy"
)

// client implements Client on top of paho.
type client struct {
	config   Config
	metrics  *metrics.MQTTMetrics
	mu       sync.Mutex
	internal paho.Client
}

// NewClient creates an unconnected client. m may be nil.
func NewClient(cfg Config, m *metrics.MQTTMetrics) (Client, error) {
	if cfg.Broker == "" {
		return nil, mqttError(errors.NewStd("mqtt broker is not configured"), "new_client", errors.CategoryConfiguration)
	}
	if _, err := url.Parse(cfg.Broker); err != nil {
		return nil, mqttError(err, "new_client", errors.CategoryConfiguration)
	}
	return &client{config: cfg, metrics: m}, nil
}

// Connect resolves the broker host and connects. paho keeps the session
// alive and reconnects on its own afterwards.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internal != nil && c.internal.IsConnected() {
		return nil
	}

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return mqttError(err, "connect", errors.CategoryConfiguration)
	}
	if host := u.Hostname(); net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return mqttError(err, "resolve", errors.CategoryNetwork)
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(c.config.MaxReconnectDelay)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.internal = paho.NewClient(opts)
	token := c.internal.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return mqttError(ctx.Err(), "connect", errors.CategoryCancellation)
	case <-time.After(c.config.ConnectTimeout):
		return mqttError(fmt.Errorf("connection timeout after %s", c.config.ConnectTimeout), "connect", errors.CategoryNetwork)
	}
	if err := token.Error(); err != nil {
		return mqttError(err, "connect", errors.CategoryNetwork)
	}
	return nil
}

// Publish sends payload to topic with the configured QoS and retain flag.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	err := c.publish(ctx, topic, payload)
	if c.metrics != nil {
		c.metrics.RecordPublish(len(payload), start, err)
	}
	return err
}

func (c *client) publish(ctx context.Context, topic string, payload []byte) error {
	if c.internal == nil || !c.internal.IsConnected() {
		return mqttError(errors.NewStd("not connected to MQTT broker"), "publish", errors.CategoryMQTTPublish)
	}

	token := c.internal.Publish(topic, c.config.QoS, c.config.Retain, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return mqttError(ctx.Err(), "publish", errors.CategoryCancellation)
	case <-time.After(c.config.PublishTimeout):
		return mqttError(fmt.Errorf("publish timeout on topic %s", topic), "publish", errors.CategoryMQTTPublish)
	}
	if err := token.Error(); err != nil {
		return mqttError(err, "publish", errors.CategoryMQTTPublish)
	}

	GetLogger().Debug("published reminder event",
		logger.String("topic", topic),
		logger.Int("size", len(payload)))
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internal != nil && c.internal.IsConnected()
}

// Disconnect closes the broker connection.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internal == nil {
		return
	}
	c.internal.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	c.internal = nil
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
	}
}

func (c *client) onConnect(paho.Client) {
	GetLogger().Info("connected to MQTT broker", logger.String("broker", privacy.RedactURL(c.config.Broker)))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(true)
	}
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	GetLogger().Warn("connection to MQTT broker lost",
		logger.String("broker", privacy.RedactURL(c.config.Broker)),
		logger.Error(err))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
		c.metrics.Errors.Inc()
	}
}

func (c *client) onReconnecting(paho.Client, *paho.ClientOptions) {
	if c.metrics != nil {
		c.metrics.ReconnectAttempts.Inc()
	}
}

// mqttError categorizes err and strips broker credentials from its message.
func mqttError(err error, op string, category errors.ErrorCategory) error {
	return errors.New(privacy.WrapError(err)).
		Component("mqtt").
		Category(category).
		Context("operation", op).
		Build()
}
