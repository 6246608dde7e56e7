// Package mqtt publishes reminder events to an MQTT broker so home
// automation can react to them, e.g. flash a light when a tree needs water.
package mqtt

import (
	"context"
	"time"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// Client is the broker connection used by the publisher.
type Client interface {
	// Connect connects to the broker. It is a no-op when already connected.
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	IsConnected() bool
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // reminder events are published here
	QoS      byte
	Retain   bool

	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
	MaxReconnectDelay time.Duration
}

// DefaultConfig returns a Config with default timeouts and no broker.
func DefaultConfig() Config {
	return Config{
		ClientID:          "bonsai-tracker",
		Topic:             "bonsai/reminders",
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
		MaxReconnectDelay: 5 * time.Minute,
	}
}

// ConfigFromSettings builds a Config from the mqtt settings section.
func ConfigFromSettings(s *conf.MQTTSettings) Config {
	cfg := DefaultConfig()
	cfg.Broker = s.Broker
	cfg.Username = s.Username
	cfg.Password = s.Password
	cfg.QoS = s.QoS
	cfg.Retain = s.Retain
	if s.ClientID != "" {
		cfg.ClientID = s.ClientID
	}
	if s.Topic != "" {
		cfg.Topic = s.Topic
	}
	return cfg
}

// GetLogger returns the mqtt package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("mqtt")
}
