package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/notification"
)

// Publisher delivers reminder notifications as MQTT events. It connects
// lazily on the first send.
type Publisher struct {
	client Client
	topic  string
	now    func() time.Time
}

var _ notification.Sender = (*Publisher)(nil)

// NewPublisher creates a Publisher that sends to topic through client.
func NewPublisher(client Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic, now: time.Now}
}

// Name implements notification.Sender.
func (p *Publisher) Name() string { return "mqtt" }

// Send implements notification.Sender.
func (p *Publisher) Send(ctx context.Context, msg *notification.Message) error {
	payload, err := json.Marshal(NewReminderEvent(msg, p.now()))
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "marshal").
			Build()
	}

	if !p.client.IsConnected() {
		if err := p.client.Connect(ctx); err != nil {
			return err
		}
	}
	return p.client.Publish(ctx, p.topic, payload)
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect()
}
