package event

import (
	"context"
	"fmt"

	"github.com/interpretly/booking-be/shared/rabbitmq"
)

// AMQPPublisher publishes booking events through the shared RabbitMQ
// client with publish retries.
type AMQPPublisher struct {
	client *rabbitmq.Client
}

func NewAMQPPublisher(client *rabbitmq.Client) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.PublishWithRetry(ctx, body, "application/json")
}
