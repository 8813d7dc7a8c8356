package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huyvuong1109/Financial-Management-Web/internal/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Dispatcher hands alert messages to the notification side.
//
// Dispatch is fire-and-forget from the caller's point of view: the budget
// tracker logs a returned error but never propagates it to the request that
// triggered the evaluation.
type Dispatcher interface {
	Dispatch(ctx context.Context, message Message) error
}

// AMQPDispatcher publishes alert messages to a durable RabbitMQ queue.
type AMQPDispatcher struct {
	channel *amqp.Channel
}

// NewAMQPDispatcher opens a channel on the connection and declares the
// alert queue.
func NewAMQPDispatcher(conn *amqp.Connection) (*AMQPDispatcher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(Queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue %q: %w", Queue, err)
	}

	return &AMQPDispatcher{channel: channel}, nil
}

// Dispatch serializes the message and pushes it to the queue. There is no
// acknowledgment or retry contract; a failed publish means the alert is not
// delivered.
func (d *AMQPDispatcher) Dispatch(ctx context.Context, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to serialize alert message: %w", err)
	}

	err = d.channel.PublishWithContext(ctx, "", Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert message: %w", err)
	}

	metrics.AlertsPublished.Inc()
	return nil
}

// LogDispatcher logs alert messages instead of publishing them. It is used
// when no broker is configured, e.g. in development.
type LogDispatcher struct{}

// Dispatch logs the message.
func (LogDispatcher) Dispatch(_ context.Context, message Message) error {
	log.Info().
		Str("budget", message.BudgetID.String()).
		Str("type", string(message.AlertType)).
		Msg("alert dispatch disabled, discarding message")
	return nil
}
