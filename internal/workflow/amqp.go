package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPTrigger publishes requests to a durable direct exchange consumed by
// the generation workflow.
type AMQPTrigger struct {
	url        string
	exchange   string
	routingKey string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPTrigger(url, exchange, routingKey string) *AMQPTrigger {
	return &AMQPTrigger{url: url, exchange: exchange, routingKey: routingKey}
}

func (a *AMQPTrigger) Name() string {
	return "amqp"
}

func (a *AMQPTrigger) Trigger(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.connectLocked(); err != nil {
		return err
	}

	err = a.ch.PublishWithContext(ctx, a.exchange, a.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    req.SubmissionID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		a.resetLocked()
		return fmt.Errorf("failed to publish submission %s: %w", req.SubmissionID, err)
	}
	return nil
}

// connectLocked dials lazily and redials after the broker dropped us.
func (a *AMQPTrigger) connectLocked() error {
	if a.conn != nil && !a.conn.IsClosed() && a.ch != nil && !a.ch.IsClosed() {
		return nil
	}
	a.resetLocked()

	conn, err := amqp.Dial(a.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := ch.ExchangeDeclare(a.exchange, "direct", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", a.exchange, err)
	}

	a.conn = conn
	a.ch = ch
	return nil
}

func (a *AMQPTrigger) resetLocked() {
	if a.ch != nil {
		_ = a.ch.Close()
		a.ch = nil
	}
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
}

func (a *AMQPTrigger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
	return nil
}
