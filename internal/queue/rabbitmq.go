// Package queue publishes security events to RabbitMQ so downstream
// consumers (alerting, analytics) can react without touching the hot path.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/socialsuit/Backend-Socialsuit/internal/audit"
)

const (
	// DefaultExchangeName is the exchange security events are published to.
	DefaultExchangeName = "security_events"
	// DefaultQueueName is the queue bound for audit consumers.
	DefaultQueueName = "security_audit_events"
	// DefaultRoutingKey routes all security events.
	DefaultRoutingKey = "security.event"
)

// RabbitMQPublisher implements audit.EventPublisher over an AMQP channel.
type RabbitMQPublisher struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	queueName    string
	routingKey   string
}

var _ audit.EventPublisher = (*RabbitMQPublisher)(nil)

// NewRabbitMQPublisher connects to RabbitMQ and declares the security event
// exchange and queue.
func NewRabbitMQPublisher(amqpURL string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &RabbitMQPublisher{
		conn:         conn,
		channel:      ch,
		exchangeName: DefaultExchangeName,
		queueName:    DefaultQueueName,
		routingKey:   DefaultRoutingKey,
	}

	if err := p.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setup security event queue: %w", err)
	}

	return p, nil
}

// setup declares the exchange, the queue, and the binding between them.
func (p *RabbitMQPublisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(
		p.queueName,
		"security.#",
		p.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishEvent sends one security event as a persistent JSON message.
func (p *RabbitMQPublisher) PublishEvent(ctx context.Context, e audit.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		p.routingKey+"."+e.Kind,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID.String(),
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish security event: %w", err)
	}
	return nil
}

// Ping reports whether the connection is still usable.
func (p *RabbitMQPublisher) Ping(_ context.Context) error {
	if p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection closed")
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		_ = p.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}
