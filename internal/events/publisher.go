package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/behaviorlab/inconsistency-meter/internal/resilience"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher announces session lifecycle events to other services
type Publisher interface {
	PublishSessionScored(ctx context.Context, result *analysis.SessionScoreResult) error
	PublishSessionDeleted(ctx context.Context, sessionID, reason string) error
	Close() error
}

// Metrics is the subset of monitoring.Metrics the publisher reports to
type Metrics interface {
	RecordEventPublish(success bool)
}

// amqpChannel is the part of *amqp091.Channel the publisher needs
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// EventPublisher publishes JSON events to a RabbitMQ topic exchange. With no
// broker configured it is disabled and every publish is a no-op. Publishes
// are retried briefly and go through the "amqp" circuit breaker.
type EventPublisher struct {
	conn         *amqp091.Connection
	channel      amqpChannel
	exchangeName string
	enabled      bool
	metrics      Metrics
	breaker      *resilience.CircuitBreaker
	retry        resilience.RetryConfig
}

// DisabledPublisher returns a publisher whose publishes are no-ops
func DisabledPublisher(metrics Metrics) *EventPublisher {
	return &EventPublisher{enabled: false, metrics: metrics}
}

// NewEventPublisher connects to RabbitMQ and declares the exchange. When the
// broker cannot be reached it returns a disabled publisher together with the
// error, so callers can log and carry on.
func NewEventPublisher(rabbitURI, exchangeName string, metrics Metrics) (*EventPublisher, error) {
	if rabbitURI == "" {
		slog.Warn("AMQP URL is empty, event publishing is disabled")
		return DisabledPublisher(metrics), nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return DisabledPublisher(metrics), fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return DisabledPublisher(metrics), fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return DisabledPublisher(metrics), fmt.Errorf("failed to declare exchange: %w", err)
	}

	slog.Info("Event publisher connected", "exchange", exchangeName)

	breaker := resilience.GetCircuitBreaker("amqp", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	})

	return &EventPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		enabled:      true,
		metrics:      metrics,
		breaker:      breaker,
		retry:        resilience.FastRetryPolicy.Config,
	}, nil
}

func (p *EventPublisher) Enabled() bool {
	return p.enabled
}

func (p *EventPublisher) publishEvent(ctx context.Context, event Event) error {
	if !p.enabled {
		slog.Debug("Event publishing is disabled, skipping event", "type", event.Type)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Body:         body,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = resilience.RetryWithConfig(pubCtx, p.retry, func() error {
		return p.call(func() error {
			return p.channel.PublishWithContext(
				pubCtx,
				p.exchangeName,     // exchange
				string(event.Type), // routing key
				false,              // mandatory
				false,              // immediate
				msg,
			)
		})
	})
	if p.metrics != nil {
		p.metrics.RecordEventPublish(err == nil)
	}
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published event", "type", event.Type, "id", event.ID)
	return nil
}

func (p *EventPublisher) call(fn func() error) error {
	if p.breaker == nil {
		return fn()
	}
	return p.breaker.Call(fn)
}

func (p *EventPublisher) PublishSessionScored(ctx context.Context, result *analysis.SessionScoreResult) error {
	return p.publishEvent(ctx, NewSessionScoredEvent(result))
}

func (p *EventPublisher) PublishSessionDeleted(ctx context.Context, sessionID, reason string) error {
	return p.publishEvent(ctx, NewSessionDeletedEvent(sessionID, reason))
}

// Close closes the connection to RabbitMQ
func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			slog.Warn("Error closing RabbitMQ channel", "error", err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}

	return nil
}
