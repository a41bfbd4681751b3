// Package audit provides audit sinks beyond the Postgres audit table: an AMQP publisher and a
// fan-out that writes to several sinks at once.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
)

// RoutingKeyPrefix prefixes the event type in AMQP routing keys, e.g. "audit.content_published".
const RoutingKeyPrefix = "audit."

// channel is the subset of *amqp.Channel used by AMQPSink.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publishes audit events to a topic exchange.
type AMQPSink struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

var _ core.AuditSink = (*AMQPSink)(nil)

// DialAMQPSink connects to the broker and declares a durable topic exchange.
func DialAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

// Record publishes the event as JSON with a persistent delivery mode.
func (s *AMQPSink) Record(ctx context.Context, event model.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.CreatedAt,
		Type:         string(event.Type),
		Body:         body,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return errors.New("amqp sink closed")
	}
	if err := s.ch.Publish(s.exchange, RoutingKeyPrefix+string(event.Type), false, false, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.ch != nil {
		errs = append(errs, s.ch.Close())
		s.ch = nil
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	return errors.Join(errs...)
}
