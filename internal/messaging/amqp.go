package messaging

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// AMQPPublisher publishes events to a durable queue through the default
// exchange. A lost connection or channel is re-established on the next
// Publish.
type AMQPPublisher struct {
	url    string
	queue  string
	tls    *tls.Config
	logger *slog.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// AMQPOption configures an AMQPPublisher.
type AMQPOption func(*AMQPPublisher)

// WithTLSConfig sets the client TLS configuration used for amqps:// URLs.
func WithTLSConfig(cfg *tls.Config) AMQPOption {
	return func(p *AMQPPublisher) {
		p.tls = cfg
	}
}

// NewAMQPPublisher connects to the broker and declares the queue.
func NewAMQPPublisher(url, queue string, logger *slog.Logger, opts ...AMQPOption) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp: url is required")
	}
	if queue == "" {
		return nil, errors.New("amqp: queue is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &AMQPPublisher{url: url, queue: queue, logger: logger}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connectLocked() error {
	if p.conn == nil || p.conn.IsClosed() {
		var (
			conn *amqp.Connection
			err  error
		)
		if p.tls != nil {
			conn, err = amqp.DialTLS(p.url, p.tls)
		} else {
			conn, err = amqp.Dial(p.url)
		}
		if err != nil {
			return fmt.Errorf("amqp: dial: %w", err)
		}
		p.conn = conn
		p.ch = nil
	}

	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.conn.Channel()
		if err != nil {
			return fmt.Errorf("amqp: open channel: %w", err)
		}
		if _, err := ch.QueueDeclare(
			p.queue,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		); err != nil {
			ch.Close()
			return fmt.Errorf("amqp: declare queue %s: %w", p.queue, err)
		}
		p.ch = ch
		p.logger.Info("amqp channel ready", "queue", p.queue)
	}
	return nil
}

// Publish sends one persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("amqp: encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	if err := p.connectLocked(); err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         ev.Type,
			MessageId:    ev.OrderID,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp: publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	p.logger.Info("amqp publisher closed")
	return errors.Join(errs...)
}
