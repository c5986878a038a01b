package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var ErrQueueing = errors.New("rabbitmq: queueing failed")

// Publisher sends one work item per call over a short-lived connection. It
// does not retry.
type Publisher struct {
	dial    Dialer
	queue   string
	timeout time.Duration
	log     zerolog.Logger
}

func NewPublisher(dial Dialer, queue string, timeout time.Duration, log zerolog.Logger) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{dial: dial, queue: queue, timeout: timeout, log: log}
}

// Publish declares the durable queue and publishes item as a persistent
// message on the default exchange. Every failure wraps ErrQueueing.
func (p *Publisher) Publish(ctx context.Context, item orders.WorkItem) error {
	body, err := encodeWorkItem(item)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQueueing, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.withChannel(ctx, func(ch Channel) error {
		if _, err := declareQueue(ch, p.queue); err != nil {
			return fmt.Errorf("declare %s: %w", p.queue, err)
		}
		err := ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    item.OrderID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		p.log.Debug().Str("order_id", item.OrderID).Str("queue", p.queue).Msg("work item sent")
		return nil
	})
}

// DeclareQueue makes sure the durable queue exists.
func (p *Publisher) DeclareQueue(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.withChannel(ctx, func(ch Channel) error {
		if _, err := declareQueue(ch, p.queue); err != nil {
			return fmt.Errorf("declare %s: %w", p.queue, err)
		}
		return nil
	})
}

func (p *Publisher) withChannel(ctx context.Context, fn func(Channel) error) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: connect: %w", ErrQueueing, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			p.log.Debug().Err(err).Msg("close connection")
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("%w: open channel: %w", ErrQueueing, err)
	}
	defer func() { _ = ch.Close() }()

	if err := fn(ch); err != nil {
		return fmt.Errorf("%w: %w", ErrQueueing, err)
	}
	return nil
}
