package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrHandlerPanic wraps a panic recovered from a Handler.
var ErrHandlerPanic = errors.New("rabbitmq: handler panicked")

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Handler performs the work for one item. A nil return acknowledges the
// message; anything else rejects it without requeue.
type Handler interface {
	Handle(ctx context.Context, item orders.WorkItem) error
}

type HandlerFunc func(ctx context.Context, item orders.WorkItem) error

func (f HandlerFunc) Handle(ctx context.Context, item orders.WorkItem) error { return f(ctx, item) }

// SettledFunc observes the outcome of every decodable message after it has
// been acked or nacked. err is the handler result.
type SettledFunc func(ctx context.Context, item orders.WorkItem, err error)

type ConsumerOption func(*Consumer)

func WithReconnectDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.delay = d
		}
	}
}

func WithSettled(fn SettledFunc) ConsumerOption {
	return func(c *Consumer) { c.settled = fn }
}

func WithConsumerTag(tag string) ConsumerOption {
	return func(c *Consumer) { c.tag = tag }
}

// Consumer pulls work items one at a time (prefetch 1) and reconnects with
// a fixed delay, forever, until its context is cancelled.
type Consumer struct {
	dial    Dialer
	queue   string
	handler Handler
	settled SettledFunc
	delay   time.Duration
	tag     string
	log     zerolog.Logger

	state atomic.Int32
}

func NewConsumer(dial Dialer, queue string, h Handler, log zerolog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		dial:    dial,
		queue:   queue,
		handler: h,
		delay:   5 * time.Second,
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Consumer) State() State { return State(c.state.Load()) }

func (c *Consumer) setState(s State) {
	if State(c.state.Swap(int32(s))) != s {
		c.log.Debug().Str("state", s.String()).Msg("consumer state")
	}
}

// Run blocks until ctx is cancelled. It returns nil on a clean shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	for {
		sess, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		c.consume(ctx, sess.deliveries)
		sess.close()

		if ctx.Err() != nil {
			c.log.Info().Msg("consumer stopped")
			return nil
		}
		c.setState(StateDisconnected)
		c.log.Warn().Str("queue", c.queue).Msg("delivery stream closed by broker, reconnecting")
	}
}

type session struct {
	conn       Connection
	ch         Channel
	deliveries <-chan amqp.Delivery
}

func (s *session) close() {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func (c *Consumer) connect(ctx context.Context) (*session, error) {
	c.setState(StateConnecting)

	for attempt := 1; ; attempt++ {
		sess, err := c.open(ctx)
		if err == nil {
			c.setState(StateConnected)
			c.log.Info().Str("queue", c.queue).Int("attempt", attempt).Msg("connected, waiting for messages")
			return sess, nil
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", c.delay).Msg("broker connection failed")

		t := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Consumer) open(ctx context.Context) (*session, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	sess := &session{conn: conn}

	if sess.ch, err = conn.Channel(); err != nil {
		sess.close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err = declareQueue(sess.ch, c.queue); err != nil {
		sess.close()
		return nil, fmt.Errorf("declare %s: %w", c.queue, err)
	}
	if err = sess.ch.Qos(1, 0, false); err != nil {
		sess.close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	if sess.deliveries, err = sess.ch.Consume(c.queue, c.tag, false, false, false, false, nil); err != nil {
		sess.close()
		return nil, fmt.Errorf("consume: %w", err)
	}
	return sess, nil
}

// consume handles deliveries sequentially until ctx is done or the broker
// closes the stream.
func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	log := c.log.With().Uint64("delivery_tag", d.DeliveryTag).Logger()

	item, err := decodeWorkItem(d.Body)
	if err != nil {
		log.Error().Err(err).Msg("undecodable message, discarding")
		c.nack(log, d, false)
		return
	}
	log = log.With().Str("order_id", item.OrderID).Logger()

	err = c.run(ctx, item)
	switch {
	case err == nil:
		if aerr := d.Ack(false); aerr != nil {
			log.Error().Err(aerr).Msg("ack failed")
		}
		log.Info().Msg("order processed, acked")
	case ctx.Err() != nil:
		// interrupted by shutdown: hand the message back to the broker
		log.Warn().Err(err).Msg("processing interrupted, requeueing")
		c.nack(log, d, true)
		return
	default:
		log.Error().Err(err).Msg("processing failed, discarding")
		c.nack(log, d, false)
	}

	if c.settled != nil {
		c.settled(context.WithoutCancel(ctx), item, err)
	}
}

func (c *Consumer) run(ctx context.Context, item orders.WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return c.handler.Handle(ctx, item)
}

func (c *Consumer) nack(log zerolog.Logger, d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		log.Error().Err(err).Bool("requeue", requeue).Msg("nack failed")
	}
}
