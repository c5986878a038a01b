package rabbitmq

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNoURL = errors.New("rabbitmq: broker url is empty")

const defaultConnectTimeout = 30 * time.Second

// Channel is the part of *amqp.Channel used here.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type Connection interface {
	Channel() (Channel, error)
	Close() error
}

// Dialer opens a broker connection. It must give up once ctx is done.
type Dialer func(ctx context.Context) (Connection, error)

// NewDialer dials url with connect (TCP and AMQP handshake) bounded by
// timeout or by the ctx deadline, whichever comes first.
func NewDialer(url string, timeout time.Duration) Dialer {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return func(ctx context.Context) (Connection, error) {
		if url == "" {
			return nil, ErrNoURL
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := timeout
		if dl, ok := ctx.Deadline(); ok {
			if rem := time.Until(dl); rem < d {
				d = rem
			}
		}
		if d <= 0 {
			return nil, context.DeadlineExceeded
		}
		conn, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(d),
		})
		if err != nil {
			return nil, err
		}
		return &amqpConn{conn: conn}, nil
	}
}

type amqpConn struct {
	conn *amqp.Connection
}

func (c *amqpConn) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *amqpConn) Close() error { return c.conn.Close() }

// declareQueue declares a durable queue. Redeclaring with the same arguments
// is a no-op on the broker.
func declareQueue(ch Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}
