package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type nackCall struct {
	tag     uint64
	requeue bool
}

// fakeAck records acknowledgements the consumer sends for deliveries.
type fakeAck struct {
	mu    sync.Mutex
	acks  []uint64
	nacks []nackCall
}

func (a *fakeAck) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *fakeAck) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, nackCall{tag, requeue})
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func (a *fakeAck) snapshot() ([]uint64, []nackCall) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint64(nil), a.acks...), append([]nackCall(nil), a.nacks...)
}

type queueArgs struct {
	durable, autoDelete, exclusive bool
}

type publishCall struct {
	exchange, key string
	msg           amqp.Publishing
}

// fakeBroker hands out connections whose channels share its queue table.
type fakeBroker struct {
	mu         sync.Mutex
	queues     map[string]queueArgs
	dials      int
	failDials  int
	dialErr    error
	publishErr error
	published  []publishCall
	prefetch   []int
	consumeAck []bool
	channels   []*fakeChannel
	conns      []*fakeConn

	// deliveries returned by the next Consume calls, in order
	streams []chan amqp.Delivery
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{queues: map[string]queueArgs{}}
}

func (b *fakeBroker) dial(ctx context.Context) (Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dials++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.dialErr != nil {
		return nil, b.dialErr
	}
	if b.dials <= b.failDials {
		return nil, fmt.Errorf("dial tcp 127.0.0.1:5672: connect: connection refused (attempt %d)", b.dials)
	}
	c := &fakeConn{broker: b}
	b.conns = append(b.conns, c)
	return c, nil
}

func (b *fakeBroker) dialCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dials
}

func (b *fakeBroker) addStream(buf int) chan amqp.Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan amqp.Delivery, buf)
	b.streams = append(b.streams, ch)
	return ch
}

type fakeConn struct {
	broker *fakeBroker
	closed bool
}

func (c *fakeConn) Channel() (Channel, error) {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	ch := &fakeChannel{broker: c.broker}
	c.broker.channels = append(c.broker.channels, ch)
	return ch, nil
}

func (c *fakeConn) Close() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.closed = true
	return nil
}

type fakeChannel struct {
	broker *fakeBroker
	closed bool
}

func (ch *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, _ bool, _ amqp.Table) (amqp.Queue, error) {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	args := queueArgs{durable, autoDelete, exclusive}
	if prev, ok := b.queues[name]; ok && prev != args {
		return amqp.Queue{}, &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED - inequivalent arg 'durable'"}
	}
	b.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (ch *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, publishCall{exchange, key, msg})
	return nil
}

func (ch *fakeChannel) Qos(prefetchCount, _ int, _ bool) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prefetch = append(b.prefetch, prefetchCount)
	return nil
}

func (ch *fakeChannel) Consume(_, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumeAck = append(b.consumeAck, autoAck)
	if len(b.streams) == 0 {
		return nil, errors.New("no stream prepared")
	}
	s := b.streams[0]
	b.streams = b.streams[1:]
	return s, nil
}

func (ch *fakeChannel) Close() error {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()
	ch.closed = true
	return nil
}

func delivery(ack amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: []byte(body)}
}
