package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StatusPublisher relays settled orders from the fulfillment worker to the API.
type StatusPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewStatusPublisher(rdb *redis.Client) *StatusPublisher {
	return &StatusPublisher{rdb: rdb, channel: ChannelOrderStatus}
}

// Report caches the latest status and publishes it in one round trip.
func (p *StatusPublisher) Report(ctx context.Context, u orders.StatusUpdate) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	pipe := p.rdb.TxPipeline()
	pipe.Set(ctx, StatusKey(u.OrderID), b, TTLStatusCache)
	pipe.Publish(ctx, p.channel, b)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("report status %s: %w", u.OrderID, err)
	}
	return nil
}

type ApplyFunc func(ctx context.Context, u orders.StatusUpdate) error

// StatusSubscriber feeds relayed statuses into apply until its context ends.
type StatusSubscriber struct {
	rdb     *redis.Client
	channel string
	apply   ApplyFunc
	log     zerolog.Logger
}

func NewStatusSubscriber(rdb *redis.Client, apply ApplyFunc, log zerolog.Logger) *StatusSubscriber {
	return &StatusSubscriber{rdb: rdb, channel: ChannelOrderStatus, apply: apply, log: log}
}

func (s *StatusSubscriber) Run(ctx context.Context) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Channel() reconnects on its own; a failed first subscribe is not fatal.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn().Err(err).Str("channel", s.channel).Msg("status relay not subscribed yet")
	} else {
		s.log.Info().Str("channel", s.channel).Msg("status relay subscribed")
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			s.dispatch(ctx, m.Payload)
		}
	}
}

func (s *StatusSubscriber) dispatch(ctx context.Context, payload string) {
	u, err := DecodeStatus(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("bad status message")
		return
	}
	if err := s.apply(ctx, u); err != nil {
		s.log.Warn().Err(err).Str("order_id", u.OrderID).Str("status", string(u.Status)).Msg("status update rejected")
	}
}

func DecodeStatus(payload string) (orders.StatusUpdate, error) {
	var u orders.StatusUpdate
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		return u, fmt.Errorf("decode status: %w", err)
	}
	if u.OrderID == "" {
		return u, errors.New("decode status: missing order_id")
	}
	if !u.Status.Valid() {
		return u, fmt.Errorf("decode status: unknown status %q", u.Status)
	}
	return u, nil
}

// StatusCache reads the last status the fulfillment worker reported.
type StatusCache struct {
	rdb *redis.Client
}

func NewStatusCache(rdb *redis.Client) *StatusCache { return &StatusCache{rdb: rdb} }

// Lookup returns false when nothing was reported for the order, or the
// entry expired.
func (c *StatusCache) Lookup(ctx context.Context, orderID string) (orders.StatusUpdate, bool, error) {
	s, err := c.rdb.Get(ctx, StatusKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return orders.StatusUpdate{}, false, nil
	}
	if err != nil {
		return orders.StatusUpdate{}, false, fmt.Errorf("lookup status %s: %w", orderID, err)
	}
	u, err := DecodeStatus(s)
	if err != nil {
		return orders.StatusUpdate{}, false, err
	}
	return u, true, nil
}
