package redisx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Dedup remembers which orders a service has already fulfilled.
type Dedup struct {
	rdb     *redis.Client
	service string
}

func NewDedup(rdb *redis.Client, service string) *Dedup {
	return &Dedup{rdb: rdb, service: service}
}

func (d *Dedup) Seen(ctx context.Context, orderID string) (bool, error) {
	return Exists(ctx, d.rdb, DedupKey(d.service, orderID))
}

func (d *Dedup) Mark(ctx context.Context, orderID string) error {
	return d.rdb.Set(ctx, DedupKey(d.service, orderID), "1", TTLDedup).Err()
}
