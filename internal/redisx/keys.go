package redisx

import (
	"fmt"
	"time"
)

const (
	// Cache status order: order_status:{order_id} -> StatusUpdate JSON
	KeyOrderStatus = "order_status:%s"

	// Dedup fulfillment: dedup:{service}:{order_id}
	KeyDedup = "dedup:%s:%s"

	// Pub/sub channel the consumer reports settled orders on.
	ChannelOrderStatus = "bookstore:order_status"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

func DedupKey(service, orderID string) string { return fmt.Sprintf(KeyDedup, service, orderID) }

func StatusKey(orderID string) string { return fmt.Sprintf(KeyOrderStatus, orderID) }
