package orders

import (
	"encoding/json"
	"time"
)

// Realtime notification events.
const (
	EventOrderReceived  = "order_received"
	EventOrderError     = "order_error"
	EventOrderProcessed = "order_processed"
	EventOrderFailed    = "order_failed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads ----

type StatusPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}

type ErrorPayload struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

// StatusUpdate carries a fulfillment outcome from the consumer back to the API.
type StatusUpdate struct {
	OrderID    string    `json:"order_id"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventFor maps a settled status to the event announcing it.
func EventFor(s Status) string {
	switch s {
	case StatusProcessed:
		return EventOrderProcessed
	case StatusQueueingFailed:
		return EventOrderError
	default:
		return EventOrderFailed
	}
}
