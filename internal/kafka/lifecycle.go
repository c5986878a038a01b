package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const envelopeVersion = 1

// LifecycleSink mirrors realtime order events onto the lifecycle topic as
// v1 envelopes.
type LifecycleSink struct {
	producer *Producer
	service  string
	log      zerolog.Logger
	now      func() time.Time
}

func NewLifecycleSink(p *Producer, service string, log zerolog.Logger) *LifecycleSink {
	return &LifecycleSink{producer: p, service: service, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *LifecycleSink) Broadcast(_ context.Context, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("lifecycle payload not encodable")
		return
	}
	ref, err := UnwrapPayload[struct {
		OrderID string `json:"order_id"`
	}](raw)
	if err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("lifecycle payload has no order id")
	}

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     event,
		EventVersion:  envelopeVersion,
		OccurredAt:    s.now(),
		Producer:      s.service,
		CorrelationID: ref.OrderID,
		Payload:       raw,
	}
	ok := s.producer.Publish(orders.PartitionKey(ref.OrderID), MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(event)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(envelopeVersion))},
	)
	if !ok {
		s.log.Warn().Str("event", event).Str("order_id", ref.OrderID).Msg("lifecycle inbox full, event dropped")
	}
}
