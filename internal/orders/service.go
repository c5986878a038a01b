package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, item WorkItem) error
}

// Notifier delivers events to whoever is listening. It must not block.
type Notifier interface {
	Broadcast(ctx context.Context, event string, payload any)
}

// StatusSource returns the last outcome reported for an order, if any.
type StatusSource interface {
	Lookup(ctx context.Context, orderID string) (StatusUpdate, bool, error)
}

type PlaceRequest struct {
	Items          []LineRequest
	UserIdentifier string
}

// Service runs order submission: validate, record, enqueue, announce.
type Service struct {
	validator *Validator
	ledger    *Ledger
	publisher Publisher
	notifier  Notifier
	statuses  StatusSource
	log       zerolog.Logger
	newID     func() string
}

func NewService(v *Validator, l *Ledger, p Publisher, n Notifier, log zerolog.Logger) *Service {
	return &Service{
		validator: v,
		ledger:    l,
		publisher: p,
		notifier:  n,
		log:       log,
		newID:     uuid.NewString,
	}
}

// Place validates and records the order, then hands it to the queue. When the
// queue is unavailable the order is kept as Queueing Failed and the returned
// error wraps ErrQueueingFailed; the order is returned alongside it.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (Order, error) {
	if len(req.Items) == 0 {
		return Order{}, invalid(CodeMissingItems, "Invalid order data. 'items' list is required.")
	}
	draft, err := s.validator.Validate(req.Items)
	if err != nil {
		return Order{}, err
	}

	user := strings.TrimSpace(req.UserIdentifier)
	if user == "" {
		user = anonymousUser()
	}
	order, err := s.ledger.Create(s.newID(), draft, user)
	if err != nil {
		return Order{}, err
	}

	if err := s.publisher.Publish(ctx, order.WorkItem()); err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("queueing failed")
		failed, _, serr := s.ledger.SetStatus(order.ID, StatusQueueingFailed)
		if serr != nil {
			s.log.Error().Err(serr).Str("order_id", order.ID).Msg("mark queueing failed")
		} else {
			order = failed
		}
		s.notifier.Broadcast(ctx, EventOrderError, ErrorPayload{OrderID: order.ID, Error: string(StatusQueueingFailed)})
		return order, fmt.Errorf("%w: %w", ErrQueueingFailed, err)
	}

	s.log.Info().Str("order_id", order.ID).Int("lines", len(order.Items)).
		Str("total", order.TotalPrice.StringFixed(2)).Msg("order queued")
	s.notifier.Broadcast(ctx, EventOrderReceived, StatusPayload{OrderID: order.ID, Status: order.Status})
	return order, nil
}

// Apply records a fulfillment outcome reported by the consumer and announces it.
func (s *Service) Apply(ctx context.Context, u StatusUpdate) (Order, error) {
	if u.Status != StatusProcessed && u.Status != StatusProcessingFailed {
		return Order{}, fmt.Errorf("%w: consumer reported %q", ErrInvalidTransition, u.Status)
	}
	order, changed, err := s.ledger.SetStatus(u.OrderID, u.Status)
	if err != nil {
		if order.Status.Terminal() {
			s.log.Warn().Str("order_id", u.OrderID).Str("status", string(order.Status)).
				Str("reported", string(u.Status)).Msg("order already settled, late status ignored")
		}
		return order, err
	}
	if !changed {
		s.log.Debug().Str("order_id", u.OrderID).Str("status", string(u.Status)).Msg("duplicate status, not announced")
		return order, nil
	}
	s.notifier.Broadcast(ctx, EventFor(u.Status), StatusPayload{OrderID: order.ID, Status: order.Status, Error: u.Error})
	return order, nil
}

func (s *Service) Get(id string) (Order, bool) { return s.ledger.Get(id) }

// UseStatusSource lets Refresh catch up on outcomes whose relay message was
// missed.
func (s *Service) UseStatusSource(src StatusSource) { s.statuses = src }

// Refresh returns the order, first applying a reported outcome for a Pending
// order when a status source is set. Source failures are logged and the
// ledger copy is returned.
func (s *Service) Refresh(ctx context.Context, id string) (Order, bool) {
	order, ok := s.ledger.Get(id)
	if !ok || order.Status != StatusPending || s.statuses == nil {
		return order, ok
	}
	u, found, err := s.statuses.Lookup(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", id).Msg("status lookup failed")
		return order, true
	}
	if !found {
		return order, true
	}
	u.OrderID = id
	if updated, err := s.Apply(ctx, u); err == nil {
		return updated, true
	}
	return order, true
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func anonymousUser() string {
	return "anon_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
