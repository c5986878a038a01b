package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	"github.com/rs/zerolog"
)

var ErrInvalidWorkItem = errors.New("fulfillment: invalid work item")

// Deduper tracks orders that were already fulfilled.
type Deduper interface {
	Seen(ctx context.Context, orderID string) (bool, error)
	Mark(ctx context.Context, orderID string) error
}

// Reporter forwards a settled order to whoever owns the ledger.
type Reporter interface {
	Report(ctx context.Context, u orders.StatusUpdate) error
}

type Service struct {
	Dedup    Deduper // optional
	Reporter Reporter
	Delay    time.Duration
	Log      zerolog.Logger

	now func() time.Time
}

// Handle simulates fulfilling one work item: it waits Delay and records a
// stock decrement per line. It is used as the queue consumer's handler.
func (s *Service) Handle(ctx context.Context, item orders.WorkItem) error {
	if err := check(item); err != nil {
		return err
	}
	log := s.Log.With().Str("order_id", item.OrderID).Logger()

	if s.Dedup != nil {
		seen, err := s.Dedup.Seen(ctx, item.OrderID)
		if err != nil {
			log.Warn().Err(err).Msg("dedup lookup failed, processing anyway")
		}
		if seen {
			log.Info().Msg("order already fulfilled, skipping")
			return nil
		}
	}

	log.Info().Int("lines", len(item.Items)).Msg("fulfilling order")
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	for _, l := range item.Items {
		log.Info().Int("book_id", l.BookID).Int("quantity", l.Quantity).Msg("stock decremented")
	}

	if s.Dedup != nil {
		if err := s.Dedup.Mark(ctx, item.OrderID); err != nil {
			log.Warn().Err(err).Msg("dedup mark failed")
		}
	}
	return nil
}

// Settled reports the outcome of Handle. It plugs into the consumer's
// settled callback.
func (s *Service) Settled(ctx context.Context, item orders.WorkItem, err error) {
	u := orders.StatusUpdate{OrderID: item.OrderID, Status: orders.StatusProcessed, OccurredAt: s.clock()}
	if err != nil {
		u.Status = orders.StatusProcessingFailed
		u.Error = err.Error()
	}
	if s.Reporter == nil {
		return
	}
	if rerr := s.Reporter.Report(ctx, u); rerr != nil {
		s.Log.Error().Err(rerr).Str("order_id", item.OrderID).Str("status", string(u.Status)).Msg("status report failed")
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func check(item orders.WorkItem) error {
	if len(item.Items) == 0 {
		return fmt.Errorf("%w: order %s has no items", ErrInvalidWorkItem, item.OrderID)
	}
	for _, l := range item.Items {
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: quantity %d for book_id %d", ErrInvalidWorkItem, l.Quantity, l.BookID)
		}
	}
	return nil
}
