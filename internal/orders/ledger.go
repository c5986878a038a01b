package orders

import (
	"fmt"
	"sync"
	"time"
)

// Ledger keeps orders in process memory. Nothing survives a restart and
// orders are never evicted.
type Ledger struct {
	mu     sync.Mutex
	orders map[string]*Order
	now    func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		orders: make(map[string]*Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create records a new Pending order.
func (l *Ledger) Create(id string, d Draft, user string) (Order, error) {
	ts := l.now()
	o := &Order{
		ID:             id,
		Items:          append([]LineDetail(nil), d.Items...),
		TotalPrice:     d.Total,
		Status:         StatusPending,
		UserIdentifier: user,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.orders[id]; ok {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderExists, id)
	}
	l.orders[id] = o
	return o.clone(), nil
}

// SetStatus moves an order to status and reports whether it changed. Setting
// the status it already has is a no-op; any other move must be allowed by
// CanTransition.
func (l *Ledger) SetStatus(id string, status Status) (Order, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[id]
	if !ok {
		return Order{}, false, fmt.Errorf("%w: %s", ErrUnknownOrder, id)
	}
	if o.Status == status {
		return o.clone(), false, nil
	}
	if !CanTransition(o.Status, status) {
		return o.clone(), false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = l.now()
	return o.clone(), true, nil
}

func (l *Ledger) Get(id string) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return Order{}, false
	}
	return o.clone(), true
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}
