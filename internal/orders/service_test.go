package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu    sync.Mutex
	err   error
	items []WorkItem
}

func (f *fakePublisher) Publish(_ context.Context, item WorkItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, item)
	return nil
}

type sent struct {
	event   string
	payload any
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []sent
}

func (f *fakeNotifier) Broadcast(_ context.Context, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sent{event, payload})
}

func newTestService(t *testing.T, pub *fakePublisher) (*Service, *Ledger, *fakeNotifier) {
	t.Helper()
	l := NewLedger()
	n := &fakeNotifier{}
	s := NewService(NewValidator(testCatalog(t)), l, pub, n, zerolog.Nop())
	return s, l, n
}

func TestPlace_QueuesPendingOrder(t *testing.T) {
	pub := &fakePublisher{}
	s, l, n := newTestService(t, pub)

	o, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`1`, `2`)}, UserIdentifier: "bob"})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "20.00", o.TotalPrice.StringFixed(2))
	assert.Equal(t, "bob", o.UserIdentifier)

	require.Len(t, pub.items, 1)
	assert.Equal(t, WorkItem{OrderID: o.ID, Items: []LineMessage{{BookID: 1, Quantity: 2}}}, pub.items[0])

	stored, ok := l.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, stored.Status)

	require.Len(t, n.events, 1)
	assert.Equal(t, EventOrderReceived, n.events[0].event)
	assert.Equal(t, StatusPayload{OrderID: o.ID, Status: StatusPending}, n.events[0].payload)
}

func TestPlace_AnonymousUser(t *testing.T) {
	s, _, _ := newTestService(t, &fakePublisher{})

	o, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`1`, `1`)}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(o.UserIdentifier, "anon_"))
	assert.Len(t, o.UserIdentifier, len("anon_")+6)
}

func TestPlace_ValidationCreatesNothing(t *testing.T) {
	pub := &fakePublisher{}
	s, l, n := newTestService(t, pub)

	_, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`999`, `1`)}})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnknownBookID, ve.Code)

	_, err = s.Place(context.Background(), PlaceRequest{})
	ve, ok = IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, CodeMissingItems, ve.Code)

	assert.Zero(t, l.Len())
	assert.Empty(t, pub.items)
	assert.Empty(t, n.events)
}

func TestPlace_QueueFailureKeepsOrder(t *testing.T) {
	pub := &fakePublisher{err: errors.New("dial tcp: connection refused")}
	s, l, n := newTestService(t, pub)

	o, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`1`, `1`)}})
	require.ErrorIs(t, err, ErrQueueingFailed)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, StatusQueueingFailed, o.Status)
	stored, ok := l.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, StatusQueueingFailed, stored.Status)

	require.Len(t, n.events, 1)
	assert.Equal(t, EventOrderError, n.events[0].event)
	assert.Equal(t, ErrorPayload{OrderID: o.ID, Error: "Queueing Failed"}, n.events[0].payload)
}

func TestApply(t *testing.T) {
	s, l, n := newTestService(t, &fakePublisher{})
	o, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`1`, `1`)}})
	require.NoError(t, err)

	got, err := s.Apply(context.Background(), StatusUpdate{OrderID: o.ID, Status: StatusProcessingFailed, Error: "boom"})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessingFailed, got.Status)

	stored, _ := l.Get(o.ID)
	assert.Equal(t, StatusProcessingFailed, stored.Status)

	last := n.events[len(n.events)-1]
	assert.Equal(t, EventOrderFailed, last.event)
	assert.Equal(t, StatusPayload{OrderID: o.ID, Status: StatusProcessingFailed, Error: "boom"}, last.payload)

	_, err = s.Apply(context.Background(), StatusUpdate{OrderID: o.ID, Status: StatusProcessed})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Apply(context.Background(), StatusUpdate{OrderID: "other", Status: StatusProcessed})
	assert.ErrorIs(t, err, ErrUnknownOrder)

	_, err = s.Apply(context.Background(), StatusUpdate{OrderID: o.ID, Status: StatusPending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApply_RedeliveredOutcomeAnnouncedOnce(t *testing.T) {
	s, _, n := newTestService(t, &fakePublisher{})
	o, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`1`, `1`)}})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := s.Apply(context.Background(), StatusUpdate{OrderID: o.ID, Status: StatusProcessed})
		require.NoError(t, err)
		assert.Equal(t, StatusProcessed, got.Status)
	}

	var events []string
	for _, e := range n.events {
		events = append(events, e.event)
	}
	assert.Equal(t, []string{EventOrderReceived, EventOrderProcessed}, events)
}

type fakeStatuses struct {
	updates map[string]StatusUpdate
	err     error
	calls   int
}

func (f *fakeStatuses) Lookup(_ context.Context, id string) (StatusUpdate, bool, error) {
	f.calls++
	u, ok := f.updates[id]
	return u, ok, f.err
}

func TestRefresh_AppliesMissedOutcome(t *testing.T) {
	s, l, n := newTestService(t, &fakePublisher{})
	o, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`1`, `1`)}})
	require.NoError(t, err)

	src := &fakeStatuses{updates: map[string]StatusUpdate{
		o.ID: {OrderID: o.ID, Status: StatusProcessingFailed, Error: "boom"},
	}}
	s.UseStatusSource(src)

	got, ok := s.Refresh(context.Background(), o.ID)
	require.True(t, ok)
	assert.Equal(t, StatusProcessingFailed, got.Status)

	stored, _ := l.Get(o.ID)
	assert.Equal(t, StatusProcessingFailed, stored.Status)
	assert.Equal(t, EventOrderFailed, n.events[len(n.events)-1].event)

	// settled orders are not looked up again
	_, _ = s.Refresh(context.Background(), o.ID)
	assert.Equal(t, 1, src.calls)
}

func TestRefresh_SourceMissOrFailure(t *testing.T) {
	s, _, n := newTestService(t, &fakePublisher{})
	o, err := s.Place(context.Background(), PlaceRequest{Items: []LineRequest{line(`1`, `1`)}})
	require.NoError(t, err)

	s.UseStatusSource(&fakeStatuses{})
	got, ok := s.Refresh(context.Background(), o.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)

	s.UseStatusSource(&fakeStatuses{err: errors.New("redis down")})
	got, ok = s.Refresh(context.Background(), o.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
	assert.Len(t, n.events, 1)

	_, ok = s.Refresh(context.Background(), "nope")
	assert.False(t, ok)
}
