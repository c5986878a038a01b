package notify

import "context"

// Sink receives realtime events. Implementations must not block.
type Sink interface {
	Broadcast(ctx context.Context, event string, payload any)
}

// Fanout delivers every event to each sink in turn.
type Fanout []Sink

func (f Fanout) Broadcast(ctx context.Context, event string, payload any) {
	for _, s := range f {
		if s != nil {
			s.Broadcast(ctx, event, payload)
		}
	}
}
