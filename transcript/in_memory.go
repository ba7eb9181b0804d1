package transcript

import (
	"sync"

	"github.com/hupe1980/agentchat/core"
)

// Interface compliance (compile-time assertion)
var _ core.TranscriptStore = (*InMemoryStore)(nil)

// InMemoryStore is a volatile TranscriptStore keeping one conversation's
// events in a process local slice. It is safe for concurrent access. Events
// handed out are cloned so callers cannot mutate stored state.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []core.Event
	seq    uint64
	bus    *Broadcaster
	limit  int
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithCapacity bounds the number of events the store accepts. Appends beyond
// the limit fail with core.ErrResourceExhausted. Zero means unbounded.
func WithCapacity(n int) InMemoryOption {
	return func(s *InMemoryStore) { s.limit = n }
}

// WithSubscriberBuffer sets the per-subscriber channel buffer.
func WithSubscriberBuffer(n int) InMemoryOption {
	return func(s *InMemoryStore) { s.bus = NewBroadcaster(n) }
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = NewBroadcaster(0)
	}
	return s
}

// Append assigns the next sequence number to ev, stores it and publishes it to
// subscribers. Publishing happens under the store lock so subscribers observe
// events in Seq order.
func (s *InMemoryStore) Append(ev core.Event) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.events) >= s.limit {
		return core.Event{}, core.ErrResourceExhausted
	}
	s.seq++
	ev.Seq = s.seq
	ev = cloneEvent(ev)
	s.events = append(s.events, ev)
	s.bus.Publish(cloneEvent(ev))
	return cloneEvent(ev), nil
}

// Snapshot returns a copy of all events in append order.
func (s *InMemoryStore) Snapshot() ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Event, len(s.events))
	for i, ev := range s.events {
		out[i] = cloneEvent(ev)
	}
	return out, nil
}

// Clear drops all events. Sequence numbers keep increasing.
func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}

// Subscribe returns a channel receiving events appended from now on.
func (s *InMemoryStore) Subscribe() (<-chan core.Event, func()) {
	return s.bus.Subscribe()
}

// Len returns the number of stored events.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Close ends all subscriptions.
func (s *InMemoryStore) Close() error {
	s.bus.Close()
	return nil
}

func cloneEvent(ev core.Event) core.Event {
	if ev.AgentIDs != nil {
		ev.AgentIDs = append([]core.AgentID(nil), ev.AgentIDs...)
	}
	return ev
}
