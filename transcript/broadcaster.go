package transcript

import (
	"sync"
	"sync/atomic"

	"github.com/hupe1980/agentchat/core"
)

const defaultSubscriberBuffer = 128

// Broadcaster fans appended events out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event and the drop is counted.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[uint64]chan core.Event
	nextID      uint64
	buffer      int
	closed      bool
	published   atomic.Int64
	dropped     atomic.Int64
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer.
// Non-positive sizes use a default of 128.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Broadcaster{subscribers: make(map[uint64]chan core.Event), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned cancel function removes
// the subscription and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan core.Event, func()) {
	ch := make(chan core.Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish delivers ev to every subscriber with buffer space left.
func (b *Broadcaster) Publish(ev core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.published.Add(1)
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close closes all subscriber channels. Later subscriptions receive an already
// closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Published returns the number of events published so far.
func (b *Broadcaster) Published() int64 { return b.published.Load() }

// Dropped returns the number of per-subscriber deliveries skipped because a
// buffer was full.
func (b *Broadcaster) Dropped() int64 { return b.dropped.Load() }

// Subscribers returns the current subscriber count.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
