package ipc

import (
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/palettekit/internal/protocol"
)

// Bus fans engine events out to subscribers. Emit never blocks: a
// subscriber whose buffer is full loses the event.
type Bus struct {
	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*Subscription)}
}

// Subscription is one consumer of the bus.
type Subscription struct {
	ID     string
	filter *Filter
	ch     chan protocol.Event

	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// Events delivers matching events until the subscription is closed.
func (s *Subscription) Events() <-chan protocol.Event { return s.ch }

// Dropped returns how many events were lost to a full buffer.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Subscribe registers a consumer with the given buffer size.
func (b *Bus) Subscribe(buffer int, filter *Filter) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	sub := &Subscription{
		ID:     uuid.NewString(),
		filter: filter,
		ch:     make(chan protocol.Event, buffer),
	}
	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub.ID)
	b.mu.Unlock()

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Emit implements protocol.Sink.
func (b *Bus) Emit(e protocol.Event) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if !s.filter.Match(e) {
			continue
		}
		s.mu.Lock()
		if !s.closed {
			select {
			case s.ch <- e:
			default:
				s.dropped++
			}
		}
		s.mu.Unlock()
	}
}

var _ protocol.Sink = (*Bus)(nil)
