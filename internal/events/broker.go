package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	defaultBufferSize = 64
	defaultKeep       = 256
)

type subscription struct {
	id      string
	filters []EventFilter
	dropped atomic.Int64
}

// Broker fans typed events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event. The last few events are
// kept so a late subscriber can catch up with Recent.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]*subscription
	closed chan struct{}
	buffer int

	ringMu sync.Mutex
	ring   []Event[T]
	keep   int
}

// NewBroker creates a broker with the default buffer and history sizes
func NewBroker[T any]() *Broker[T] {
	return NewSizedBroker[T](defaultBufferSize, defaultKeep)
}

// NewSizedBroker sets the per-subscriber buffer and the number of events kept
func NewSizedBroker[T any](buffer, keep int) *Broker[T] {
	return &Broker[T]{
		subs:   make(map[chan Event[T]]*subscription),
		closed: make(chan struct{}),
		buffer: buffer,
		keep:   keep,
	}
}

func (b *Broker[T]) Publish(t EventType, payload T) {
	if b.Closed() {
		return
	}
	ev := Event[T]{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	b.remember(ev)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, sub := range b.subs {
		if !accepts(t, sub.filters) {
			continue
		}
		select {
		case ch <- ev:
		default:
			n := sub.dropped.Add(1)
			log.Warn("subscriber too slow, event dropped", "subscriber", sub.id, "type", t, "dropped", n)
		}
	}
}

// Subscribe returns a channel of events passing every filter. The channel is
// closed when ctx is done or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context, filters ...EventFilter) <-chan Event[T] {
	ch := make(chan Event[T], b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Closed() {
		close(ch)
		return ch
	}
	b.subs[ch] = &subscription{id: uuid.NewString(), filters: filters}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.closed:
		}
		b.drop(ch)
	}()
	return ch
}

func (b *Broker[T]) drop(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func accepts(t EventType, filters []EventFilter) bool {
	for _, f := range filters {
		if !f(t) {
			return false
		}
	}
	return true
}

func (b *Broker[T]) remember(ev Event[T]) {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()
	if b.keep <= 0 {
		return
	}
	if len(b.ring) == b.keep {
		b.ring = append(b.ring[:0], b.ring[1:]...)
	}
	b.ring = append(b.ring, ev)
}

// Recent returns the kept events that pass the filters, oldest first
func (b *Broker[T]) Recent(filters ...EventFilter) []Event[T] {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()
	var out []Event[T]
	for _, ev := range b.ring {
		if accepts(ev.Type, filters) {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribers reports how many subscriptions are open
func (b *Broker[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker[T]) Closed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

// Shutdown closes every subscription. Publishing afterwards is a no-op.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Closed() {
		return
	}
	close(b.closed)
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	log.Debug("event broker closed")
}
