package emitter

import (
	"context"
	"sync"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/logger"
)

// DefaultSubscriberBuffer is the per-subscriber queue length.
const DefaultSubscriberBuffer = 64

// Broadcaster publishes emitted alarms to live subscribers.
// A subscriber that falls behind loses events instead of blocking emission.
type Broadcaster struct {
	source Source
	buffer int

	mu          sync.Mutex
	subscribers map[uint64]chan Event
	nextID      uint64
	closed      bool
}

// NewBroadcaster creates a broadcaster; buffer <= 0 selects DefaultSubscriberBuffer.
func NewBroadcaster(source Source, buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	return &Broadcaster{
		source:      source,
		buffer:      buffer,
		subscribers: make(map[uint64]chan Event),
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once. After Close the
// channel is returned already closed.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)

		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if _, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(ch)
		}
	}
}

// Close ends every subscription and rejects new ones.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true

	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

// Raise implements Emitter.
func (b *Broadcaster) Raise(ctx context.Context, alarm *domain.Alarm) {
	b.publish(ctx, alarm)
}

// Clear implements Emitter.
func (b *Broadcaster) Clear(ctx context.Context, alarm *domain.Alarm) {
	b.publish(ctx, alarm)
}

func (b *Broadcaster) publish(ctx context.Context, alarm *domain.Alarm) {
	event := NewEvent(b.source, alarm)

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logger.WarnKV(ctx, "Subscriber queue full, dropping alarm event", "subscriber", id, "alarm_id", event.ID)
		}
	}
}
