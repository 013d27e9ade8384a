// Package events provides the in-process event bus used to broadcast feed
// activity to connected clients.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a single published event
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Bus is a fan-out publish/subscribe bus. Publishing never blocks: slow
// subscribers with a full buffer miss events rather than stalling writers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	log    zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
		log:  log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its channel together with
// an unsubscribe function. The unsubscribe function is idempotent.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, unsubscribe
}

// Publish delivers an event to all subscribers. Events for subscribers whose
// buffer is full are dropped.
func (b *Bus) Publish(data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.log.Debug().
				Int("subscriber", id).
				Str("event", string(event.Type)).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
