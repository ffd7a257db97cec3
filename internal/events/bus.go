// Package events is an in-process event bus. The wiz client publishes
// device events on it and the CLI subscribes to report progress.
package events

import (
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// EventType identifies the kind of event.
type EventType string

const (
	// Device events
	DeviceDiscovered   EventType = "device.discovered"
	DeviceSkipped      EventType = "device.skipped"
	DevicePilotChanged EventType = "device.pilot_changed"

	// Group events
	GroupCreated EventType = "group.created"
	GroupDeleted EventType = "group.deleted"
	GroupUpdated EventType = "group.updated"
)

// Event is a single event emitted by a producer.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent creates an Event, marshaling data to JSON.
// If marshaling fails the Data field is set to null.
func NewEvent(t EventType, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("null")
	}
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      raw,
	}
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// SubscriberFunc is a callback invoked for each event.
// Implementations must not block.
type SubscriberFunc func(Event)

// Bus is a synchronous fan-out event bus. Publish returns once every
// subscriber has been called.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]SubscriberFunc
	nextID      int
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int]SubscriberFunc),
	}
}

// Subscribe registers a callback and returns an unsubscribe function.
func (b *Bus) Subscribe(fn SubscriberFunc) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// SubscribeTypes is Subscribe restricted to the given event types.
func (b *Bus) SubscribeTypes(fn SubscriberFunc, types ...EventType) func() {
	return b.Subscribe(func(e Event) {
		if slices.Contains(types, e.Type) {
			fn(e)
		}
	})
}

// Publish sends an event to all current subscribers, in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]SubscriberFunc, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, b.subscribers[id])
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}
