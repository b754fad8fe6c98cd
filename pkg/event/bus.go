// pkg/event/bus.go
package event

import (
	"sync"
)

// Handler is a function that handles published events.
type Handler func(game string, ev Event)

// Bus fans newly logged simulation events out to in-process observers
// (event stream subscribers, structured logging). The bus is notification
// only; the Log remains the durable record.
type Bus struct {
	handlers map[Type][]Handler
	all      []Handler
	mu       sync.RWMutex
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = append(b.all, handler)
}

// Publish sends an event to all subscribed handlers.
func (b *Bus) Publish(game string, ev Event) {
	b.mu.RLock()
	handlers := append([]Handler{}, b.all...)
	handlers = append(handlers, b.handlers[ev.Type]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(game, ev)
	}
}
