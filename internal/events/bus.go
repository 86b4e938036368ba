package events

import (
	"sync"
)

// Handler processes an event. Returning an error reports it but does not stop dispatch.
type Handler func(Event) error

// Bus is a synchronous in-process event bus.
// Subscribers are invoked in registration order on the publisher's goroutine.
// For async processing, handlers should send to their own channel/goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	onError  func(Event, error)
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for the given event types.
func (b *Bus) Subscribe(h Handler, types ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], h)
	}
}

// OnError sets the callback for handler errors.
func (b *Bus) OnError(fn func(Event, error)) {
	b.mu.Lock()
	b.onError = fn
	b.mu.Unlock()
}

// Publish dispatches an event to all registered handlers for its type.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	onError := b.onError
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(e); err != nil && onError != nil {
			// one bad handler shouldn't block others
			onError(e, err)
		}
	}
}
