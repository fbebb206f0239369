// Package bus is the synchronous event substrate used by attributes and models.
//
// Handlers run in registration order on the goroutine that calls Trigger. A
// handler may subscribe, close subscriptions or trigger further events while
// it is being dispatched: Trigger always iterates over a snapshot.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler processes the payload of a triggered event.
type Handler func(payload any)

// Subscription is the disposal handle returned by On.
type Subscription struct {
	// ID uniquely identifies this subscription.
	ID string
	// Event is the event name the handler is registered for.
	Event string

	handler Handler
	bus     *Bus
	closed  atomic.Bool
}

// Close removes exactly this handler. Calling Close more than once is a no-op.
func (s *Subscription) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.bus.remove(s)
}

// Closed reports whether the subscription was disposed.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Bus broadcasts named events to subscribers.
//
// Thread Safety: registration and dispatch are safe for concurrent use, but
// handlers are invoked without holding the lock.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]*Subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]*Subscription)}
}

// On registers a handler for the named event.
func (b *Bus) On(name string, handler Handler) *Subscription {
	sub := &Subscription{
		ID:      uuid.NewString(),
		Event:   name,
		handler: handler,
		bus:     b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], sub)
	return sub
}

// Trigger invokes every handler registered for name, in registration order.
// Handlers closed by an earlier handler of the same dispatch are skipped.
func (b *Bus) Trigger(name string, payload any) {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.handlers[name]))
	copy(subs, b.handlers[name])
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.closed.Load() {
			continue
		}
		sub.handler(payload)
	}
}

// Len returns the number of live handlers for name.
func (b *Bus) Len(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Clear disposes every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	all := b.handlers
	b.handlers = make(map[string][]*Subscription)
	b.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.closed.Store(true)
		}
	}
}

func (b *Bus) remove(target *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[target.Event]
	for i, sub := range subs {
		if sub == target {
			b.handlers[target.Event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[target.Event]) == 0 {
		delete(b.handlers, target.Event)
	}
}
