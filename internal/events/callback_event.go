// Package events provides small type-safe pub/sub primitives used to
// decouple the metrics engine from its display surfaces. Both
// variants hand back a deregistration closure from Listen and can
// optionally replay the most recent value to late subscribers.
package events

import "sync"

// CallbackEvent fans a value out to registered callback functions.
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]func(T)
	nextID    uint64
	sticky    bool // replay the last value to new listeners
	last      *T
}

// NewCallbackEvent creates a CallbackEvent. With sticky set, a
// listener registered after the first Notify is invoked immediately
// with the most recent value.
func NewCallbackEvent[T any](sticky bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		listeners: make(map[uint64]func(T)),
		sticky:    sticky,
	}
}

// Listen registers a callback and returns its deregistration
// function.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("events: callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = callback
	var replay *T
	if e.sticky && e.last != nil {
		v := *e.last
		replay = &v
	}
	e.mu.Unlock()

	// Replay outside the lock so the callback may re-enter the event.
	if replay != nil {
		callback(*replay)
	}

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify invokes every registered callback with value. Callbacks run
// outside the lock, on the caller's goroutine.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sticky {
		v := value
		e.last = &v
	}
	snapshot := make([]func(T), 0, len(e.listeners))
	for _, cb := range e.listeners {
		snapshot = append(snapshot, cb)
	}
	e.mu.Unlock()

	for _, cb := range snapshot {
		cb(value)
	}
}

// ListenerCount reports the number of registered listeners.
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
