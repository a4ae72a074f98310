package events

import "sync"

// ChannelEvent fans a value out to registered channels. Sends never
// block: a full channel is skipped, so a stalled consumer only misses
// updates instead of stalling the producer.
type ChannelEvent[T any] struct {
	mu       sync.RWMutex
	channels map[uint64]chan<- T
	nextID   uint64
	sticky   bool
	last     *T
}

// NewChannelEvent creates a ChannelEvent. With sticky set, a channel
// registered after the first Notify receives the most recent value
// immediately (dropped if the channel is already full).
func NewChannelEvent[T any](sticky bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels: make(map[uint64]chan<- T),
		sticky:   sticky,
	}
}

// Listen registers a channel and returns its deregistration function.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("events: channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	var replay *T
	if e.sticky && e.last != nil {
		v := *e.last
		replay = &v
	}
	e.mu.Unlock()

	if replay != nil {
		select {
		case ch <- *replay:
		default:
		}
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends value to every registered channel without blocking.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sticky {
		v := value
		e.last = &v
	}
	snapshot := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		snapshot = append(snapshot, ch)
	}
	e.mu.Unlock()

	for _, ch := range snapshot {
		select {
		case ch <- value:
		default:
		}
	}
}

// ListenerCount reports the number of registered channels.
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}
