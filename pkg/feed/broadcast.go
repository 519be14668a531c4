package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Broadcaster fans every sent value out to all current listeners.
// A slow listener drops values rather than stalling the sender.
type Broadcaster[T any] struct {
	mu        sync.RWMutex
	buffer    int
	listeners map[string]chan T
}

// NewBroadcaster creates a broadcaster whose listener channels hold buffer values.
func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	return &Broadcaster[T]{
		buffer:    buffer,
		listeners: make(map[string]chan T),
	}
}

// Send publishes v to every listener without blocking.
// It returns how many listeners dropped v.
func (b *Broadcaster[T]) Send(v T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	dropped := 0
	for _, ch := range b.listeners {
		select {
		case ch <- v:
		default:
			dropped++
		}
	}
	return dropped
}

// Listen registers a listener. The channel closes when ctx ends or cancel is called.
func (b *Broadcaster[T]) Listen(ctx context.Context) (<-chan T, context.CancelFunc) {
	id := uuid.New().String()
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	b.listeners[id] = ch
	b.mu.Unlock()

	listenerCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-listenerCtx.Done()
		b.mu.Lock()
		delete(b.listeners, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, cancel
}

// Listeners returns the number of registered listeners.
func (b *Broadcaster[T]) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
