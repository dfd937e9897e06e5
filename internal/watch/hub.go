// Package watch fans out live query results to subscribers.
package watch

import (
	"context"
	"sync"
)

// Hub delivers the latest value published for a key to every subscriber of
// that key. A slow subscriber only ever sees the most recent value.
type Hub[K comparable, V any] struct {
	mu   sync.Mutex
	subs map[K]map[chan V]struct{}
}

// NewHub creates an empty Hub.
func NewHub[K comparable, V any]() *Hub[K, V] {
	return &Hub[K, V]{subs: map[K]map[chan V]struct{}{}}
}

// Subscribe registers interest in key. The returned channel first yields
// initial, then every later Publish for key, and is closed once ctx is done.
// Subscribing again after cancellation starts over from a fresh snapshot.
func (h *Hub[K, V]) Subscribe(ctx context.Context, key K, initial V) <-chan V {
	ch := make(chan V, 1)
	ch <- initial

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = map[chan V]struct{}{}
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[key], ch)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
		close(ch)
	}()
	return ch
}

// Publish replaces any undelivered value of key's subscribers with v.
func (h *Hub[K, V]) Publish(key K, v V) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribers returns the number of live subscriptions for key.
func (h *Hub[K, V]) Subscribers(key K) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key])
}
