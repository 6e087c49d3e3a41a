package app

import (
	"sync"

	"github.com/ayusman/soundwave/internal/gesture"
)

// subscriberBuffer is the per-subscriber queue length. A subscriber that
// falls further behind misses results rather than stalling the pipeline.
const subscriberBuffer = 16

// Hub fans tick results out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan gesture.Result]struct{}
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan gesture.Result]struct{})}
}

// Subscribe returns a channel of results and a function that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan gesture.Result, func()) {
	ch := make(chan gesture.Result, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Publish delivers r to every subscriber without blocking.
func (h *Hub) Publish(r gesture.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		close(ch)
	}
	h.subs = make(map[chan gesture.Result]struct{})
	h.closed = true
}
