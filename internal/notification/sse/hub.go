// Package sse maintains per-user server-sent-event streams for real-time
// notification push.
package sse

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-connection channel depth. A slow consumer drops
// messages rather than blocking dispatch; the database remains the source of
// truth.
const subscriberBuffer = 16

// Hub fans notification payloads out to the open streams of each user.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan []byte]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[uuid.UUID]map[chan []byte]struct{})}
}

// Subscribe opens a stream for the user. The returned cancel function must be
// called when the connection closes.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan []byte]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[userID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers payload to every open stream of the user. Full buffers are
// skipped.
func (h *Hub) Publish(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Connections reports how many streams the user has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
