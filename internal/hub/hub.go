// Package hub fans coordinator events out to every subscribed page
// session, standing in for the original per-tab broadcasts.
package hub

import (
	"sync"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

const subscriberBuffer = 16

// Hub is an in-process publish/subscribe fan-out.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan model.Event
	next int
}

func New() *Hub {
	return &Hub{subs: make(map[int]chan model.Event)}
}

// Subscribe registers a new listener. The cancel func must be called
// when the listener goes away; it closes the channel.
func (h *Hub) Subscribe() (<-chan model.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan model.Event, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Broadcast delivers the event to all subscribers. Sends never block: a
// subscriber with a full buffer misses the event, which is fine because
// annotation state self-corrects on the next render.
func (h *Hub) Broadcast(ev model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
