package handlers

import (
	"sync"

	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/models"
)

const subscriberBuffer = 32

// Hub fans session events out to connected browser streams. It is a
// session publisher; a subscriber that falls behind loses events rather
// than stalling the session.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan models.SessionEvent]struct{}
	closed bool
	log    *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{subs: make(map[chan models.SessionEvent]struct{}), log: log}
}

func (h *Hub) Publish(ev models.SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Debugw("ws_subscriber_lagging", "kind", ev.Kind)
		}
	}
}

// Subscribe registers a stream. The returned cancel func is idempotent and
// closes the channel.
func (h *Hub) Subscribe() (<-chan models.SessionEvent, func()) {
	ch := make(chan models.SessionEvent, subscriberBuffer)
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

// Subscribers reports the number of live streams.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
