// Package watch is the in-process subscribe-to-session-changes boundary.
// Clients still synchronize by polling; subscribers here are server-side
// consumers (event forwarding, metrics). A push transport could be slotted
// in behind this interface without touching the session service.
package watch

import (
	"sync"

	"group-order-service/internal/models"
	"group-order-service/internal/observability"
)

const subscriberBuffer = 16

// Hub fans session change events out to subscribers.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[int]chan models.SessionEvent
	allSubs map[int]chan models.SessionEvent
	nextID  int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[int]chan models.SessionEvent),
		allSubs: make(map[int]chan models.SessionEvent),
	}
}

// Subscribe registers for events on one session. The returned cancel func
// unregisters and closes the channel.
func (h *Hub) Subscribe(sessionID string) (<-chan models.SessionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan models.SessionEvent, subscriberBuffer)
	if _, ok := h.rooms[sessionID]; !ok {
		h.rooms[sessionID] = make(map[int]chan models.SessionEvent)
	}
	h.rooms[sessionID][id] = ch
	return ch, func() { h.unsubscribe(sessionID, id) }
}

// SubscribeAll registers for events on every session.
func (h *Hub) SubscribeAll() (<-chan models.SessionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan models.SessionEvent, subscriberBuffer)
	h.allSubs[id] = ch
	return ch, func() { h.unsubscribeAll(id) }
}

// Notify delivers an event to every matching subscriber. Slow subscribers
// drop events rather than block the caller.
func (h *Hub) Notify(event models.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	observability.IncSessionEvent(event.Type)
	for _, ch := range h.rooms[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
	for _, ch := range h.allSubs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) unsubscribe(sessionID string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[sessionID]; ok {
		if ch, ok := subs[id]; ok {
			delete(subs, id)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.rooms, sessionID)
		}
	}
}

func (h *Hub) unsubscribeAll(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.allSubs[id]; ok {
		delete(h.allSubs, id)
		close(ch)
	}
}
