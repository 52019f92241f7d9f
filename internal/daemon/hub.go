package daemon

import (
	"sync"

	"kinetic/internal/domain"
)

// Event is one entry on the daemon's event stream.
type Event struct {
	Type    string                    `json:"type"`
	State   domain.SessionState       `json:"state,omitempty"`
	Reason  domain.SessionStateReason `json:"reason,omitempty"`
	Code    domain.ErrorCode          `json:"code,omitempty"`
	Detail  string                    `json:"detail,omitempty"`
	Count   int                       `json:"count,omitempty"`
	Reading *domain.SensorReading     `json:"reading,omitempty"`
}

type subscriber struct {
	id int
	ch chan Event
}

// Hub fans coordinator events out to event-stream subscribers. It also
// implements ports.EventSink so it can be wired directly into the usecases.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Add registers a subscriber. The returned cancel closes its channel.
func (h *Hub) Add() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan Event, 256)
	h.subs[id] = &subscriber{id: id, ch: ch}
	cancel := func() {
		h.mu.Lock()
		sub, ok := h.subs[id]
		if ok {
			delete(h.subs, id)
		}
		h.mu.Unlock()
		if ok {
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Broadcast delivers an event to every subscriber, dropping for slow ones.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

func (h *Hub) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	h.Broadcast(Event{Type: "session_state", State: state, Reason: reason})
}

func (h *Hub) SessionError(code domain.ErrorCode, detail string) {
	h.Broadcast(Event{Type: "session_error", Code: code, Detail: detail})
}

func (h *Hub) RecommendationsUpdated(count int) {
	h.Broadcast(Event{Type: "recommendations", Count: count})
}

func (h *Hub) Reading(reading domain.SensorReading) {
	h.Broadcast(Event{Type: "reading", Reading: &reading})
}
