package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

// Entities and actions carried in messages.
const (
	EntityDinner      = "dinner"
	EntityReservation = "reservation"

	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Message tells open pages that data changed so they can refresh.
type Message struct {
	Type     string   `json:"type"`
	Entity   string   `json:"entity"`
	Action   string   `json:"action"`
	ID       model.ID `json:"id,omitempty"`
	DinnerID model.ID `json:"dinnerId,omitempty"`
}

// NewMessage creates a Message typed "<entity>_<action>".
func NewMessage(entity, action string, id model.ID) Message {
	return Message{
		Type:   entity + "_" + action,
		Entity: entity,
		Action: action,
		ID:     id,
	}
}

// DinnerCreated announces a new dinner.
func DinnerCreated(d model.Dinner) Message {
	return NewMessage(EntityDinner, ActionCreated, d.ID)
}

// DinnerUpdated announces an edited dinner.
func DinnerUpdated(d model.Dinner) Message {
	return NewMessage(EntityDinner, ActionUpdated, d.ID)
}

// ReservationCreated announces a booking; DinnerID names the dinner whose
// capacity changed.
func ReservationCreated(r model.Reservation) Message {
	m := NewMessage(EntityReservation, ActionCreated, r.ID)
	m.DinnerID = r.DinnerID
	return m
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "clients", n)
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients. Slow clients miss
// messages rather than block the sender.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast dropped for slow clients", "type", msg.Type, "dropped", dropped)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
