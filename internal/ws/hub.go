package ws

import (
	"log"
	"sync"
)

// Hub maintains room subscriptions for live connections. Rooms are derived
// identifiers ("single:<id>", "group:<id>"), never stored; a room exists
// exactly while it has subscribers.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Client]bool
	clientRooms map[*Client]map[string]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		clientRooms: make(map[*Client]map[string]bool),
	}
}

// Subscribe adds the client to a room.
func (h *Hub) Subscribe(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	if _, ok := h.clientRooms[c]; !ok {
		h.clientRooms[c] = make(map[string]bool)
	}
	h.clientRooms[c][room] = true
}

// Unsubscribe removes the client from a room.
func (h *Hub) Unsubscribe(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, c)
}

// UnsubscribeAll removes the client from every room it joined. Called on
// disconnect.
func (h *Hub) UnsubscribeAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.clientRooms[c] {
		h.removeLocked(room, c)
	}
}

func (h *Hub) removeLocked(room string, c *Client) {
	if subs, ok := h.rooms[room]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.clientRooms[c]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(h.clientRooms, c)
		}
	}
}

// Subscribed reports whether the client is currently in the room.
func (h *Hub) Subscribed(room string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[room][c]
}

// RoomSize returns the number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends an event to every subscriber of the room, the sender's
// connection included.
func (h *Hub) Broadcast(room string, event string, data any) {
	h.broadcast(room, nil, event, data)
}

// BroadcastExcept sends an event to every subscriber of the room except one
// connection. Used for typing signals, which must not echo to the sender.
func (h *Hub) BroadcastExcept(room string, except *Client, event string, data any) {
	h.broadcast(room, except, event, data)
}

func (h *Hub) broadcast(room string, except *Client, event string, data any) {
	frame, err := MarshalEvent(event, data)
	if err != nil {
		log.Printf("marshal %q broadcast failed room=%s: %v", event, room, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var stalled []*Client
	for _, c := range targets {
		if !c.enqueue(frame) {
			stalled = append(stalled, c)
		}
	}

	// A subscriber that cannot keep up is dropped rather than allowed to
	// stall the room.
	for _, c := range stalled {
		log.Printf("dropping stalled subscriber conn=%s room=%s", c.Info.ConnID, room)
		h.UnsubscribeAll(c)
		c.Close()
	}
}
