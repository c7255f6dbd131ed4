package ws

import (
	"sync"

	"messenger-service/internal/models"
)

// Hub is the process-wide connection registry: which connections are
// live, which chats each one subscribes to, and how many connections
// each user currently holds. It is constructed once in main and
// injected wherever broadcast is needed. All three tables share one
// lock; the event rate does not call for anything finer.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	rooms    map[string]map[*Client]struct{}
	presence map[int64]int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		presence: make(map[int64]int),
	}
}

// Register admits an authenticated connection. It returns true when
// this is the user's first live connection, i.e. the user just came
// online.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.presence[c.user.ID]++
	return h.presence[c.user.ID] == 1
}

// Unregister removes a connection and its chat subscriptions. It
// returns true when the user has no live connections left, i.e. the
// user just went offline. Presence is reference-counted so a user with
// two tabs open stays online until the last one closes.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	c.closeSend()

	for chatID := range c.chats {
		h.removeFromRoom(chatID, c)
	}

	h.presence[c.user.ID]--
	if h.presence[c.user.ID] <= 0 {
		delete(h.presence, c.user.ID)
		return true
	}
	return false
}

// Join subscribes the connection to a chat. Joining is not gated on
// chat membership; any authenticated connection may subscribe to any
// chat id it knows.
func (h *Hub) Join(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][c] = struct{}{}
	c.chats[chatID] = struct{}{}
}

// Leave removes the connection's subscription to a chat.
func (h *Hub) Leave(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(chatID, c)
	delete(c.chats, chatID)
}

func (h *Hub) removeFromRoom(chatID string, c *Client) {
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// BroadcastToChat delivers an event to every connection subscribed to
// the chat, including the sender's own connections.
func (h *Hub) BroadcastToChat(chatID string, event models.ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[chatID] {
		c.trySend(event)
	}
}

// BroadcastToChatExcept delivers an event to every subscriber of the
// chat except the given connection. Used for typing relays.
func (h *Hub) BroadcastToChatExcept(chatID string, except *Client, event models.ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[chatID] {
		if c != except {
			c.trySend(event)
		}
	}
}

// BroadcastAll delivers an event to every connected client. Presence
// events are global, not scoped to any chat.
func (h *Hub) BroadcastAll(event models.ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.trySend(event)
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presence[userID] > 0
}

// Connections reports the user's live connection count.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presence[userID]
}

// Subscribers reports how many connections are subscribed to a chat.
func (h *Hub) Subscribers(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
