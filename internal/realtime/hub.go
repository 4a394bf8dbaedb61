package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is one websocket connection owned by a user. A user may hold several
// connections at once (phone + browser).
type Conn struct {
	UserID string // ObjectID hex
	WS     *websocket.Conn
}

// Hub fans events out to the connections of a given user. Delivery is
// best-effort: a write error drops silently, the notification list over REST
// is the durable record.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Conn]struct{})}
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	if h.conns[c.UserID] == nil {
		h.conns[c.UserID] = make(map[*Conn]struct{})
	}
	h.conns[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	if set := h.conns[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.WS.Close()
}

// Push sends a JSON payload to every live connection of the user.
func (h *Hub) Push(userID string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		_ = c.WS.WriteMessage(websocket.TextMessage, msg)
	}
}
