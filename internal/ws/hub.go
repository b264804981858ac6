// Package ws implements WebSocket fanout of click events to live
// subscribers, built on a gorilla/websocket connection registry.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub maintains shortCode -> set<connection> and emits payloads to
// live subscribers, reaping dead connections on write failure.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*websocket.Conn]struct{}

	statsMu     sync.Mutex
	totalEmits  int64
	totalReaped int64
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[*websocket.Conn]struct{})}
}

// Subscribe registers conn as a listener for shortCode.
func (h *Hub) Subscribe(shortCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subscribers[shortCode]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.subscribers[shortCode] = set
	}
	set[conn] = struct{}{}
}

// Unsubscribe removes conn from shortCode's subscriber set.
func (h *Hub) Unsubscribe(shortCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subscribers[shortCode]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.subscribers, shortCode)
	}
}

// Emit writes payload to every live subscriber of shortCode. Dead
// connections are closed and reaped from the registry.
func (h *Hub) Emit(shortCode string, payload []byte) {
	h.mu.RLock()
	set := h.subscribers[shortCode]
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	var dead []*websocket.Conn
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			dead = append(dead, c)
		}
	}

	h.statsMu.Lock()
	h.totalEmits++
	h.totalReaped += int64(len(dead))
	h.statsMu.Unlock()

	if len(dead) > 0 {
		h.mu.Lock()
		for _, c := range dead {
			if set, ok := h.subscribers[shortCode]; ok {
				delete(set, c)
				if len(set) == 0 {
					delete(h.subscribers, shortCode)
				}
			}
			c.Close()
		}
		h.mu.Unlock()
	}
}

// GetSubscriberCount reports the live subscriber count for shortCode.
func (h *Hub) GetSubscriberCount(shortCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[shortCode])
}

// Stats is an observability snapshot.
type Stats struct {
	TrackedCodes int
	TotalEmits   int64
	TotalReaped  int64
}

func (h *Hub) GetStats() Stats {
	h.mu.RLock()
	tracked := len(h.subscribers)
	h.mu.RUnlock()
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return Stats{TrackedCodes: tracked, TotalEmits: h.totalEmits, TotalReaped: h.totalReaped}
}
