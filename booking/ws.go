package booking

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"tourbook/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the CORS layer.
		return true
	},
}

// Hub fans booking changes out to the websocket clients watching that booking.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string][]*websocket.Conn)}
}

// Serve upgrades the request and keeps the connection subscribed to key until the client
// disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, key string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	h.mu.Lock()
	h.subscribers[key] = append(h.subscribers[key], conn)
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	conns := h.subscribers[key]
	kept := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(h.subscribers, key)
	} else {
		h.subscribers[key] = kept
	}
	h.mu.Unlock()

	conn.Close()
}

// Subscribers reports how many clients watch key.
func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[key])
}

// Publish sends the booking to everyone watching it. Connections that fail the write are dropped.
func (h *Hub) Publish(b *models.Booking) {
	val, err := json.Marshal(b)
	if err != nil {
		log.Printf("booking %s: marshal update: %v", b.ID.Hex(), err)
		return
	}
	h.broadcast(b.ID.Hex(), val)
}

func (h *Hub) broadcast(key string, val []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[key]
	if len(conns) == 0 {
		return
	}
	kept := conns[:0]
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, val); err == nil {
			kept = append(kept, conn)
		} else {
			conn.Close()
		}
	}
	if len(kept) == 0 {
		delete(h.subscribers, key)
		return
	}
	h.subscribers[key] = kept
}
