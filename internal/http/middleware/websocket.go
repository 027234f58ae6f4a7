package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the websocket connections of every display, grouped by masjid code.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
}

var _ display.Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*wsClient]struct{})}
}

// Publish queues ev for every socket of code. Slow sockets drop the event.
func (h *Hub) Publish(code string, ev display.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[code] {
		select {
		case c.send <- payload:
		default:
			log.Warn().Str("code", code).Msg("[ws] client too slow, dropping event")
		}
	}
	return nil
}

// Count returns how many sockets are connected for code.
func (h *Hub) Count(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[code])
}

// Serve upgrades the request and blocks until the socket closes. onEmpty
// runs when the last socket for code disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, code string, onEmpty func()) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(code, c)
	log.Info().Str("code", code).Msg("[ws] display connected")

	done := make(chan struct{})
	go h.writePump(c, done)
	h.readPump(c)
	close(done)

	if h.remove(code, c) && onEmpty != nil {
		onEmpty()
	}
	log.Info().Str("code", code).Msg("[ws] display disconnected")
	return nil
}

func (h *Hub) add(code string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[code] == nil {
		h.clients[code] = make(map[*wsClient]struct{})
	}
	h.clients[code][c] = struct{}{}
}

// remove reports whether c was the last socket for code.
func (h *Hub) remove(code string, c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[code], c)
	if len(h.clients[code]) == 0 {
		delete(h.clients, code)
		return true
	}
	return false
}

// readPump only watches for close and pong frames.
func (h *Hub) readPump(c *wsClient) {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}
