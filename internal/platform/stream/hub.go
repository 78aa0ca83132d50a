// Package stream fans published events out to websocket clients.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingEvery    = 30 * time.Second
)

// Envelope is the frame sent to clients.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	TS    time.Time       `json:"ts"`
}

// Hub keeps the connected clients and the latest frame per event so new
// clients start with the current state.
type Hub struct {
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  map[string][]byte
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the terminal UI is served from another origin in development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now:     time.Now,
		clients: map[*client]struct{}{},
		latest:  map[string][]byte{},
	}
}

// Publish encodes payload and queues it to every client. A client whose
// buffer is full is disconnected instead of blocking the publisher.
func (h *Hub) Publish(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data, TS: h.now().UTC()})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.latest[event] = frame
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			slog.Warn("dropping slow websocket client", "remote", c.remote)
			h.removeLocked(c)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler upgrades the request and registers the connection.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the error response
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}
		cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), remote: c.ClientIP()}

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
		for _, frame := range h.latest {
			select {
			case cl.send <- frame:
			default:
			}
		}
		h.clients[cl] = struct{}{}
		n := len(h.clients)
		h.mu.Unlock()

		slog.Info("websocket client connected", "remote", cl.remote, "clients", n)
		go cl.writePump()
		go cl.readPump()
	}
}

// Close disconnects every client; later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
