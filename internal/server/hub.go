package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/metergrid/moded/internal/logging"
)

const (
	// Time allowed to write a message to a feed subscriber
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from a subscriber
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Per-subscriber send queue; subscribers that fall this far behind
	// are dropped rather than allowed to stall ingest
	sendQueueSize = 32
)

// Hub fans decoded telegram records out to websocket feed subscribers.
// A nil Hub is valid and drops everything (feed disabled).
type Hub struct {
	mu       sync.Mutex
	clients  map[*feedClient]struct{}
	upgrader websocket.Upgrader
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*feedClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The feed is read-only telemetry on a trusted network
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleStream upgrades an HTTP request to a websocket subscription on the
// telegram feed. Mount it on /stream.
func (h *Hub) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("Feed upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &feedClient{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	logging.LogConnection(conn.RemoteAddr().String(), "feed_subscribed")

	go c.writePump(h)
	go c.readPump(h)
}

// Broadcast sends a record to every subscriber. Subscribers whose send
// queue is full are dropped.
func (h *Hub) Broadcast(rec Record) {
	if h == nil {
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("Failed to marshal feed record", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			logging.Warn("Dropping slow feed subscriber",
				zap.String("remote_addr", c.conn.RemoteAddr().String()),
			)
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// SubscriberCount returns the number of connected feed subscribers.
func (h *Hub) SubscriberCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// drop removes a client unless Broadcast or Close already did.
func (h *Hub) drop(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// writePump ships queued records and periodic pings to one subscriber.
func (c *feedClient) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump discards subscriber input; the feed is one-way. It exists to
// process pongs and to notice closed connections.
func (c *feedClient) readPump(h *Hub) {
	defer func() {
		h.drop(c)
		_ = c.conn.Close()
		logging.LogConnection(c.conn.RemoteAddr().String(), "feed_unsubscribed")
	}()

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
