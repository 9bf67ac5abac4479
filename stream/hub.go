package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 2
)

type outbound struct {
	kind int
	data []byte
}

type client struct {
	conn *websocket.Conn

	mu     sync.Mutex // guards send against close
	closed bool
	send   chan outbound
}

// trySend hands out to the writer without blocking.
func (c *client) trySend(out outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- out:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans binary frames out to every connected client and applies the
// control messages they send.
type Hub struct {
	ctrl     Controller
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}

	rejects atomic.Int64
	dropped atomic.Int64
}

// NewHub creates a hub that applies client messages to ctrl. A nil ctrl
// makes the hub publish-only.
func NewHub(ctrl Controller) *Hub {
	return &Hub{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the client until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan outbound, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Info("client connected", "remote", r.RemoteAddr, "clients", n)

	go h.writeLoop(c)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	n = len(h.clients)
	h.mu.Unlock()
	c.close()
	slog.Info("client disconnected", "remote", r.RemoteAddr, "clients", n)
}

func (h *Hub) readLoop(c *client) {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read", "error", err)
			}
			return
		}
		if h.ctrl == nil {
			continue
		}
		if err := Apply(h.ctrl, msg); err != nil {
			h.rejects.Add(1)
			slog.Warn("rejected control message", "type", msg.Type, "error", err)
			data, _ := json.Marshal(Reply{Type: "error", Error: err.Error()})
			h.queue(c, outbound{kind: websocket.TextMessage, data: data})
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for out := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(out.kind, out.data); err != nil {
			slog.Warn("websocket write", "error", err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// queue drops the message when the client's buffer is full, so a slow
// client never stalls the simulation.
func (h *Hub) queue(c *client, out outbound) {
	if !c.trySend(out) {
		h.dropped.Add(1)
	}
}

// Broadcast sends one encoded frame to every client. The buffer must not be
// modified afterwards.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.queue(c, outbound{kind: websocket.BinaryMessage, data: frame})
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TakeRejects returns and resets the count of rejected control messages.
func (h *Hub) TakeRejects() int {
	return int(h.rejects.Swap(0))
}

// Dropped returns how many frames were dropped for slow clients.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
