package inspect

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/strata-ui/strata/pkg/strata"
)

// ChangeEvent is the JSON message streamed to attached websocket clients
// for every store write.
type ChangeEvent struct {
	Store       string    `json:"store"`
	Keys        []string  `json:"keys,omitempty"`
	Subscribers int       `json:"subscribers"`
	At          time.Time `json:"at"`
}

const (
	// hubSendBuffer is the per-client event buffer. A client that falls
	// this far behind is dropped rather than allowed to block writers.
	hubSendBuffer = 64

	hubWriteTimeout = 10 * time.Second
)

// hubClient is one attached websocket consumer.
type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan ChangeEvent
	quit chan struct{}

	closeOnce sync.Once
}

func (c *hubClient) close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// Hub fans store change events out to websocket clients. Attach it to
// stores via Option and to an HTTP mux via ServeHTTP (the inspect Server
// mounts it on /ws).
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*hubClient
}

// NewHub creates a hub. A nil logger falls back to slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The inspection surface is same-operator tooling; origin
			// policy is left to whatever wraps the server.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*hubClient),
	}
}

// Option returns a store option that broadcasts every write of that store
// through this hub.
func (h *Hub) Option() strata.Option {
	return strata.WithWriteHook(h.Record)
}

// Record broadcasts a single write event.
func (h *Hub) Record(ev strata.WriteEvent) {
	store := ev.Store
	if store == "" {
		store = "anonymous"
	}
	h.Broadcast(ChangeEvent{
		Store:       store,
		Keys:        ev.Keys,
		Subscribers: ev.Subscribers,
		At:          ev.Start,
	})
}

// Broadcast queues an event for every attached client. Clients whose
// buffers are full are dropped; a write must never block on a slow
// inspector.
func (h *Hub) Broadcast(ev ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("dropping slow inspect client", "client", id)
			delete(h.clients, id)
			c.close()
		}
	}
}

// ClientCount returns the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams change events
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &hubClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan ChangeEvent, hubSendBuffer),
		quit: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Debug("inspect client attached", "client", c.id, "remote", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)
}

// writeLoop pushes queued events to the client connection.
func (h *Hub) writeLoop(c *hubClient) {
	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				h.detach(c, err)
				return
			}
		case <-c.quit:
			return
		}
	}
}

// readLoop discards inbound messages; its job is to notice the close.
func (h *Hub) readLoop(c *hubClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				h.logger.Debug("inspect client read error", "client", c.id, "error", err)
			}
			h.detach(c, nil)
			return
		}
	}
}

func (h *Hub) detach(c *hubClient, err error) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()

	if err != nil {
		h.logger.Debug("inspect client detached", "client", c.id, "error", err)
	} else {
		h.logger.Debug("inspect client detached", "client", c.id)
	}
}

// Close detaches all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*hubClient)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
