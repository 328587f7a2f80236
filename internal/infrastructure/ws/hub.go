// Package ws pushes newly added notifications to connected dashboards over
// websockets. The hub owns the client set; each client runs a read and a write pump.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/community-hub/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventNotificationCreated = "notification.created"

	broadcastBacklog = 256
)

var ErrBacklogFull = errors.New("websocket broadcast backlog full")

// Event is the envelope written to every client.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub builds a hub accepting upgrades from allowedOrigins ("*" allows any).
func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBacklog),
		done:       make(chan struct{}),
		log:        log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("websocket client connected", zap.String("actor_id", c.actorID), zap.Int("total", total))
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Dispatch queues n for every connected client. It never blocks on slow clients.
func (h *Hub) Dispatch(ctx context.Context, n domain.Notification) error {
	b, err := json.Marshal(Event{Type: EventNotificationCreated, Data: n})
	if err != nil {
		return fmt.Errorf("marshal websocket event: %w", err)
	}
	select {
	case h.broadcast <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBacklogFull
	}
}

// Serve upgrades the request and attaches the connection to the hub.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, actor domain.Actor) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	c := newClient(h, conn, actor.ID)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return errors.New("websocket hub stopped")
	case <-r.Context().Done():
		conn.Close()
		return r.Context().Err()
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Client is not draining; drop it rather than stall the hub.
			delete(h.clients, c)
			close(c.send)
			h.log.Warn("websocket client dropped", zap.String("actor_id", c.actorID))
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.Info("websocket client disconnected", zap.String("actor_id", c.actorID), zap.Int("total", len(h.clients)))
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
