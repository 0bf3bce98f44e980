// Package realtime pushes ingestion notifications to connected browsers so
// they can refresh the first page of their order view.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/orderdesk/orderdesk/internal/notify"
)

// Message types sent to clients.
const (
	TypeIngested = "orders.ingested"
	TypeRefresh  = "refresh"
)

// BaseMessage is the envelope written to every client.
type BaseMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan BaseMessage
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	runCtx   context.Context
	runCtxMu sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		broadcast:  make(chan BaseMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With("component", "realtime"),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.setRunCtx(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdownClients()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				case <-time.After(50 * time.Millisecond):
					h.logger.Warn("Dropping message for slow client", "type", msg.Type)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg BaseMessage) {
	select {
	case <-h.Done():
		return
	default:
	}

	select {
	case h.broadcast <- msg:
	case <-h.Done():
	}
}

// Register adds client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.Done():
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.Done():
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Relay forwards every ingestion notification from sub to the clients until
// ctx is done or the subscription closes.
func (h *Hub) Relay(ctx context.Context, sub notify.Subscriber) error {
	ch, err := sub.Subscribe(ctx, notify.SubjectIngested)
	if err != nil {
		return err
	}

	go func() {
		h.logger.Info("Relaying ingestion notifications")
		for msg := range ch {
			evt, err := notify.DecodeIngested(msg.Data)
			if err != nil {
				h.logger.Warn("Ignoring malformed notification", "subject", msg.Subject, "error", err)
				continue
			}
			h.logger.Debug("Broadcasting ingestion", "batch_id", evt.BatchID, "accepted", evt.Accepted)
			h.Broadcast(BaseMessage{Type: TypeIngested, Payload: mustMarshal(evt)})
		}
		h.logger.Info("Notification stream closed")
	}()
	return nil
}

func mustMarshal(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (h *Hub) setRunCtx(ctx context.Context) {
	h.runCtxMu.Lock()
	h.runCtx = ctx
	h.runCtxMu.Unlock()
}

func (h *Hub) Done() <-chan struct{} {
	h.runCtxMu.RLock()
	defer h.runCtxMu.RUnlock()
	if h.runCtx == nil {
		return nil
	}
	return h.runCtx.Done()
}

func (h *Hub) shutdownClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
