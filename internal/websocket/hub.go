package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/infrastructure"
)

// Message types and their qualifiers
const (
	TypeConnection = "connection"
	TypeDataUpdate = "data_update"
	SubtypeDataset = "dataset"
	ActionRefresh  = "refresh"
)

// broadcastBuffer bounds pending broadcasts before new ones are dropped
const broadcastBuffer = 64

// Message is the envelope of every server-to-client frame
type Message struct {
	Type      string      `json:"type"`
	Subtype   string      `json:"subtype,omitempty"`
	Action    string      `json:"action,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// HubStats reports hub activity
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// The client set is owned by the Run loop.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu    sync.RWMutex
	stats HubStats

	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics

	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.DashboardMetrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. Repeated calls are no-ops.
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		h.mu.Lock()
		h.started = true
		h.mu.Unlock()
		go h.Run()
	})
}

// Run is the hub loop; it returns after Stop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.setActive(0)
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.mu.Lock()
			h.stats.TotalConnections++
			h.stats.ActiveClients = len(h.clients)
			h.mu.Unlock()

			ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
			h.metrics.RecordWebSocketClients(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(ctx, client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			h.drop(client)

			ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
			h.metrics.RecordWebSocketClients(ctx, -1)
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			sent, failed := 0, 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sent++
				default:
					// Slow consumer: disconnect rather than block the hub
					failed++
					h.drop(client)
					h.metrics.RecordWebSocketClients(context.Background(), -1)
					h.logger.Warn("Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}

			h.mu.Lock()
			h.stats.MessagesSent += int64(sent)
			h.mu.Unlock()

			h.logger.Debug("Broadcast delivered",
				slog.Int("success_count", sent),
				slog.Int("fail_count", failed),
				slog.Int("message_size", len(message)))
		}
	}
}

// greet sends the connection acknowledgement to a new client
func (h *Hub) greet(ctx context.Context, client *Client) {
	data, err := json.Marshal(Message{
		Type: TypeConnection,
		Data: map[string]string{
			"status":    "connected",
			"client_id": client.id,
		},
		Timestamp: time.Now().UTC(),
		TraceID:   client.traceID,
	})
	if err != nil {
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

// drop removes a client and closes its send channel. Run loop only.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setActive(len(h.clients))
}

func (h *Hub) setActive(n int) {
	h.mu.Lock()
	h.stats.ActiveClients = n
	h.mu.Unlock()
}

// Register adds a client. After Stop the client's send channel is closed
// instead so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client; it is a no-op after Stop
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast queues msg for every connected client. It never blocks: when the
// queue is full or the hub is stopped the message is dropped.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.TraceID == "" {
		msg.TraceID = infrastructure.GetTraceID(ctx)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", msg.Type))
		return
	}

	select {
	case <-h.quit:
		h.countDropped()
		return
	default:
	}

	select {
	case h.broadcast <- data:
		h.metrics.RecordWebSocketBroadcast(ctx, msg.Type)
	default:
		h.countDropped()
		h.logger.WarnContext(ctx, "Broadcast queue full, dropping message",
			slog.String("message_type", msg.Type))
	}
}

// BroadcastRefresh tells clients the dataset was reloaded or invalidated
func (h *Hub) BroadcastRefresh(ctx context.Context, data interface{}) {
	h.Broadcast(ctx, Message{
		Type:    TypeDataUpdate,
		Subtype: SubtypeDataset,
		Action:  ActionRefresh,
		Data:    data,
	})
}

func (h *Hub) countDropped() {
	h.mu.Lock()
	h.stats.MessagesDropped++
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats.ActiveClients
}

// Stats returns a snapshot of hub activity
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

// Stop shuts the hub down, closing every client. Repeated calls are no-ops.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)

		h.mu.RLock()
		started := h.started
		h.mu.RUnlock()
		if started {
			<-h.done
		}
	})
}
