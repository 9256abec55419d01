// Package websocket pushes pass progress to browser clients. A client may
// subscribe to one channel; the upload that names the same channel has its
// events delivered there. Clients without a channel receive everything.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"admitcli/internal/infrastructure"
	"admitcli/internal/pipeline"
)

// Message types
const (
	TypeConnection    = "connection"
	TypePassStarted   = "pass:started"
	TypePassProgress  = "pass:progress"
	TypePassCompleted = "pass:completed"
	TypePassFailed    = "pass:failed"
)

const broadcastBuffer = 256

// Message is the JSON frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

type envelope struct {
	channel string
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *Metrics

	quit     chan struct{}
	done     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. It is idempotent. A
// stopped hub cannot be restarted.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	select {
	case <-h.quit:
		return
	default:
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and closes every client's send channel.
func (h *Hub) Stop() {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}
	h.stopOnce.Do(func() {
		close(h.quit)
		<-h.done
	})
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.running = false
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.connected(ctx)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("channel", client.channel),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			payload, err := encode(Message{
				Type:    TypeConnection,
				Channel: client.channel,
				Data: map[string]string{
					"status":    "connected",
					"client_id": client.id,
				},
				TraceID: client.traceID,
			})
			if err == nil {
				h.deliver(client, payload)
			}

		case client := <-h.unregister:
			h.remove(client, "client unregistered")

		case env := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if client.channel == "" || client.channel == env.channel {
					targets = append(targets, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range targets {
				h.deliver(client, env.payload)
			}
			h.logger.Debug("broadcast",
				slog.String("channel", env.channel),
				slog.Int("clients", len(targets)),
				slog.Int("bytes", len(env.payload)))
		}
	}
}

// deliver queues payload for client, dropping the client when its buffer
// is full.
func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
		h.metrics.sent(client.context(), len(payload))
	default:
		h.metrics.dropped(client.context())
		h.remove(client, "client send buffer full, disconnecting")
	}
}

func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	h.metrics.disconnected(ctx, time.Since(client.connectedAt))
	h.logger.InfoContext(ctx, reason,
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Publish sends data to the clients of channel. Events are dropped rather
// than blocking a pass when the broadcast queue is full.
func (h *Hub) Publish(ctx context.Context, channel, msgType string, data interface{}) {
	payload, err := encode(Message{
		Type:    msgType,
		Channel: channel,
		Data:    data,
		TraceID: infrastructure.GetTraceID(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "error marshaling message",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- envelope{channel: channel, payload: payload}:
	case <-h.quit:
	default:
		h.metrics.dropped(ctx)
		h.logger.WarnContext(ctx, "broadcast queue full, message dropped",
			slog.String("type", msgType),
			slog.String("channel", channel))
	}
}

// ProgressFunc adapts the hub to a pipeline progress listener publishing on
// channel.
func (h *Hub) ProgressFunc(ctx context.Context, channel string) pipeline.ProgressFunc {
	return func(e pipeline.Event) {
		h.Publish(ctx, channel, eventType(e.Stage), e)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func eventType(stage string) string {
	switch stage {
	case pipeline.StageStarted:
		return TypePassStarted
	case pipeline.StageCompleted:
		return TypePassCompleted
	case pipeline.StageFailed:
		return TypePassFailed
	default:
		return TypePassProgress
	}
}

func encode(m Message) ([]byte, error) {
	m.Timestamp = time.Now().Format(time.RFC3339)
	return json.Marshal(m)
}
