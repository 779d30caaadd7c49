package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"carsales/internal/config"
	"carsales/internal/infrastructure"
)

// Hub tracks the connected dashboard sessions. Each session asks for its
// own views; the hub owns registration and the session gauge.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	renderer ViewRenderer
	checker  SelectionChecker
	cfg      config.WebSocketConfig
	metrics  *infrastructure.BusinessMetrics

	mu     sync.RWMutex
	logger *slog.Logger

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a hub serving views from renderer. checker may be nil, in
// which case selections reach the renderer unchecked.
func NewHub(renderer ViewRenderer, checker SelectionChecker, cfg config.WebSocketConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 4096
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		renderer:   renderer,
		checker:    checker,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	defer close(h.done)
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				c.closeSend()
				h.recordSession(c.ctx, -1)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return
		}
	}
}

// Stop disconnects every session and waits for the loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

// Register adds c to the hub. It blocks until the hub loop accepts it.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		c.closeSend()
	}
}

// Unregister removes c from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.recordSession(c.ctx, 1)
	h.logger.InfoContext(c.ctx, "Dashboard session connected",
		slog.String("client_id", c.id),
		slog.String("remote_addr", c.remoteAddr),
		slog.Int("sessions", count))

	c.send(Message{Type: TypeConnection, Data: h.renderer.Controls(c.ctx)})
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	c.closeSend()
	h.recordSession(c.ctx, -1)
	h.logger.InfoContext(c.ctx, "Dashboard session disconnected",
		slog.String("client_id", c.id),
		slog.Duration("duration", time.Since(c.connectedAt)),
		slog.Int("sessions", count))
}

func (h *Hub) recordSession(ctx context.Context, delta int64) {
	if h.metrics == nil {
		return
	}
	h.metrics.WebSocketSessions.Add(ctx, delta)
}

func (h *Hub) recordMessage(ctx context.Context, direction, msgType string) {
	if h.metrics == nil {
		return
	}
	h.metrics.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", msgType),
	))
}
