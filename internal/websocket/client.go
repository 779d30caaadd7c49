package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apierrors "carsales/internal/errors"
	"carsales/internal/infrastructure"
	"carsales/internal/services"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	sendBuffer = 16
)

// Client is one dashboard session. It reads selections from the page and
// answers each with the rendered view.
type Client struct {
	hub  *Hub
	conn Connection

	// Buffered channel of outbound messages
	out    chan []byte
	mu     sync.Mutex
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewClient creates a session on conn. traceID ties the session's logs to the
// upgrade request.
func NewClient(hub *Hub, conn Connection, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	ctx := context.Background()
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		hub:         hub,
		conn:        conn,
		out:         make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

// ID returns the session identifier.
func (c *Client) ID() string { return c.id }

// ReadPump reads page messages until the connection fails, then unregisters
// the session.
func (c *Client) ReadPump() {
	defer func() {
		c.cancel()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.WarnContext(c.ctx, "Unexpected WebSocket close", slog.String("error", err.Error()))
			}
			return
		}
		c.handle(raw)
	}
}

func (c *Client) handle(raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		c.hub.recordMessage(c.ctx, "in", "invalid")
		c.sendError("", apierrors.New(http.StatusBadRequest, "INVALID_JSON", "Message is not valid JSON"))
		return
	}
	c.hub.recordMessage(c.ctx, "in", req.Type)

	switch req.Type {
	case TypeHeartbeat:
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
		c.logger.DebugContext(c.ctx, "Heartbeat received")
	case TypeSelect:
		c.selectView(req)
	default:
		c.sendError(req.View, apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("unknown message type %q", req.Type)))
	}
}

func (c *Client) selectView(req Request) {
	view, err := services.ParseViewName(req.View)
	if err != nil {
		c.sendError(req.View, apierrors.NotFoundError("view "+req.View))
		return
	}

	p := req.Params.Trimmed()
	if c.hub.checker != nil {
		if err := c.hub.checker.ValidateSelection(view, p); err != nil {
			c.logger.WarnContext(c.ctx, "selection rejected",
				slog.String("view", req.View),
				slog.String("error", err.Error()))
			c.sendError(req.View, err)
			return
		}
	}

	v, err := c.hub.renderer.Render(c.ctx, view, p)
	if err != nil {
		c.sendError(req.View, err)
		return
	}
	c.send(Message{Type: TypeView, View: string(view), Data: v})
}

func (c *Client) sendError(view string, err error) {
	data := ErrorData{Message: err.Error()}
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		data.Code = apiErr.ErrorCode
		data.Details = apiErr.Details
	}
	c.send(Message{Type: TypeError, View: view, Data: data})
}

// send queues m for the write pump. A session whose buffer is full drops
// the message.
func (c *Client) send(m Message) {
	m.TraceID = c.traceID
	data, err := encode(m)
	if err != nil {
		c.logger.ErrorContext(c.ctx, "Failed to encode message",
			slog.String("type", m.Type),
			slog.String("error", err.Error()))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- data:
		c.hub.recordMessage(c.ctx, "out", m.Type)
	default:
		c.logger.WarnContext(c.ctx, "Send buffer full, message dropped", slog.String("type", m.Type))
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.ctx, "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
