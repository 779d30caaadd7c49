package websocket

import (
	"context"
	"time"

	"carsales/internal/services"
)

// Connection defines the interface for WebSocket connections
// This allows for proper mocking in tests
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// ViewRenderer computes the views a session asks for.
type ViewRenderer interface {
	Controls(ctx context.Context) *services.Controls
	Render(ctx context.Context, view services.ViewName, p services.Params) (*services.View, error)
}

// SelectionChecker rejects selections before they are rendered. The HTTP
// API uses the same checker, so both surfaces refuse the same input.
type SelectionChecker interface {
	ValidateSelection(view services.ViewName, p services.Params) error
}
