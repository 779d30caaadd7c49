package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// mockConnection is an in-memory Connection. Reads block until a message is
// queued with push or the connection is closed.
type mockConnection struct {
	mu      sync.Mutex
	written [][]byte
	pings   int
	closed  bool

	inbox     chan []byte
	closeOnce sync.Once
	done      chan struct{}
	wrote     chan struct{}

	readLimit int64
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		inbox: make(chan []byte, 16),
		done:  make(chan struct{}),
		wrote: make(chan struct{}, 64),
	}
}

func (m *mockConnection) push(raw string) { m.inbox <- []byte(raw) }

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("write on closed connection")
	}
	switch messageType {
	case websocket.TextMessage:
		m.written = append(m.written, append([]byte(nil), data...))
		select {
		case m.wrote <- struct{}{}:
		default:
		}
	case websocket.PingMessage:
		m.pings++
	}
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	select {
	case data := <-m.inbox:
		return websocket.TextMessage, data, nil
	case <-m.done:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (m *mockConnection) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.done)
	})
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConnection) SetPongHandler(func(string) error) {}
func (m *mockConnection) RemoteAddr() string               { return "192.0.2.10:5555" }

func (m *mockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readLimit = limit
}

func (m *mockConnection) messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}
