package websocket

import (
	"encoding/json"
	"time"

	"carsales/internal/services"
)

// Message types of the dashboard protocol.
const (
	TypeConnection = "connection"
	TypeSelect     = "select"
	TypeHeartbeat  = "heartbeat"
	TypeView       = "view"
	TypeError      = "error"
)

// Request is a message sent by the page.
type Request struct {
	Type   string          `json:"type"`
	View   string          `json:"view,omitempty"`
	Params services.Params `json:"params"`
}

// Message is a message sent to the page.
type Message struct {
	Type      string      `json:"type"`
	View      string      `json:"view,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func encode(m Message) ([]byte, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return json.Marshal(m)
}
