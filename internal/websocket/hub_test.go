package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"carsales/internal/config"
	"carsales/internal/dataset/datasettest"
	apierrors "carsales/internal/errors"
	"carsales/internal/infrastructure"
	"carsales/internal/middleware"
	"carsales/internal/services"
	"carsales/internal/shared/testutil"
)

type received struct {
	Type    string          `json:"type"`
	View    string          `json:"view"`
	Data    json.RawMessage `json:"data"`
	TraceID string          `json:"trace_id"`
}

type session struct {
	hub    *Hub
	conn   *mockConnection
	client *Client
	svc    *services.DashboardService
	logs   *testutil.BufferedSlogHandler
}

func newSession(t *testing.T) *session {
	t.Helper()

	// Pump goroutines may log after the test returns, so records are not
	// forwarded to t.
	logs := testutil.NewBufferedSlogHandler(nil)
	logger := slog.New(logs)
	table := datasettest.Table(t)
	svc := services.NewDashboardService(table, config.RegressionConfig{EnableLive: true, TestRatio: 0.2, Seed: 42}, nil, logger)
	checker := middleware.NewSelectionValidator(
		middleware.NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false)),
		table,
	)

	metrics, err := infrastructure.CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	hub := NewHub(svc, checker, config.WebSocketConfig{}, metrics, logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	conn := newMockConnection()
	client := NewClient(hub, conn, "trace-ws-1", logger)
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	t.Cleanup(func() { conn.Close() })

	return &session{hub: hub, conn: conn, client: client, svc: svc, logs: logs}
}

// message waits for the n-th text message (1-based) written to the session.
func (s *session) message(t *testing.T, n int) received {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.conn.messages()) >= n },
		2*time.Second, 5*time.Millisecond, "expected %d messages", n)

	var m received
	require.NoError(t, json.Unmarshal(s.conn.messages()[n-1], &m))
	return m
}

func TestHub_ConnectSendsControls(t *testing.T) {
	s := newSession(t)

	m := s.message(t, 1)
	assert.Equal(t, TypeConnection, m.Type)
	assert.Equal(t, "trace-ws-1", m.TraceID)

	var controls services.Controls
	require.NoError(t, json.Unmarshal(m.Data, &controls))
	assert.Equal(t, []string{"bmw", "ford", "kia", "nissan", "unknown"}, controls.Makes)
	assert.Equal(t, services.Views, controls.Views)
	assert.True(t, controls.LiveRegression)

	assert.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.logs.ContainsMessage("Dashboard session connected") }, time.Second, 5*time.Millisecond)
}

func TestClient_SelectAnswersWithRenderedView(t *testing.T) {
	s := newSession(t)
	s.message(t, 1)

	s.conn.push(`{"type":"select","view":"states","params":{"make":" Ford ","model":"all"}}`)
	m := s.message(t, 2)
	require.Equal(t, TypeView, m.Type, string(m.Data))
	assert.Equal(t, "states", m.View)

	want, err := s.svc.Render(context.Background(), services.ViewStates, services.Params{Make: "ford", Model: "all"})
	require.NoError(t, err)
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(m.Data))
}

func TestClient_HeartbeatHasNoReply(t *testing.T) {
	s := newSession(t)
	s.message(t, 1)

	s.conn.push(`{"type":"heartbeat"}`)
	s.conn.push(`{"type":"select","view":"trend","params":{}}`)

	m := s.message(t, 2)
	assert.Equal(t, TypeView, m.Type)
	assert.Equal(t, "trend", m.View)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode string
		wantView string
	}{
		{"malformed json", `{"type":`, "INVALID_JSON", ""},
		{"unknown type", `{"type":"subscribe"}`, "INVALID_REQUEST", ""},
		{"unknown view", `{"type":"select","view":"pie"}`, "NOT_FOUND", "pie"},
		{"invalid option", `{"type":"select","view":"categories","params":{"column":"price"}}`, "VALIDATION_FAILED", "categories"},
		{"unknown make", `{"type":"select","view":"models","params":{"make":"tesla"}}`, "VALIDATION_FAILED", "models"},
		{"model of another make", `{"type":"select","view":"states","params":{"make":"ford","model":"sorento"}}`, "VALIDATION_FAILED", "states"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			s.message(t, 1)

			s.conn.push(tt.raw)
			m := s.message(t, 2)
			require.Equal(t, TypeError, m.Type)
			assert.Equal(t, tt.wantView, m.View)

			var data ErrorData
			require.NoError(t, json.Unmarshal(m.Data, &data))
			assert.Equal(t, tt.wantCode, data.Code)
			assert.NotEmpty(t, data.Message)
		})
	}
}

func TestClient_SessionSurvivesErrors(t *testing.T) {
	s := newSession(t)
	s.message(t, 1)

	s.conn.push(`{"type":"select","view":"scatter","params":{"variable":"mmr"}}`)
	s.conn.push(`{"type":"select","view":"scatter","params":{"variable":"condition"}}`)

	assert.Equal(t, TypeError, s.message(t, 2).Type)
	m := s.message(t, 3)
	assert.Equal(t, TypeView, m.Type)

	var v struct {
		Params services.Params `json:"params"`
	}
	require.NoError(t, json.Unmarshal(m.Data, &v))
	assert.Equal(t, "condition", v.Params.Variable)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	s := newSession(t)
	s.message(t, 1)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.conn.Close()

	assert.Eventually(t, func() bool { return s.hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.logs.ContainsMessage("Dashboard session disconnected") }, time.Second, 5*time.Millisecond)
}

func TestHub_StopClosesSessions(t *testing.T) {
	s := newSession(t)
	s.message(t, 1)

	s.hub.Stop()
	assert.Equal(t, 0, s.hub.ClientCount())

	// Sends after the hub is gone are dropped silently.
	s.client.send(Message{Type: TypeView})
	s.hub.Stop()
}

func TestNewHub_Defaults(t *testing.T) {
	h := NewHub(nil, nil, config.WebSocketConfig{PingPeriod: time.Minute, PongWait: 30 * time.Second}, nil, nil)
	assert.Equal(t, 30*time.Second, h.cfg.PongWait)
	assert.Equal(t, 27*time.Second, h.cfg.PingPeriod)
	assert.Equal(t, int64(4096), h.cfg.MaxMessageBytes)
}
