package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/config"
	"carsales/internal/dataset/datasettest"
	apierrors "carsales/internal/errors"
	"carsales/internal/shared/testutil"
)

func createMockFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html": {Data: []byte(`<html><title>{{.AppName}}</title><body data-ws="{{.WebSocketPath}}" data-api="{{.APIBase}}"></body></html>`)},
		"app.js":     {Data: []byte(`console.log("dashboard")`)},
		"styles.css": {Data: []byte(`body{}`)},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dataset.Path = datasettest.WriteSampleCSV(t)
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func newTestApp(t *testing.T) *Application {
	t.Helper()

	// Background goroutines may log after the test returns, so records are
	// not forwarded to t.
	logger := slog.New(testutil.NewBufferedSlogHandler(nil))
	app, err := New(context.Background(), testConfig(t), logger, createMockFS())
	require.NoError(t, err)

	app.WebSocketHub.Start()
	t.Cleanup(app.WebSocketHub.Stop)
	return app
}

func serve(app *Application, method, target string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, target, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	app.Router.ServeHTTP(w, r)
	return w
}

func TestNew(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, 8, app.Table.Len())
	assert.Equal(t, 8, app.LoadStats.RowsKept)
	assert.NotNil(t, app.Dashboard)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.OTelProviders.PrometheusHTTP)
	assert.Equal(t, ":0", app.Server.Addr)
	assert.Equal(t, app.Router, app.Server.Handler)
}

func TestNew_MissingDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")

	_, err := New(context.Background(), cfg, slog.New(testutil.NewBufferedSlogHandler(nil)), nil)
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeDataset, appErr.Type)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method     string
		target     string
		body       string
		wantStatus int
		wantType   string
	}{
		{http.MethodGet, "/", "", http.StatusOK, "text/html"},
		{http.MethodGet, "/static/app.js", "", http.StatusOK, ""},
		{http.MethodGet, "/health", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/health/ready", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/health/live", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/version", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/metrics", "", http.StatusOK, "text/plain"},
		{http.MethodGet, "/api/dashboard/controls", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/dashboard/summary", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/dashboard/makes/kia/models", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/dashboard/makes/tesla/models", "", http.StatusNotFound, "application/json"},
		{http.MethodGet, "/api/dashboard/categories?column=body&direction=bottom", "", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/dashboard/categories?column=price", "", http.StatusBadRequest, "application/json"},
		{http.MethodGet, "/api/dashboard/pie", "", http.StatusNotFound, "application/json"},
		{http.MethodGet, "/api/regression/report", "", http.StatusOK, "application/json"},
		{http.MethodPost, "/api/regression/fit", `{"test_ratio":5}`, http.StatusBadRequest, "application/json"},
		{http.MethodGet, "/api/export/trend.csv", "", http.StatusOK, config.ContentTypeCSV},
		{http.MethodGet, "/api/export/workbook.xlsx", "", http.StatusOK, config.ContentTypeXLSX},
		{http.MethodPost, "/api/logs", `{"level":"info","message":"page loaded"}`, http.StatusAccepted, "application/json"},
		{http.MethodPost, "/api/logs", `{"level":`, http.StatusBadRequest, "application/json"},
		{http.MethodGet, "/does-not-exist", "", http.StatusNotFound, "application/json"},
		{http.MethodDelete, "/api/dashboard/controls", "", http.StatusMethodNotAllowed, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			w := serve(app, tt.method, tt.target, body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.wantType)
			}
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_SecurityHeaders(t *testing.T) {
	app := newTestApp(t)

	w := serve(app, http.MethodGet, "/api/dashboard/controls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestApplication_MetricsAfterRequests(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/dashboard/trend", nil).Code)

	w := serve(app, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard_view_renders")
	assert.Contains(t, w.Body.String(), "dataset_rows_loaded")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

// The websocket answer to a selection carries the same view as the HTTP
// route for that selection.
func TestApplication_WebSocketMatchesHTTP(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+config.WebSocketEndpoint, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var msg struct {
		Type string          `json:"type"`
		View string          `json:"view"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "connection", msg.Type)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":   "select",
		"view":   "states",
		"params": map[string]string{"make": "ford", "model": "f150"},
	}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "view", msg.Type, string(msg.Data))

	resp, err := http.Get(srv.URL + "/api/dashboard/states?make=ford&model=f150")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.JSONEq(t, string(envelope.Data), string(msg.Data))
}

func TestApplication_StartStop(t *testing.T) {
	logger := slog.New(testutil.NewBufferedSlogHandler(nil))
	app, err := New(context.Background(), testConfig(t), logger, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	require.NoError(t, app.Stop(context.Background()))
	assert.NoError(t, ctx.Err())
}

func TestApplication_getCORSConfig(t *testing.T) {
	app := newTestApp(t)
	app.Config.Security.AllowedOrigins = []string{"https://cars.example.com"}

	cfg := app.getCORSConfig()
	assert.Equal(t, []string{"https://cars.example.com"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.ExposedHeaders, "Content-Disposition")
	assert.False(t, cfg.AllowCredentials)
}
