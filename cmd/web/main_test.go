package main

import (
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/config"
	"carsales/internal/shared/testutil"
	handlers "carsales/internal/transport/http"
)

func TestFrontendEmbedding(t *testing.T) {
	frontend, err := frontendFS()
	require.NoError(t, err)

	for _, name := range []string{"index.html", "app.js", "styles.css"} {
		t.Run(name, func(t *testing.T) {
			data, err := fs.ReadFile(frontend, name)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}

func TestFrontendIndexRenders(t *testing.T) {
	frontend, err := frontendFS()
	require.NoError(t, err)

	page, err := handlers.NewPageHandler(frontend, handlers.PageData{
		AppName:       config.AppName,
		Version:       config.AppVersion,
		WebSocketPath: config.WebSocketEndpoint,
		APIBase:       config.APIBasePath,
	}, slog.New(testutil.NewBufferedSlogHandler(nil)))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	page.ServeIndex(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>"+config.AppName+"</title>")
	assert.Contains(t, body, `data-ws="/ws"`)
	assert.Contains(t, body, `data-api="/api"`)
	assert.Contains(t, body, "https://cdn.plot.ly/")

	for _, view := range []string{"categories", "models", "states", "scatter", "trend"} {
		assert.Contains(t, body, `id="chart-`+view+`"`)
	}
}
