package http

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

// PageData is passed to the index template
type PageData struct {
	AppName       string
	Version       string
	WebSocketPath string
	APIBase       string
}

// PageHandler serves the dashboard page and its static assets from the
// embedded frontend.
type PageHandler struct {
	frontend fs.FS
	index    *template.Template
	data     PageData
	logger   *slog.Logger
}

// NewPageHandler parses index.html from frontend once.
func NewPageHandler(frontend fs.FS, data PageData, logger *slog.Logger) (*PageHandler, error) {
	index, err := template.ParseFS(frontend, "index.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		frontend: frontend,
		index:    index,
		data:     data,
		logger:   logger.With(slog.String("handler", "page")),
	}, nil
}

// ServeIndex serves the dashboard page
func (h *PageHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	if err := h.index.Execute(w, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}

// Static serves the frontend assets under prefix.
func (h *PageHandler) Static(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.FS(h.frontend)))
}
