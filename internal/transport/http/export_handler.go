package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carsales/internal/config"
	apierrors "carsales/internal/errors"
	"carsales/internal/services"
)

// ExportHandler serves view downloads
type ExportHandler struct {
	service      ExportServiceInterface
	selection    func(http.Handler) http.Handler
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler. selection validates the
// query of the CSV route and may be nil.
func NewExportHandler(service ExportServiceInterface, selection func(http.Handler) http.Handler, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	if selection == nil {
		selection = func(next http.Handler) http.Handler { return next }
	}
	return &ExportHandler{
		service:      service,
		selection:    selection,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/workbook.xlsx", h.DownloadWorkbook)
	r.With(h.selection).Get("/{view}.csv", h.DownloadCSV)

	return r
}

// DownloadCSV handles GET /api/export/{view}.csv
func (h *ExportHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	view := services.ViewName(chi.URLParam(r, "view"))

	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf, view, services.ParamsFromValues(r.URL.Query())); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	h.write(w, r, buf.Bytes(), config.ContentTypeCSV, string(view)+".csv")
}

// DownloadWorkbook handles GET /api/export/workbook.xlsx
func (h *ExportHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportWorkbook(r.Context(), &buf); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	h.write(w, r, buf.Bytes(), config.ContentTypeXLSX, config.WorkbookFileName)
}

// write sends a finished download. Bodies are buffered so a failed export
// can still answer with a problem response.
func (h *ExportHandler) write(w http.ResponseWriter, r *http.Request, body []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			slog.String("file", filename),
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "download served",
		slog.String("file", filename),
		slog.Int("bytes", len(body)))
}
