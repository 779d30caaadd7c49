package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"carsales/internal/analysis"
	apierrors "carsales/internal/errors"
	"carsales/internal/regression"
	"carsales/internal/services"
)

// DashboardHandler handles the descriptive dashboard routes with RFC 7807
// compliance
type DashboardHandler struct {
	service      DashboardServiceInterface
	selection    func(http.Handler) http.Handler
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler. selection validates
// the query of the view routes and may be nil.
func NewDashboardHandler(service DashboardServiceInterface, selection func(http.Handler) http.Handler, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if selection == nil {
		selection = func(next http.Handler) http.Handler { return next }
	}
	return &DashboardHandler{
		service:      service,
		selection:    selection,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes. Static routes take precedence over
// the {view} pattern.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/controls", h.GetControls)
	r.Get("/summary", h.GetSummary)
	r.Get("/makes/{make}/models", h.GetModels)
	r.With(h.selection).Get("/{view}", h.GetView)

	return r
}

// GetControls handles GET /api/dashboard/controls
func (h *DashboardHandler) GetControls(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.service.Controls(r.Context()))
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.service.Summary(r.Context()))
}

// GetModels handles GET /api/dashboard/makes/{make}/models
func (h *DashboardHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	makeName := chi.URLParam(r, "make")

	models, err := h.service.Models(r.Context(), makeName)
	if err != nil {
		if errors.Is(err, analysis.ErrUnknownMake) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"MAKE_NOT_FOUND",
				"Make not found in the dataset",
				map[string]string{"make": makeName},
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   models,
		"count":  len(models),
	})
}

// GetView handles GET /api/dashboard/{view}
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	view := services.ViewName(chi.URLParam(r, "view"))

	h.logger.DebugContext(r.Context(), "rendering view",
		slog.String("view", string(view)),
		slog.String("query", r.URL.RawQuery),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	v, err := h.service.Render(r.Context(), view, services.ParamsFromValues(r.URL.Query()))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	respond(w, r, v)
}

// respond writes the success envelope
func respond(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// mapServiceError turns the service sentinels into API errors. Unknown
// errors pass through and become 500 (or 504 for context errors).
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrUnknownView):
		return apierrors.NewWithDetails(http.StatusNotFound, "VIEW_NOT_FOUND", "View not found", err.Error())
	case errors.Is(err, analysis.ErrInvalidSelection),
		errors.Is(err, analysis.ErrUnknownMake),
		errors.Is(err, analysis.ErrUnknownModel):
		return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error())
	case errors.Is(err, services.ErrLiveRegressionDisabled):
		return apierrors.New(http.StatusServiceUnavailable, "LIVE_REGRESSION_DISABLED", "Live regression is disabled")
	case errors.Is(err, regression.ErrInvalidTestRatio):
		return apierrors.ErrValidation("test_ratio", err.Error())
	case errors.Is(err, regression.ErrInsufficientData), errors.Is(err, regression.ErrSingular):
		return apierrors.NewWithDetails(http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", "The loaded data cannot support this fit", err.Error())
	case errors.Is(err, services.ErrExportFailed):
		return apierrors.NewWithDetails(http.StatusInternalServerError, "EXPORT_FAILED", "Export failed", err.Error())
	}
	return err
}
