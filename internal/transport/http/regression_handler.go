package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "carsales/internal/errors"
)

// RegressionHandler serves the regression section
type RegressionHandler struct {
	service      RegressionServiceInterface
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// FitRequest is the body of POST /api/regression/fit. Absent fields take the
// configured split.
type FitRequest struct {
	TestRatio *float64 `json:"test_ratio" validate:"omitempty,gte=0,lte=0.9"`
	Seed      *uint64  `json:"seed"`
}

// NewRegressionHandler creates a new regression handler
func NewRegressionHandler(service RegressionServiceInterface, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RegressionHandler {
	return &RegressionHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "regression_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the regression routes
func (h *RegressionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/report", h.GetReport)
	r.Post("/fit", h.Fit)

	return r
}

// GetReport handles GET /api/regression/report
func (h *RegressionHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.service.RegressionReport(r.Context()))
}

// Fit handles POST /api/regression/fit
func (h *RegressionHandler) Fit(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	opts := h.service.DefaultFitOptions()
	if req.TestRatio != nil {
		opts.TestRatio = *req.TestRatio
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}

	report, err := h.service.FitRegression(r.Context(), &opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	respond(w, r, report)
}
