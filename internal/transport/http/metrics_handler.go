package http

import (
	"net/http"

	apierrors "carsales/internal/errors"
)

// MetricsHandler exposes the Prometheus registry fed by the OTel exporter
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. prometheus is nil when
// the metric exporter is off.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Metrics export is disabled"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
