package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"carsales/internal/analysis"
	apierrors "carsales/internal/errors"
	"carsales/internal/services"
)

// ValidationMiddleware provides request validation using struct tags
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  1 << 20,
	}
}

// ValidateRequest rejects oversized or malformed JSON bodies before they
// reach a handler.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				map[string]interface{}{
					"max_size": m.maxBodySize,
					"size":     r.ContentLength,
				},
			))
			return
		}

		if r.Body != nil && r.ContentLength != 0 {
			body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize))
			if err != nil {
				m.logger.ErrorContext(r.Context(), "failed to read request body",
					slog.String("error", err.Error()),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))

			if len(body) > 0 && !json.Valid(body) {
				m.errorHandler.HandleError(w, r, apierrors.New(
					http.StatusBadRequest,
					"INVALID_JSON",
					"Request body contains invalid JSON",
				))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateStruct validates a struct and returns validation errors
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: m.formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// ContentTypeValidator ensures requests have proper content type
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			// An empty body carries no content type and selects the defaults.
			contentType := r.Header.Get("Content-Type")
			if contentType == "" && r.ContentLength <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// formatValidationError formats validation error messages
func (m *ValidationMiddleware) formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// Catalogue answers membership questions about the loaded table.
type Catalogue interface {
	HasMake(name string) bool
	HasModel(makeName, model string) bool
}

// Query shapes of each view. The oneof lists mirror the analysis option sets.
type (
	categoriesQuery struct {
		Column    string `json:"column" validate:"omitempty,oneof=make year body transmission state color interior"`
		Direction string `json:"direction" validate:"omitempty,oneof=top bottom"`
	}
	modelsQuery struct {
		Make   string `json:"make" validate:"omitempty,max=64"`
		Metric string `json:"metric" validate:"omitempty,oneof=count avg_price avg_mmr price_mmr_ratio"`
	}
	statesQuery struct {
		Make  string `json:"make" validate:"omitempty,max=64"`
		Model string `json:"model" validate:"omitempty,max=64"`
	}
	scatterQuery struct {
		Variable string `json:"variable" validate:"omitempty,oneof=odometer condition"`
	}
	trendQuery struct {
		Metric string `json:"metric" validate:"omitempty,oneof=avg_price count"`
	}
)

// SelectionValidator checks view controls against their option sets and the
// makes and models of the loaded table.
type SelectionValidator struct {
	validation *ValidationMiddleware
	catalogue  Catalogue
}

// NewSelectionValidator creates a selection validator over catalogue.
func NewSelectionValidator(validation *ValidationMiddleware, catalogue Catalogue) *SelectionValidator {
	return &SelectionValidator{validation: validation, catalogue: catalogue}
}

// ValidateSelection returns a VALIDATION_FAILED APIError naming the rejected
// fields, or NOT_FOUND for an unknown view. Empty fields are valid and take
// the view defaults later.
func (s *SelectionValidator) ValidateSelection(view services.ViewName, p services.Params) error {
	var query interface{}
	switch view {
	case services.ViewCategories:
		query = categoriesQuery{Column: p.Column, Direction: p.Direction}
	case services.ViewModels:
		query = modelsQuery{Make: p.Make, Metric: p.Metric}
	case services.ViewStates:
		query = statesQuery{Make: p.Make, Model: p.Model}
	case services.ViewScatter:
		query = scatterQuery{Variable: p.Variable}
	case services.ViewTrend:
		query = trendQuery{Metric: p.Metric}
	default:
		return apierrors.NotFoundError("view " + string(view))
	}

	if err := s.validation.ValidateStruct(query); err != nil {
		return err
	}
	return s.checkMembership(view, p)
}

func (s *SelectionValidator) checkMembership(view services.ViewName, p services.Params) error {
	makeName := strings.ToLower(p.Make)
	model := strings.ToLower(p.Model)

	switch view {
	case services.ViewModels:
		if makeName != "" && !s.catalogue.HasMake(makeName) {
			return apierrors.ErrValidation("make", fmt.Sprintf("make %q is not in the dataset", p.Make))
		}
	case services.ViewStates:
		if makeName == "" || makeName == analysis.All {
			return nil
		}
		if !s.catalogue.HasMake(makeName) {
			return apierrors.ErrValidation("make", fmt.Sprintf("make %q is not in the dataset", p.Make))
		}
		if model != "" && model != analysis.All && !s.catalogue.HasModel(makeName, model) {
			return apierrors.ErrValidation("model", fmt.Sprintf("model %q is not a model of %s", p.Model, makeName))
		}
	}
	return nil
}

// Handler validates the query string of a route carrying a {view} URL
// parameter.
func (s *SelectionValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := services.ViewName(chi.URLParam(r, "view"))
		if err := s.ValidateSelection(view, services.ParamsFromValues(r.URL.Query())); err != nil {
			s.validation.logger.WarnContext(r.Context(), "selection rejected",
				slog.String("view", string(view)),
				slog.String("query", r.URL.RawQuery),
			)
			s.validation.errorHandler.HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
