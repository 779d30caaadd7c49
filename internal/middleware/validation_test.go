package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/analysis"
	"carsales/internal/dataset/datasettest"
	apierrors "carsales/internal/errors"
	"carsales/internal/services"
)

func newSelectionValidator(t *testing.T) (*SelectionValidator, *apierrors.ErrorHandler) {
	t.Helper()
	logger, _, errorHandler := newErrorHandler(t)
	v := NewValidationMiddleware(logger, errorHandler)
	return NewSelectionValidator(v, datasettest.Table(t)), errorHandler
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	require.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	require.True(t, ok)
	fields := make([]string, 0, len(details.Errors))
	for _, e := range details.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestSelectionValidator_ValidateSelection(t *testing.T) {
	sv, _ := newSelectionValidator(t)

	valid := []struct {
		name string
		view services.ViewName
		p    services.Params
	}{
		{"category defaults", services.ViewCategories, services.Params{}},
		{"category body bottom", services.ViewCategories, services.Params{Column: "body", Direction: "bottom"}},
		{"models ford ratio", services.ViewModels, services.Params{Make: "Ford", Metric: "price_mmr_ratio"}},
		{"states all", services.ViewStates, services.Params{Make: "all", Model: "all"}},
		{"states make model", services.ViewStates, services.Params{Make: "ford", Model: "F150"}},
		{"states model ignored under all", services.ViewStates, services.Params{Make: "all", Model: "nothing"}},
		{"scatter condition", services.ViewScatter, services.Params{Variable: "condition"}},
		{"trend count", services.ViewTrend, services.Params{Metric: "count"}},
	}
	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, sv.ValidateSelection(tt.view, tt.p))
		})
	}

	invalid := []struct {
		name   string
		view   services.ViewName
		p      services.Params
		fields []string
	}{
		{"bad column", services.ViewCategories, services.Params{Column: "price"}, []string{"column"}},
		{"bad column and direction", services.ViewCategories, services.Params{Column: "vin", Direction: "middle"}, []string{"column", "direction"}},
		{"bad model metric", services.ViewModels, services.Params{Metric: "median"}, []string{"metric"}},
		{"unknown make", services.ViewModels, services.Params{Make: "tesla"}, []string{"make"}},
		{"overlong make", services.ViewStates, services.Params{Make: strings.Repeat("a", 65)}, []string{"make"}},
		{"unknown map make", services.ViewStates, services.Params{Make: "tesla"}, []string{"make"}},
		{"model of other make", services.ViewStates, services.Params{Make: "ford", Model: "sorento"}, []string{"model"}},
		{"bad variable", services.ViewScatter, services.Params{Variable: "mmr"}, []string{"variable"}},
		{"bad trend metric", services.ViewTrend, services.Params{Metric: "avg_mmr"}, []string{"metric"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			err := sv.ValidateSelection(tt.view, tt.p)
			require.Error(t, err)
			assert.ElementsMatch(t, tt.fields, fieldsOf(t, err))
		})
	}

	t.Run("unknown view", func(t *testing.T) {
		err := sv.ValidateSelection("heatmap", services.Params{})
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}

// The oneof tags must offer exactly the options the analysis layer accepts.
func TestSelectionValidator_OptionsMatchAnalysis(t *testing.T) {
	oneof := func(v interface{}, field string) []string {
		f, ok := reflect.TypeOf(v).FieldByName(field)
		require.True(t, ok, field)
		for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
			if rest, found := strings.CutPrefix(rule, "oneof="); found {
				return strings.Fields(rest)
			}
		}
		t.Fatalf("%s has no oneof rule", field)
		return nil
	}
	columns := make([]string, len(analysis.CategoryColumns))
	for i, c := range analysis.CategoryColumns {
		columns[i] = string(c)
	}

	assert.Equal(t, columns, oneof(categoriesQuery{}, "Column"))
	assert.Equal(t, []string{string(analysis.Top), string(analysis.Bottom)}, oneof(categoriesQuery{}, "Direction"))

	metrics := make([]string, len(analysis.ModelMetrics))
	for i, m := range analysis.ModelMetrics {
		metrics[i] = string(m)
	}
	assert.Equal(t, metrics, oneof(modelsQuery{}, "Metric"))

	variables := make([]string, len(analysis.ScatterVariables))
	for i, v := range analysis.ScatterVariables {
		variables[i] = string(v)
	}
	assert.Equal(t, variables, oneof(scatterQuery{}, "Variable"))

	trend := make([]string, len(analysis.TrendMetrics))
	for i, m := range analysis.TrendMetrics {
		trend[i] = string(m)
	}
	assert.Equal(t, trend, oneof(trendQuery{}, "Metric"))
}

func TestSelectionValidator_Handler(t *testing.T) {
	sv, _ := newSelectionValidator(t)

	r := chi.NewRouter()
	r.With(sv.Handler).Get("/views/{view}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		url  string
		want int
	}{
		{"/views/categories?column=state&direction=top", http.StatusOK},
		{"/views/categories?direction=sideways", http.StatusBadRequest},
		{"/views/models?make=zzz", http.StatusBadRequest},
		{"/views/states?make=kia&model=sorento", http.StatusOK},
		{"/views/pie", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestValidationMiddleware_ValidateRequest(t *testing.T) {
	logger, _, errorHandler := newErrorHandler(t)
	m := NewValidationMiddleware(logger, errorHandler)

	var body string
	h := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = buf.ReadFrom(r.Body)
		body = buf.String()
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid json reaches handler intact", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/fit", strings.NewReader(`{"test_ratio":0.2}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"test_ratio":0.2}`, body)
	})

	t.Run("invalid json", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/fit", strings.NewReader(`{"test_ratio":`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_JSON", decodeBody(t, w)["error_code"])
	})

	t.Run("oversized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/fit", strings.NewReader("{}"))
		req.ContentLength = 2 << 20
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestContentTypeValidator(t *testing.T) {
	_, _, errorHandler := newErrorHandler(t)
	h := ContentTypeValidator(errorHandler, "application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/fit", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/fit", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidateStruct_FitRequest(t *testing.T) {
	logger, _, errorHandler := newErrorHandler(t)
	m := NewValidationMiddleware(logger, errorHandler)

	type fitRequest struct {
		TestRatio *float64 `json:"test_ratio" validate:"omitempty,gte=0,lte=0.9"`
	}
	ok, bad := 0.25, 0.95

	assert.NoError(t, m.ValidateStruct(fitRequest{}))
	assert.NoError(t, m.ValidateStruct(fitRequest{TestRatio: &ok}))

	err := m.ValidateStruct(fitRequest{TestRatio: &bad})
	require.Error(t, err)
	assert.Equal(t, []string{"test_ratio"}, fieldsOf(t, err))
}
