package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carsales/internal/analysis"
	apierrors "carsales/internal/errors"
	"carsales/internal/services"
)

func TestDashboardHandler_GetControls(t *testing.T) {
	d := newDeps(t)
	svc := new(MockDashboardService)
	svc.On("Controls").Return(&services.Controls{Makes: []string{"ford", "kia"}, LiveRegression: true})

	h := NewDashboardHandler(svc, nil, d.logger, d.errorHandler)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/controls", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"ford", "kia"}, data["makes"])
	assert.Equal(t, true, data["live_regression"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetModels(t *testing.T) {
	tests := []struct {
		name       string
		makeName   string
		setupMock  func(*MockDashboardService)
		wantStatus int
		wantCode   string
	}{
		{
			name:     "known make",
			makeName: "ford",
			setupMock: func(m *MockDashboardService) {
				m.On("Models", "ford").Return([]string{"all", "f150", "fusion"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "unknown make",
			makeName: "tesla",
			setupMock: func(m *MockDashboardService) {
				m.On("Models", "tesla").Return(nil, fmt.Errorf("%w: %q", analysis.ErrUnknownMake, "tesla"))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "MAKE_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps(t)
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			h := NewDashboardHandler(svc, nil, d.logger, d.errorHandler)
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/makes/"+tt.makeName+"/models", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeJSON(t, w)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
				assert.Equal(t, apierrors.TypeNotFound, body["type"])
			} else {
				assert.Equal(t, float64(3), body["count"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetView_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"invalid selection", fmt.Errorf("%w: column %q", analysis.ErrInvalidSelection, "vin"), http.StatusBadRequest, apierrors.TypeValidation},
		{"unknown model", analysis.ErrUnknownModel, http.StatusBadRequest, apierrors.TypeValidation},
		{"unknown view", services.ErrUnknownView, http.StatusNotFound, apierrors.TypeNotFound},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, apierrors.TypeTimeout},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, apierrors.TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps(t)
			svc := new(MockDashboardService)
			svc.On("Render", services.ViewName("trend"), mock.Anything).Return(nil, tt.err)

			h := NewDashboardHandler(svc, nil, d.logger, d.errorHandler)
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trend", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantType, decodeJSON(t, w)["type"])
		})
	}
}

func TestDashboardHandler_GetView_PassesQuery(t *testing.T) {
	d := newDeps(t)
	svc := new(MockDashboardService)
	want := services.Params{Make: "Ford", Metric: "avg_price"}
	svc.On("Render", services.ViewModels, want).Return(&services.View{View: services.ViewModels, Title: "t"}, nil)

	h := NewDashboardHandler(svc, nil, d.logger, d.errorHandler)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models?make=%20Ford%20&metric=avg_price", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_WithRealService(t *testing.T) {
	d := newDeps(t)
	svc, selection := realService(t, d)
	router := NewDashboardHandler(svc, selection.Handler, d.logger, d.errorHandler).Routes()

	get := func(url string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		return w
	}

	t.Run("state ranking", func(t *testing.T) {
		w := get("/categories?column=state&direction=top")
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeJSON(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "categories", data["view"])
		rows := data["data"].(map[string]interface{})["rows"].([]interface{})
		first := rows[0].(map[string]interface{})
		assert.Equal(t, "CA", first["label"])
		assert.Equal(t, float64(3), first["count"])
		assert.NotNil(t, data["figure"])
	})

	t.Run("ford models by average price", func(t *testing.T) {
		w := get("/models?make=ford&metric=avg_price")
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeJSON(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "ford", data["params"].(map[string]interface{})["make"])
	})

	t.Run("invalid direction rejected at the boundary", func(t *testing.T) {
		w := get("/categories?direction=sideways")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
		errs := body["details"].(map[string]interface{})["errors"].([]interface{})
		assert.Equal(t, "direction", errs[0].(map[string]interface{})["field"])
	})

	t.Run("unknown make on the map", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get("/states?make=zzz").Code)
	})

	t.Run("unknown view", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/histogram").Code)
	})

	t.Run("summary", func(t *testing.T) {
		w := get("/summary")
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeJSON(t, w)["data"].(map[string]interface{})
		assert.Equal(t, float64(8), data["rows"])
	})

	t.Run("map models of a make", func(t *testing.T) {
		w := get("/makes/Ford/models")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []interface{}{"all", "f150", "fusion"}, decodeJSON(t, w)["data"])
	})
}
