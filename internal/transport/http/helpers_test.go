package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carsales/internal/config"
	"carsales/internal/dataset"
	"carsales/internal/dataset/datasettest"
	apierrors "carsales/internal/errors"
	"carsales/internal/middleware"
	"carsales/internal/regression"
	"carsales/internal/services"
	"carsales/internal/shared/testutil"
)

// MockDashboardService is a mock implementation of every service interface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Controls(ctx context.Context) *services.Controls {
	args := m.Called()
	return args.Get(0).(*services.Controls)
}

func (m *MockDashboardService) Models(ctx context.Context, makeName string) ([]string, error) {
	args := m.Called(makeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context) dataset.Summary {
	args := m.Called()
	return args.Get(0).(dataset.Summary)
}

func (m *MockDashboardService) Render(ctx context.Context, view services.ViewName, p services.Params) (*services.View, error) {
	args := m.Called(view, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.View), args.Error(1)
}

func (m *MockDashboardService) RegressionReport(ctx context.Context) *regression.Report {
	args := m.Called()
	return args.Get(0).(*regression.Report)
}

func (m *MockDashboardService) DefaultFitOptions() regression.FitOptions {
	args := m.Called()
	return args.Get(0).(regression.FitOptions)
}

func (m *MockDashboardService) FitRegression(ctx context.Context, opts *regression.FitOptions) (*regression.Report, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*regression.Report), args.Error(1)
}

func (m *MockDashboardService) ExportCSV(ctx context.Context, w io.Writer, view services.ViewName, p services.Params) error {
	args := m.Called(view, p)
	return args.Error(0)
}

func (m *MockDashboardService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	args := m.Called()
	return args.Error(0)
}

// deps bundles the collaborators every handler test needs
type deps struct {
	logger       *slog.Logger
	logs         *testutil.BufferedSlogHandler
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
}

func newDeps(t *testing.T) deps {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return deps{
		logger:       logger,
		logs:         logs,
		errorHandler: errorHandler,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// realService builds a dashboard service over the sample table together
// with a selection validator bound to the same table.
func realService(t *testing.T, d deps) (*services.DashboardService, *middleware.SelectionValidator) {
	t.Helper()
	table := datasettest.Table(t)
	svc := services.NewDashboardService(table, config.RegressionConfig{EnableLive: true, TestRatio: 0.2, Seed: 42}, nil, d.logger)
	return svc, middleware.NewSelectionValidator(d.validation, table)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
