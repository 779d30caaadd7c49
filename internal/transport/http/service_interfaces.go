package http

import (
	"context"
	"io"

	"carsales/internal/dataset"
	"carsales/internal/regression"
	"carsales/internal/services"
)

// DashboardServiceInterface defines the dashboard operations the handlers
// need. *services.DashboardService implements it.
type DashboardServiceInterface interface {
	Controls(ctx context.Context) *services.Controls
	Models(ctx context.Context, makeName string) ([]string, error)
	Summary(ctx context.Context) dataset.Summary
	Render(ctx context.Context, view services.ViewName, p services.Params) (*services.View, error)
}

// RegressionServiceInterface defines the regression operations
type RegressionServiceInterface interface {
	RegressionReport(ctx context.Context) *regression.Report
	DefaultFitOptions() regression.FitOptions
	FitRegression(ctx context.Context, opts *regression.FitOptions) (*regression.Report, error)
}

// ExportServiceInterface defines the download operations
type ExportServiceInterface interface {
	ExportCSV(ctx context.Context, w io.Writer, view services.ViewName, p services.Params) error
	ExportWorkbook(ctx context.Context, w io.Writer) error
}

// StructValidator validates request bodies by their struct tags
type StructValidator interface {
	ValidateStruct(v interface{}) error
}
