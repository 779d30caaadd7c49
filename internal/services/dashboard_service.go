package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carsales/internal/analysis"
	"carsales/internal/charts"
	"carsales/internal/config"
	"carsales/internal/dataset"
	"carsales/internal/infrastructure"
	"carsales/internal/regression"
)

// DashboardService answers every dashboard request from one loaded table.
// The table is read-only, so a single service is shared by all requests and
// websocket sessions.
type DashboardService struct {
	table  *dataset.Table
	regCfg config.RegressionConfig
	tracer *DashboardTracer
	logger *slog.Logger
}

// NewDashboardService creates a dashboard service over table. metrics may be
// nil when telemetry is off.
func NewDashboardService(table *dataset.Table, regCfg config.RegressionConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dashboard_service"))

	logger.Info("DashboardService initialized",
		slog.Int("rows", table.Len()),
		slog.Int("makes", len(table.Makes())),
		slog.Bool("live_regression", regCfg.EnableLive))

	return &DashboardService{
		table:  table,
		regCfg: regCfg,
		tracer: NewDashboardTracer(metrics),
		logger: logger,
	}
}

// Table returns the canonical table.
func (ds *DashboardService) Table() *dataset.Table { return ds.table }

// Section is one top-level section of the page.
type Section struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Sections of the page in display order.
var Sections = []Section{
	{ID: "descriptive", Label: "Descriptive Analysis"},
	{ID: "regression", Label: "Linear Regression"},
}

// Controls lists the options of every selector on the page.
type Controls struct {
	Sections         []Section           `json:"sections"`
	Views            []ViewName          `json:"views"`
	CategoryColumns  []string            `json:"category_columns"`
	Directions       []string            `json:"directions"`
	Makes            []string            `json:"makes"`
	ModelMetrics     []string            `json:"model_metrics"`
	MapMakes         []string            `json:"map_makes"`
	ScatterVariables []string            `json:"scatter_variables"`
	TrendMetrics     []string            `json:"trend_metrics"`
	Defaults         map[ViewName]Params `json:"defaults"`
	LiveRegression   bool                `json:"live_regression"`
}

// Controls returns the selector options. Makes come from the table only.
func (ds *DashboardService) Controls(ctx context.Context) *Controls {
	makes := ds.table.Makes()

	c := &Controls{
		Sections:         Sections,
		Views:            Views,
		CategoryColumns:  stringsOf(analysis.CategoryColumns),
		Directions:       stringsOf(analysis.Directions),
		Makes:            makes,
		ModelMetrics:     stringsOf(analysis.ModelMetrics),
		MapMakes:         append([]string{analysis.All}, makes...),
		ScatterVariables: stringsOf(analysis.ScatterVariables),
		TrendMetrics:     stringsOf(analysis.TrendMetrics),
		Defaults:         make(map[ViewName]Params, len(Views)),
		LiveRegression:   ds.regCfg.EnableLive,
	}
	for _, v := range Views {
		c.Defaults[v] = defaultParams(v, ds.table)
	}

	ds.logger.DebugContext(ctx, "Controls built", slog.Int("makes", len(makes)))
	return c
}

// Models returns the map model options of makeName: All followed by its
// models in order.
func (ds *DashboardService) Models(ctx context.Context, makeName string) ([]string, error) {
	p := Params{Make: makeName}.normalise()
	if !ds.table.HasMake(p.Make) {
		return nil, fmt.Errorf("%w: %q", analysis.ErrUnknownMake, makeName)
	}
	return append([]string{analysis.All}, ds.table.ModelsOf(p.Make)...), nil
}

// Summary describes the loaded table.
func (ds *DashboardService) Summary(ctx context.Context) dataset.Summary {
	return ds.table.Summary()
}

// Render computes view with p, filling unset parameters with the view's
// defaults.
func (ds *DashboardService) Render(ctx context.Context, view ViewName, p Params) (v *View, err error) {
	p = p.normalise().withDefaults(view, ds.table)

	start := time.Now()
	ctx, span := ds.tracer.TraceView(ctx, view, p)
	defer func() { ds.tracer.FinishView(ctx, span, view, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch view {
	case ViewCategories:
		var r *analysis.CategoryRanking
		if r, err = analysis.RankCategories(ds.table, dataset.Column(p.Column), analysis.Direction(p.Direction)); err == nil {
			v = &View{Title: r.Title, Data: r, Figure: charts.Categories(r)}
		}
	case ViewModels:
		var r *analysis.ModelRanking
		if r, err = analysis.RankModels(ds.table, p.Make, analysis.ModelMetric(p.Metric)); err == nil {
			v = &View{Title: r.Title, Data: r, Figure: charts.Models(r)}
		}
	case ViewStates:
		var r *analysis.StateCounts
		if r, err = analysis.CountStates(ds.table, p.Make, p.Model); err == nil {
			p.Make, p.Model = r.Make, r.Model
			v = &View{Title: r.Title, Data: r, Figure: charts.States(r)}
		}
	case ViewScatter:
		var r *analysis.Scatter
		if r, err = analysis.PriceScatter(ds.table, analysis.ScatterVariable(p.Variable)); err == nil {
			v = &View{Title: r.Title, Data: r, Figure: charts.Scatter(r)}
		}
	case ViewTrend:
		var r *analysis.Trend
		if r, err = analysis.YearTrend(ds.table, analysis.TrendMetric(p.Metric)); err == nil {
			v = &View{Title: r.Title, Data: r, Figure: charts.Trend(r)}
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	if err != nil {
		ds.logger.WarnContext(ctx, "View rejected",
			slog.String("view", string(view)),
			slog.String("error", err.Error()))
		return nil, err
	}

	v.View, v.Params = view, p
	ds.logger.DebugContext(ctx, "View rendered",
		slog.String("view", string(view)),
		slog.Duration("duration", time.Since(start)))
	return v, nil
}

// RegressionReport returns the static regression section.
func (ds *DashboardService) RegressionReport(ctx context.Context) *regression.Report {
	return regression.StaticReport()
}

// DefaultFitOptions returns the configured split.
func (ds *DashboardService) DefaultFitOptions() regression.FitOptions {
	return regression.FitOptions{TestRatio: ds.regCfg.TestRatio, Seed: ds.regCfg.Seed}
}

// FitRegression refits both report models on the loaded table. A nil opts
// uses the configured split.
func (ds *DashboardService) FitRegression(ctx context.Context, opts *regression.FitOptions) (report *regression.Report, err error) {
	if !ds.regCfg.EnableLive {
		return nil, ErrLiveRegressionDisabled
	}

	o := ds.DefaultFitOptions()
	if opts != nil {
		o = *opts
	}

	start := time.Now()
	ctx, span := ds.tracer.TraceFit(ctx, o.TestRatio, o.Seed)
	defer func() { ds.tracer.FinishFit(ctx, span, start, err) }()

	report, err = regression.Fit(ctx, ds.table, o)
	if err != nil {
		ds.logger.WarnContext(ctx, "Regression fit failed",
			slog.Float64("test_ratio", o.TestRatio),
			slog.String("error", err.Error()))
		return nil, err
	}

	ds.logger.InfoContext(ctx, "Regression fitted",
		slog.Float64("test_ratio", o.TestRatio),
		slog.Uint64("seed", o.Seed),
		slog.Duration("duration", time.Since(start)))
	return report, nil
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
