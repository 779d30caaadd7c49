package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"carsales/internal/infrastructure"
)

const (
	TracerName = "carsales.dashboard"
)

// DashboardTracer provides OpenTelemetry instrumentation for view rendering,
// regression fits and exports. A nil metrics set disables the metrics but
// keeps the spans.
type DashboardTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewDashboardTracer creates a tracer recording into metrics.
func NewDashboardTracer(metrics *infrastructure.BusinessMetrics) *DashboardTracer {
	return &DashboardTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// TraceView creates a span for one view computation.
func (dt *DashboardTracer) TraceView(ctx context.Context, view ViewName, p Params) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "dashboard.view."+string(view),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("view.name", string(view)),
			attribute.String("view.column", p.Column),
			attribute.String("view.direction", p.Direction),
			attribute.String("view.make", p.Make),
			attribute.String("view.model", p.Model),
			attribute.String("view.metric", p.Metric),
			attribute.String("view.variable", p.Variable),
		),
	)
}

// FinishView ends a view span and records its metrics.
func (dt *DashboardTracer) FinishView(ctx context.Context, span trace.Span, view ViewName, start time.Time, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	infrastructure.RecordViewMetrics(ctx, dt.metrics, string(view), time.Since(start), err)
}

// TraceFit creates a span for a live regression fit.
func (dt *DashboardTracer) TraceFit(ctx context.Context, testRatio float64, seed uint64) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "regression.fit",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Float64("regression.test_ratio", testRatio),
			attribute.Int64("regression.seed", int64(seed)),
		),
	)
}

// FinishFit ends a fit span and records its metrics.
func (dt *DashboardTracer) FinishFit(ctx context.Context, span trace.Span, start time.Time, err error) {
	defer span.End()
	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if dt.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	dt.metrics.RegressionFits.Add(ctx, 1, attrs)
	dt.metrics.RegressionFitMS.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

// RecordExport records a produced export file.
func (dt *DashboardTracer) RecordExport(ctx context.Context, format string) {
	infrastructure.AddSpanEvent(ctx, "export.written", attribute.String("format", format))
	infrastructure.RecordExport(ctx, dt.metrics, format)
}
