package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/config"
	"carsales/internal/shared/testutil"
)

func TestInitializeOTel_PrometheusMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordViewMetrics(ctx, metrics, "categories", 15*time.Millisecond, nil)
	RecordDatasetLoad(ctx, metrics, 10, map[string]int{"missing_price": 2}, time.Second)
	RecordExport(ctx, metrics, "xlsx")

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "dashboard_view_renders_total")
	assert.Contains(t, body, "dataset_rows_dropped_total")
	assert.Contains(t, body, `reason="missing_price"`)
	assert.Contains(t, body, "exports_total")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Tracer)

	// no-op meters still hand out usable instruments
	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordViewMetrics(context.Background(), metrics, "trend", time.Millisecond, errors.New("boom"))
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := InitializeOTel(&OTelConfig{TraceExporter: "zipkin", MetricExporter: "none"}, logger)
	assert.Error(t, err)

	_, err = InitializeOTel(&OTelConfig{TraceExporter: "none", MetricExporter: "statsd"}, logger)
	assert.Error(t, err)
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry)
	assert.Equal(t, "carsales-dashboard", cfg.ServiceName)
	assert.Equal(t, ServiceVersion, cfg.ServiceVersion)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordViewMetrics(ctx, nil, "states", time.Millisecond, nil)
		RecordDatasetLoad(ctx, nil, 1, nil, time.Millisecond)
		RecordExport(ctx, nil, "csv")
		AddSpanEvent(ctx, "noop")
		RecordError(ctx, errors.New("ignored"))
	})
}
