package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"carsales/internal/dataset"
	"carsales/internal/dataset/datasettest"
	"carsales/internal/shared/testutil"
)

func TestHealthService_Readiness(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	hub := new(MockClientCounter)
	hub.On("ClientCount").Return(2)

	hs := NewHealthService("1.0.0", "https://example.com/repo", "", datasettest.Table(t), hub, logger)
	status := hs.ReadinessCheck(context.Background())

	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "8 rows loaded", status.Services["dataset"].(ServiceHealth).Message)
	assert.Equal(t, "2 sessions connected", status.Services["websocket"].(ServiceHealth).Message)
	hub.AssertExpectations(t)
}

func TestHealthService_NotReady(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name  string
		table *dataset.Table
	}{
		{"no table", nil},
		{"empty table", dataset.New(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := new(MockClientCounter)
			hub.On("ClientCount").Return(0).Maybe()

			hs := NewHealthService("1.0.0", "", "", tt.table, hub, logger)
			assert.Equal(t, "not_ready", hs.ReadinessCheck(context.Background()).Status)
		})
	}
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("1.0.0", "https://example.com/repo", "2026-01-01", nil, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	v := hs.Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "2026-01-01", v["build_time"])
}
