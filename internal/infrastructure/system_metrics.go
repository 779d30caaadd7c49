package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is one sample of the process runtime.
type RuntimeStats struct {
	Goroutines  int64         `json:"goroutines"`
	HeapBytes   int64         `json:"heap_bytes"`
	SystemBytes int64         `json:"system_bytes"`
	GCCount     uint32        `json:"gc_count"`
	LastGCPause time.Duration `json:"last_gc_pause"`
	Uptime      time.Duration `json:"uptime"`
}

// RuntimeMetrics records runtime gauges. The loaded table lives on the heap
// for the life of the process, so heap size tracks dataset size.
type RuntimeMetrics struct {
	goroutines  metric.Int64Gauge
	heapBytes   metric.Int64Gauge
	systemBytes metric.Int64Gauge
	gcPause     metric.Float64Histogram
	uptime      metric.Float64Gauge
}

// NewRuntimeMetrics creates the runtime instruments on meter.
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	var (
		m   RuntimeMetrics
		err error
	)

	gauges := []struct {
		dst  *metric.Int64Gauge
		name string
		desc string
	}{
		{&m.goroutines, "process_goroutines", "Number of active goroutines"},
		{&m.heapBytes, "process_heap_bytes", "Bytes of allocated heap objects"},
		{&m.systemBytes, "process_system_bytes", "Bytes of memory obtained from the OS"},
	}
	for _, g := range gauges {
		if *g.dst, err = meter.Int64Gauge(g.name, metric.WithDescription(g.desc)); err != nil {
			return nil, err
		}
	}

	if m.gcPause, err = meter.Float64Histogram(
		"process_gc_pause_seconds",
		metric.WithDescription("Most recent GC pause observed at each sample"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.uptime, err = meter.Float64Gauge(
		"process_uptime_seconds",
		metric.WithDescription("Seconds since the process started"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// Collect samples the runtime and records the sample.
func (m *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		Goroutines:  int64(runtime.NumGoroutine()),
		HeapBytes:   int64(mem.HeapAlloc),
		SystemBytes: int64(mem.Sys),
		GCCount:     mem.NumGC,
		Uptime:      time.Since(startTime),
	}
	if mem.NumGC > 0 {
		stats.LastGCPause = time.Duration(mem.PauseNs[(mem.NumGC+255)%256])
	}

	m.goroutines.Record(ctx, stats.Goroutines)
	m.heapBytes.Record(ctx, stats.HeapBytes)
	m.systemBytes.Record(ctx, stats.SystemBytes)
	m.uptime.Record(ctx, stats.Uptime.Seconds())
	if stats.LastGCPause > 0 {
		m.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}

	return stats
}

// RuntimeCollector samples RuntimeMetrics on an interval.
type RuntimeCollector struct {
	metrics   *RuntimeMetrics
	startTime time.Time
	interval  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRuntimeCollector creates a collector sampling every interval.
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &RuntimeCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start samples until ctx is done or Stop is called. It blocks.
func (c *RuntimeCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.metrics.Collect(ctx, c.startTime)
	for {
		select {
		case <-ticker.C:
			c.metrics.Collect(ctx, c.startTime)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends collection. It is safe to call more than once.
func (c *RuntimeCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Current takes a sample now.
func (c *RuntimeCollector) Current(ctx context.Context) RuntimeStats {
	return c.metrics.Collect(ctx, c.startTime)
}
