package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics provides process resource monitoring through OTel gauges
// and point-in-time snapshots for the health report.
type SystemMetrics struct {
	meter metric.Meter

	goRoutines      metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	gcCount         metric.Int64Counter
	cpuCount        metric.Int64Gauge
	processUptime   metric.Float64Gauge

	startTime   time.Time
	lastGCCount uint32
	stopChan    chan struct{}
}

// ResourceSnapshot is a point-in-time view of process resource usage.
type ResourceSnapshot struct {
	Goroutines      int     `json:"goroutines"`
	MemoryAllocated uint64  `json:"memory_allocated_bytes"`
	MemorySystem    uint64  `json:"memory_system_bytes"`
	GCCount         uint32  `json:"gc_count"`
	CPUCount        int     `json:"cpu_count"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	GoVersion       string  `json:"go_version"`
	OS              string  `json:"os"`
	Arch            string  `json:"arch"`
}

// NewSystemMetrics creates a new system metrics collector
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	memoryAllocated, err := meter.Int64Gauge(
		"system_memory_allocated_bytes",
		metric.WithDescription("Memory allocated by Go runtime in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Counter(
		"system_gc_count_total",
		metric.WithDescription("Total number of garbage collections"),
	)
	if err != nil {
		return nil, err
	}

	cpuCount, err := meter.Int64Gauge(
		"system_cpu_count",
		metric.WithDescription("Number of logical CPUs"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		meter:           meter,
		goRoutines:      goRoutines,
		memoryAllocated: memoryAllocated,
		memorySystem:    memorySystem,
		gcCount:         gcCount,
		cpuCount:        cpuCount,
		processUptime:   processUptime,
		startTime:       time.Now(),
		stopChan:        make(chan struct{}),
	}, nil
}

// Start begins periodic collection until Stop is called.
func (sm *SystemMetrics) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.record(ctx)
			case <-sm.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates periodic collection.
func (sm *SystemMetrics) Stop() {
	close(sm.stopChan)
}

// record samples the runtime and updates the gauges
func (sm *SystemMetrics) record(ctx context.Context) {
	snap := sm.Snapshot()

	sm.goRoutines.Record(ctx, int64(snap.Goroutines))
	sm.memoryAllocated.Record(ctx, int64(snap.MemoryAllocated))
	sm.memorySystem.Record(ctx, int64(snap.MemorySystem))
	sm.cpuCount.Record(ctx, int64(snap.CPUCount))
	sm.processUptime.Record(ctx, snap.UptimeSeconds)

	if delta := snap.GCCount - sm.lastGCCount; delta > 0 {
		sm.gcCount.Add(ctx, int64(delta))
	}
	sm.lastGCCount = snap.GCCount
}

// Snapshot returns the current resource usage.
func (sm *SystemMetrics) Snapshot() ResourceSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return ResourceSnapshot{
		Goroutines:      runtime.NumGoroutine(),
		MemoryAllocated: memStats.Alloc,
		MemorySystem:    memStats.Sys,
		GCCount:         memStats.NumGC,
		CPUCount:        runtime.NumCPU(),
		UptimeSeconds:   time.Since(sm.startTime).Seconds(),
		GoVersion:       runtime.Version(),
		OS:              runtime.GOOS,
		Arch:            runtime.GOARCH,
	}
}
