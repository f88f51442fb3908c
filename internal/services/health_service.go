package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/cache"
	"finsight/internal/infrastructure"
)

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyHealth is one dependency's health check outcome.
type DependencyHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthStatus is the composite health report. A failing dependency
// degrades the aggregate status; it never makes the endpoint fail.
type HealthStatus struct {
	Status        string                          `json:"status"`
	Timestamp     time.Time                       `json:"timestamp"`
	Version       string                          `json:"version"`
	UptimeSeconds float64                         `json:"uptime_seconds"`
	Dependencies  map[string]DependencyHealth     `json:"dependencies"`
	Cache         cache.Stats                     `json:"cache"`
	Resources     *infrastructure.ResourceSnapshot `json:"resources,omitempty"`
}

// HealthService aggregates per-dependency checks into one status.
type HealthService struct {
	version   string
	db        Pinger
	cache     cache.Cache
	uploadDir string
	aiEnabled bool
	metrics   *infrastructure.SystemMetrics
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. metrics may be nil.
func NewHealthService(version string, db Pinger, c cache.Cache, uploadDir string, aiEnabled bool, metrics *infrastructure.SystemMetrics, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		db:        db,
		cache:     c,
		uploadDir: uploadDir,
		aiEnabled: aiEnabled,
		metrics:   metrics,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Check runs all dependency checks and aggregates them.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	deps := map[string]DependencyHealth{
		"database":   s.checkDatabase(ctx),
		"cache":      s.checkCache(ctx),
		"upload_dir": s.checkUploadDir(),
		"ai":         s.checkAI(),
	}

	status := "healthy"
	for _, d := range deps {
		if d.Status == "degraded" {
			status = "degraded"
			break
		}
	}

	health := &HealthStatus{
		Status:        status,
		Timestamp:     time.Now().UTC(),
		Version:       s.version,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		Dependencies:  deps,
		Cache:         s.cache.Stats(),
	}
	if s.metrics != nil {
		snapshot := s.metrics.Snapshot()
		health.Resources = &snapshot
	}

	if status != "healthy" {
		s.logger.Warn("Health check degraded", slog.Any("dependencies", deps))
	}
	return health
}

// Version returns the build version string.
func (s *HealthService) Version() string {
	return s.version
}

// Ready reports whether the service can handle requests: the database
// must be reachable; everything else only degrades.
func (s *HealthService) Ready(ctx context.Context) bool {
	return s.db.Ping(ctx) == nil
}

func (s *HealthService) checkDatabase(ctx context.Context) DependencyHealth {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(pingCtx); err != nil {
		return DependencyHealth{Status: "degraded", Message: err.Error()}
	}
	return DependencyHealth{Status: "up"}
}

func (s *HealthService) checkCache(ctx context.Context) DependencyHealth {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.cache.Ping(pingCtx); err != nil {
		return DependencyHealth{Status: "degraded", Message: err.Error()}
	}
	return DependencyHealth{Status: "up"}
}

func (s *HealthService) checkUploadDir() DependencyHealth {
	probe := filepath.Join(s.uploadDir, ".health_probe")
	f, err := os.Create(probe)
	if err != nil {
		return DependencyHealth{Status: "degraded", Message: "upload directory is not writable"}
	}
	f.Close()
	os.Remove(probe)
	return DependencyHealth{Status: "up"}
}

// checkAI never degrades the aggregate: running without a narrative
// provider is a supported configuration.
func (s *HealthService) checkAI() DependencyHealth {
	if !s.aiEnabled {
		return DependencyHealth{Status: "disabled", Message: "no API key configured"}
	}
	return DependencyHealth{Status: "up"}
}
