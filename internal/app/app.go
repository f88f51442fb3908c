package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"finsight/internal/analysis"
	"finsight/internal/cache"
	"finsight/internal/config"
	apierrors "finsight/internal/errors"
	"finsight/internal/infrastructure"
	"finsight/internal/middleware"
	"finsight/internal/pipeline"
	"finsight/internal/prediction"
	"finsight/internal/services"
	"finsight/internal/store"
	transport "finsight/internal/transport/http"
	"finsight/internal/validation"
)

// Version is the reported build version. Overridable at link time with
// -ldflags "-X finsight/internal/app.Version=...".
var Version = "2.0.0"

// Application is the composition root. It owns every long-lived
// component and tears them down in reverse construction order.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Router chi.Router
	Server *http.Server

	otel  *infrastructure.OTelProviders
	store *store.Store
	cache cache.Cache

	systemMetrics *infrastructure.SystemMetrics
	metricsCancel context.CancelFunc
}

// New builds a fully wired application from configuration.
func New(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
		otel:   otelProviders,
	}

	if err := app.initialize(ctx); err != nil {
		// Release whatever was constructed before the failure
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Stop(shutdownCtx)
		return nil, err
	}

	return app, nil
}

// initialize wires storage, cache, services and the HTTP server.
func (a *Application) initialize(ctx context.Context) error {
	cfg := a.Config

	st, err := store.Open(ctx, cfg.Database.URL, store.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.store = st

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	a.cache = a.buildCache(ctx)

	if a.otel.Meter != nil {
		metrics, err := infrastructure.NewSystemMetrics(a.otel.Meter)
		if err != nil {
			a.Logger.Warn("system metrics unavailable", slog.String("error", err.Error()))
		} else {
			a.systemMetrics = metrics
			metricsCtx, cancel := context.WithCancel(context.Background())
			a.metricsCancel = cancel
			metrics.Start(metricsCtx, 15*time.Second)
		}
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	validator := middleware.NewValidationMiddleware(a.Logger, errorHandler)

	stage := pipeline.NewStage(st.Files(), a.cache, cfg.Cache.ResultTTL, a.Logger)

	uploadValidator := validation.NewUploadValidator(a.Logger, cfg.Upload.AllowedExtensions, cfg.Upload.MaxFileSize)
	uploadSvc := services.NewUploadService(st.Files(), uploadValidator, stage, cfg.Upload.Dir, a.Logger)

	var narrator prediction.Narrator
	if cfg.AI.APIKey != "" {
		narrator = prediction.NewOpenAINarrator(cfg.AI.APIKey, cfg.AI.Model)
		a.Logger.Info("AI narratives enabled", slog.String("model", cfg.AI.Model))
	}

	analysisSvc := services.NewAnalysisService(stage, analysis.NewEngine(a.Logger), st.Results(), uploadValidator, a.Logger)
	predictionSvc := services.NewPredictionService(stage, prediction.NewEngine(a.Logger, narrator), st.Results(), uploadValidator, a.Logger)
	healthSvc := services.NewHealthService(Version, st, a.cache, cfg.Upload.Dir, cfg.AI.APIKey != "", a.systemMetrics, a.Logger)

	tokenAuth := middleware.NewTokenAuthenticator(cfg.Security.SecretKey, cfg.Security.TokenExpiry, a.Logger)
	if !tokenAuth.Enabled() {
		a.Logger.Warn("SECRET_KEY is not set, API authentication is disabled")
	}

	otelMiddleware, err := middleware.NewOTelMiddleware(a.otel)
	if err != nil {
		return fmt.Errorf("create otel middleware: %w", err)
	}

	a.Router = transport.NewRouter(transport.RouterConfig{
		Upload:     transport.NewUploadHandler(uploadSvc, a.Logger, errorHandler),
		Analysis:   transport.NewAnalysisHandler(analysisSvc, validator, a.Logger, errorHandler),
		Prediction: transport.NewPredictionHandler(predictionSvc, validator, a.Logger, errorHandler),
		Auth:       transport.NewAuthHandler(tokenAuth, validator, a.Logger, errorHandler),
		Health:     transport.NewHealthHandler(healthSvc, a.Logger),

		TokenAuth: tokenAuth,
		OTel:      otelMiddleware,
		Metrics:   a.otel.PrometheusHTTP,

		Logger:       a.Logger,
		ErrorHandler: errorHandler,

		EnableCORS:     cfg.Security.EnableCORS,
		AllowedOrigins: cfg.Security.AllowedOrigins,

		RateLimitEnabled: cfg.Security.RateLimit.Enabled,
		RateLimitRPS:     cfg.Security.RateLimit.RPS,
		RateLimitBurst:   cfg.Security.RateLimit.Burst,

		RequestTimeout: cfg.Server.RequestTimeout,
	})

	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return nil
}

// buildCache connects to Redis when a URL is configured and falls back
// to the in-process cache otherwise. Redis being down degrades, it
// never blocks startup.
func (a *Application) buildCache(ctx context.Context) cache.Cache {
	if url := a.Config.Cache.RedisURL; url != "" {
		redisCache, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			a.Logger.Info("result cache backed by redis")
			return redisCache
		}
		a.Logger.Warn("redis unavailable, using in-memory cache",
			slog.String("error", err.Error()))
	}
	return cache.NewMemoryCache(a.Config.Cache.MaxSize)
}

// Start begins serving HTTP traffic. It returns once the listener stops.
func (a *Application) Start() error {
	a.Logger.Info("HTTP server listening", slog.String("addr", a.Server.Addr))
	if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts down in reverse construction order. Every step runs even
// when an earlier one fails; the first error wins.
func (a *Application) Stop(ctx context.Context) error {
	var firstErr error

	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.metricsCancel != nil {
		a.metricsCancel()
	}
	if a.systemMetrics != nil {
		a.systemMetrics.Stop()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	infrastructure.CloseLogFile()

	return firstErr
}

// Run starts the server and blocks until an interrupt or termination
// signal arrives, then shuts down gracefully.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	a.Logger.Info("shutdown complete")
	return nil
}
