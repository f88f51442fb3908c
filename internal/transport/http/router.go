package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	apierrors "finsight/internal/errors"
	"finsight/internal/middleware"
)

// RouterConfig carries everything the router needs. Optional fields may
// be nil; the corresponding routes or middlewares are then skipped.
type RouterConfig struct {
	Upload     *UploadHandler
	Analysis   *AnalysisHandler
	Prediction *PredictionHandler
	Auth       *AuthHandler
	Health     *HealthHandler

	TokenAuth *middleware.TokenAuthenticator
	OTel      *middleware.OTelMiddleware
	Metrics   http.Handler

	Logger       *slog.Logger
	ErrorHandler *apierrors.ErrorHandler

	EnableCORS     bool
	AllowedOrigins []string

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	RequestTimeout time.Duration
}

// NewRouter assembles the chi router with the full middleware chain.
// Order matters: request IDs come first so every later middleware logs
// with a trace_id, and authentication wraps only the API group so health
// and metrics stay scrapeable.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.OTel != nil {
		r.Use(cfg.OTel.Handler)
	}
	r.Use(middleware.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.SecurityHeaders)

	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger)
		r.Use(limiter.Handler)
	}

	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout, cfg.Logger))
	}

	// Operational endpoints stay outside the authenticated group
	if cfg.Health != nil {
		r.Route("/health", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/", cfg.Health.Check)
			r.Get("/ready", cfg.Health.Ready)
			r.Get("/live", cfg.Health.Live)
		})
		r.Get("/version", cfg.Health.Version)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		if cfg.Auth != nil {
			r.Post("/auth/token", cfg.Auth.Token)
		}

		r.Group(func(r chi.Router) {
			if cfg.TokenAuth != nil {
				r.Use(cfg.TokenAuth.Handler)
			}

			r.Post("/upload", cfg.Upload.Upload)

			r.Route("/files", func(r chi.Router) {
				r.Get("/", cfg.Upload.List)
				r.Route("/{file_id}", func(r chi.Router) {
					r.Get("/", cfg.Upload.Get)
					r.Delete("/", cfg.Upload.Delete)
				})
			})

			r.With(middleware.ContentTypeValidator("application/json")).
				Post("/analyze", cfg.Analysis.Analyze)
			r.Route("/analysis/{file_id}", func(r chi.Router) {
				r.Get("/", cfg.Analysis.GetDefault)
				r.Post("/", cfg.Analysis.Refresh)
				r.Get("/summary", cfg.Analysis.Summary)
			})

			r.With(middleware.ContentTypeValidator("application/json")).
				Post("/predict", cfg.Prediction.Predict)
			r.Route("/predict/{file_id}", func(r chi.Router) {
				r.Post("/", cfg.Prediction.RunDefault)
				r.Post("/force", cfg.Prediction.Force)
				r.Get("/summary", cfg.Prediction.Summary)
			})
		})
	})

	r.NotFound(cfg.ErrorHandler.NotFound)
	r.MethodNotAllowed(cfg.ErrorHandler.MethodNotAllowed)

	return r
}
