package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gobudget/internal/adapter/http/handler"
	"github.com/iho/gobudget/internal/adapter/http/middleware"
	"github.com/iho/gobudget/internal/infrastructure/auth"
	"github.com/iho/gobudget/internal/infrastructure/metrics"
	"github.com/iho/gobudget/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PeriodHandler      *handler.PeriodHandler
	ValidationHandler  *handler.ValidationHandler
	CategoryHandler    *handler.CategoryHandler
	BudgetHandler      *handler.BudgetHandler
	TransactionHandler *handler.TransactionHandler
	ImportHandler      *handler.ImportHandler
	HealthHandler      *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// JWTManager switches user identity from the X-User-ID header to bearer tokens.
	JWTManager *auth.JWTManager
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.UserIdentity)
		}

		// Idempotency middleware for mutating requests, keyed per user
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Month closing
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", cfg.PeriodHandler.List)
			r.Get("/{period}", cfg.PeriodHandler.Get)
			r.Get("/{period}/history", cfg.PeriodHandler.History)
			r.Post("/{period}/close", cfg.PeriodHandler.Close)
			r.Post("/{period}/reopen", cfg.PeriodHandler.Reopen)
			r.Post("/{period}/close-again", cfg.PeriodHandler.CloseAgain)
		})

		r.Post("/validations", cfg.ValidationHandler.Validate)

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", cfg.CategoryHandler.Create)
			r.Get("/", cfg.CategoryHandler.List)
			r.Get("/{id}", cfg.CategoryHandler.Get)
			r.Patch("/{id}", cfg.CategoryHandler.Update)
			r.Get("/{id}/status", cfg.ValidationHandler.CategoryStatus)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/{period}", cfg.BudgetHandler.Get)
			r.Put("/{period}", cfg.BudgetHandler.Set)
			r.Delete("/{period}", cfg.BudgetHandler.Delete)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Put("/{id}", cfg.TransactionHandler.Update)
			r.Delete("/{id}", cfg.TransactionHandler.Delete)
		})

		// Batch import
		r.Route("/imports", func(r chi.Router) {
			r.Post("/", cfg.ImportHandler.Stage)
			r.Get("/{id}", cfg.ImportHandler.Get)
			r.Post("/{id}/commit", cfg.ImportHandler.Commit)
			r.Delete("/{id}", cfg.ImportHandler.Discard)
		})
	})

	return r
}
