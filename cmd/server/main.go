package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/gobudget/internal/adapter/http"
	"github.com/iho/gobudget/internal/adapter/http/handler"
	"github.com/iho/gobudget/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gobudget/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobudget/internal/adapter/repository/redis"
	"github.com/iho/gobudget/internal/infrastructure/auth"
	"github.com/iho/gobudget/internal/infrastructure/config"
	"github.com/iho/gobudget/internal/infrastructure/logger"
	"github.com/iho/gobudget/internal/infrastructure/metrics"
	"github.com/iho/gobudget/internal/infrastructure/postgres"
	"github.com/iho/gobudget/internal/infrastructure/redis"
	"github.com/iho/gobudget/internal/usecase"
)

const (
	serviceName            = "gobudget"
	limiterCleanupInterval = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		ConnectTimeout:  cfg.DatabaseTimeout,
		ApplicationName: serviceName,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.Config{
		URL:            cfg.RedisURL,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	locker := postgresRepo.NewPeriodLocker()
	retrier := postgresRepo.NewRetrier(cfg.DatabaseRetries)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	budgetRepo := postgresRepo.NewMonthlyBudgetRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	ledgerRepo := postgresRepo.NewPeriodLedgerRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	stagingStore := redisRepo.NewImportStagingStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	clock := usecase.SystemClock{}

	// Initialize use cases
	pipeline := usecase.NewDefaultRulePipeline(clock, categoryRepo, transactionRepo, budgetRepo, m)
	closingUC := usecase.NewClosingUseCase(txManager, locker, retrier, ledgerRepo, transactionRepo, auditRepo, idGen, clock, m)
	validationUC := usecase.NewValidationUseCase(pipeline, categoryRepo, transactionRepo, budgetRepo)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo, idGen, clock)
	budgetUC := usecase.NewBudgetUseCase(txManager, locker, retrier, closingUC, validationUC, budgetRepo, auditRepo, idGen, clock)
	transactionUC := usecase.NewTransactionUseCase(txManager, locker, retrier, closingUC, pipeline, transactionRepo, idGen, clock)
	importUC := usecase.NewImportUseCase(stagingStore, closingUC, validationUC, transactionUC, idGen, clock, cfg.ImportTTL, cfg.DefaultCurrency)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)
	go rateLimiter.RunCleanup(ctx, limiterCleanupInterval)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PeriodHandler:      handler.NewPeriodHandler(closingUC),
		ValidationHandler:  handler.NewValidationHandler(validationUC),
		CategoryHandler:    handler.NewCategoryHandler(categoryUC),
		BudgetHandler:      handler.NewBudgetHandler(budgetUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		ImportHandler:      handler.NewImportHandler(importUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		Logger:             log,
		Metrics:            m,
		MetricsHandler:     promhttp.Handler(),
		RateLimiter:        rateLimiter,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		JWTManager:         jwtManager(cfg),
	})

	server := newServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Bool("auth", cfg.AuthEnabled).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// jwtManager returns nil when bearer auth is disabled.
func jwtManager(cfg *config.Config) *auth.JWTManager {
	if !cfg.AuthEnabled {
		return nil
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenTTL)
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
