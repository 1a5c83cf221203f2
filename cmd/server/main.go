// Package main is the entrypoint for the TrustLens API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranshivaraju/trustlens/internal/ai"
	"github.com/kiranshivaraju/trustlens/internal/api"
	"github.com/kiranshivaraju/trustlens/internal/api/handler"
	mw "github.com/kiranshivaraju/trustlens/internal/api/middleware"
	"github.com/kiranshivaraju/trustlens/internal/cache"
	"github.com/kiranshivaraju/trustlens/internal/config"
	"github.com/kiranshivaraju/trustlens/internal/fetch"
	"github.com/kiranshivaraju/trustlens/internal/metrics"
	"github.com/kiranshivaraju/trustlens/internal/pipeline"
	"github.com/kiranshivaraju/trustlens/internal/scoring"
	"github.com/kiranshivaraju/trustlens/internal/store"
	"github.com/kiranshivaraju/trustlens/pkg/models"
)

const (
	shutdownTimeout = 30 * time.Second
	// startupTimeout bounds each backend connection attempt at boot.
	startupTimeout = 10 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"text_scorer", cfg.Scoring.TextStrategy,
		"ai_provider", cfg.AI.Provider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Wire backends, pipeline and router
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 3. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.InferenceTimeout + cfg.Image.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// app holds the wired router and the backend clients it must release.
type app struct {
	router  http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires backends, scorer, pipeline and router. An unreachable
// database or Redis is logged and reported by the health check; the
// service keeps serving without that cache tier.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	checks := map[string]handler.Check{"database": nil, "cache": nil}

	// Durable store (optional)
	var records cache.RecordStore
	if cfg.Database.URL != "" {
		pgStore, err := openStore(ctx, cfg.Database)
		switch {
		case errors.Is(err, errMigrations):
			a.Close()
			return nil, err
		case err != nil:
			slog.Warn("database unreachable, durable analysis cache disabled", "error", err)
			checks["database"] = func(context.Context) error { return err }
		default:
			a.closers = append(a.closers, pgStore.pool.Close)
			records = pgStore.store
			checks["database"] = pgStore.store.Ping
		}
	} else {
		slog.Warn("DATABASE_URL not set, durable analysis cache disabled")
	}

	// Redis hot cache and rate limiter (optional)
	var hot cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.OpTimeout)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		a.closers = append(a.closers, func() { redisCache.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		err = redisCache.Ping(pingCtx)
		cancel()
		if err != nil {
			// go-redis redials on demand, so the client stays wired. Until
			// Redis is back, lookups miss and the rate limiter fails open.
			slog.Warn("redis unreachable, continuing without hot cache", "error", err)
		} else {
			slog.Info("redis connected")
		}
		hot = redisCache
		checks["cache"] = redisCache.Ping
	} else {
		slog.Warn("REDIS_URL not set, hot cache and rate limiting disabled")
	}

	// Text scoring strategy
	scorer, llm, err := newTextScorer(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create text scorer: %w", err)
	}
	if llm != nil {
		checks["llm"] = llm
	}
	slog.Info("text scorer initialized", "scorer", scorer.Name())

	// Pipeline
	m := metrics.New()
	analysisCache := cache.NewAnalysisCache(hot, records,
		cache.WithHotTTL(cfg.Redis.HotTTL),
		cache.WithOpTimeout(cfg.Redis.OpTimeout),
	)
	fetcher := fetch.NewImageFetcher(cfg.Image.FetchTimeout, cfg.Image.MaxBytes, cfg.Image.UserAgent)
	svc := pipeline.New(scorer, analysisCache, fetcher, m)

	// Router
	auth := mw.NewAuth(cfg.HTTP.APIKeyHashes)
	if !auth.Enabled() {
		slog.Warn("API_KEY_HASHES not set, analyze endpoint is open")
	}

	a.router = api.NewRouter(api.Dependencies{
		Auth:        auth,
		RateLimit:   mw.NewRateLimit(hot, cfg.HTTP.RateLimitPerMinute),
		Metrics:     m,
		CORSOrigins: cfg.HTTP.CORSOrigins,

		HealthHandler:      handler.NewHealthHandler(svc.ScorerName(), checks),
		AnalyzeHandler:     handler.NewAnalyzeHandler(svc),
		AnalyzeInfoHandler: handler.NewAnalyzeInfoHandler(),
	})
	return a, nil
}

var errMigrations = errors.New("run migrations")

type openedStore struct {
	pool  *pgxpool.Pool
	store *store.PostgresStore
}

// openStore connects and migrates. Only a migration failure against a
// reachable database is wrapped in errMigrations.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*openedStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := store.Connect(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.URL, cfg.MigrationsDir); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", errMigrations, err)
	}
	slog.Info("database migrations applied")

	return &openedStore{pool: pool, store: store.NewPostgresStore(pool)}, nil
}

// newTextScorer builds the configured text strategy and, for the LLM
// strategy, a health check. An unconfigured provider is allowed; analyze
// requests then fail with 503 and the check reports it.
func newTextScorer(cfg *config.Config) (models.TextScorer, handler.Check, error) {
	if cfg.Scoring.TextStrategy == config.StrategyHeuristic {
		return scoring.NewHeuristicScorer(), nil, nil
	}

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return nil, nil, err
	}

	configured := ai.IsConfigured(provider)
	if !configured {
		slog.Warn("AI_PROVIDER not set, text analysis will be unavailable")
	}
	check := func(context.Context) error {
		if !configured {
			return ai.ErrProviderUnavailable
		}
		return nil
	}

	scorer := ai.NewSemanticScorer(provider, cfg.AI.InferenceTimeout,
		ai.WithTemperature(cfg.AI.Temperature),
		ai.WithMaxTokens(cfg.AI.MaxTokens),
	)
	return scorer, check, nil
}
