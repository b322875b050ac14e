package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agri-auth/internal/config"
	"agri-auth/internal/database"
	"agri-auth/internal/handler"
	"agri-auth/internal/metrics"
	"agri-auth/internal/middleware"
	"agri-auth/internal/password"
	"agri-auth/internal/repository"
	"agri-auth/internal/router"
	"agri-auth/internal/service"
	"agri-auth/internal/token"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var cleanupFuncs []func()
	cleanup := func() {
		for _, fn := range cleanupFuncs {
			fn()
		}
	}

	accounts, healthCheck, closeStore, err := openAccountStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cleanupFuncs = append(cleanupFuncs, closeStore)

	hasher, err := password.NewBcryptHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	signer, err := token.NewSigner(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}

	var opts []service.Option
	var appMetrics *metrics.Metrics
	if cfg.MetricsEnabled {
		appMetrics = metrics.New()
		opts = append(opts, service.WithRecorder(appMetrics))
	}

	authService, err := service.NewAuthService(ctx, accounts, hasher, signer, opts...)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Health:  handler.NewHealthHandler(healthCheck),
		Metrics: appMetrics,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	slog.Info("application initialized",
		"store", cfg.StoreDriver,
		"bcrypt_cost", hasher.Cost(),
		"hash_concurrency", cfg.HashConcurrency,
		"metrics", cfg.MetricsEnabled,
	)

	return &App{server: server, cleanupFuncs: cleanupFuncs}, nil
}

// openAccountStore returns the store plus the dependency /health should ping.
func openAccountStore(ctx context.Context, cfg *config.Config) (service.AccountStore, healthChecker, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory account store; accounts are lost on restart")
		store := repository.NewMemoryAccountRepository()
		return store, store, func() {}, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.Open(ctx, database.Options{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ApplicationName: "agri-auth",
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	slog.Info("database ready")
	return repository.NewAccountRepository(db.Pool), db, db.Close, nil
}

// Handler exposes the routed handler for in-process tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is canceled or SIGINT/SIGTERM arrives, then drains
// in-flight requests before releasing the store.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
