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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/config"
	dbRedis "github.com/kailas-cloud/menusearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/menusearch/internal/logger"
	"github.com/kailas-cloud/menusearch/internal/metrics"
	"github.com/kailas-cloud/menusearch/internal/version"
)

// bootstrap loads the configuration for ENV and builds the logger.
func bootstrap(component string) (config.Config, *zap.Logger, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger = logger.With(zap.String("component", component))

	logger.Info("Starting menusearch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)
	return cfg, logger, nil
}

// openRedis connects to Redis and waits until it answers.
func openRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}
	logger.Info("Connected to redis", zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

// newRouter returns a chi router with the shared middleware stack.
func newRouter(logger *zap.Logger) *chi.Mux {
	metrics.RegisterHTTPMetrics()

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	return r
}

// serveHTTP runs the server until SIGINT/SIGTERM or ctx cancellation, then drains it.
func serveHTTP(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
