package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/config"
	"github.com/kailas-cloud/menusearch/internal/metrics"
	searchrepo "github.com/kailas-cloud/menusearch/internal/repository/search"
	azblobstore "github.com/kailas-cloud/menusearch/internal/transport/azblob"
	"github.com/kailas-cloud/menusearch/internal/transport/azuresearch"
	chiTransport "github.com/kailas-cloud/menusearch/internal/transport/chi"
	s3store "github.com/kailas-cloud/menusearch/internal/transport/s3"
	healthuc "github.com/kailas-cloud/menusearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/menusearch/internal/usecase/search"
	uploaduc "github.com/kailas-cloud/menusearch/internal/usecase/upload"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the search and upload API",
		Action: runServe,
	}
}

func runServe(ctx context.Context, _ *cli.Command) error {
	cfg, logger, err := bootstrap("api")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.RequireServe(); err != nil {
		return fmt.Errorf("invalid serve config: %w", err)
	}

	metrics.RegisterSearchMetrics()

	// Search backend, built once and shared by every request.
	var (
		backend      searchuc.Backend
		backendCheck healthuc.Component
	)
	switch cfg.Search.Driver {
	case config.DriverAzure:
		client, err := azuresearch.New(azuresearch.Config{
			Endpoint:   cfg.Search.Endpoint,
			Index:      cfg.Search.Index,
			APIKey:     cfg.Search.APIKey,
			APIVersion: cfg.Search.APIVersion,
			Top:        cfg.Search.Top,
		})
		if err != nil {
			return fmt.Errorf("create azure search client: %w", err)
		}
		backend = client
		backendCheck = healthuc.PingComponent("search", client)
	case config.DriverRedis:
		store, err := openRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		repo := searchrepo.New(store, cfg.Search.Index, cfg.Search.Top, 0)
		backend = repo
		backendCheck = healthuc.PingComponent("search", repo)
	}
	logger.Info("Search backend ready",
		zap.String("driver", backend.Name()),
		zap.String("index", cfg.Search.Index),
	)

	blobs, err := openBlobStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	searchSvc := searchuc.New(backend, searchuc.Options{
		Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Retry: searchuc.RetryPolicy{
			MaxAttempts: cfg.Search.Retry.MaxAttempts,
			Backoff:     time.Duration(cfg.Search.Retry.BackoffMs) * time.Millisecond,
		},
	})
	uploadSvc := uploaduc.New(blobs, cfg.Storage.Prefix)
	healthSvc := healthuc.New(backendCheck, healthuc.PingComponent("storage", blobs))

	server := chiTransport.NewServer(searchSvc, uploadSvc, healthSvc, cfg.Upload.MaxBytes())

	r := newRouter(logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{chiTransport.CountSourceHeader, "X-Request-ID"},
		MaxAge:         300,
	}))
	server.Routes(r)

	return serveHTTP(ctx, cfg.HTTP, r, logger)
}

// blobStore is what serve needs from an upload destination.
type blobStore interface {
	uploaduc.BlobStore
	Ping(ctx context.Context) error
}

// openBlobStore builds the configured store and creates its container or bucket once.
func openBlobStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (blobStore, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		st, err := s3store.New(ctx, s3store.Config{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.UsePathStyle,
			PublicURL:       cfg.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create blob store: %w", err)
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("prepare bucket %s: %w", st.Bucket(), err)
		}
		logger.Info("Blob store ready", zap.String("driver", cfg.Driver), zap.String("bucket", st.Bucket()))
		return st, nil
	default:
		st, err := azblobstore.New(azblobstore.Config{
			ConnectionString: cfg.ConnectionString,
			Container:        cfg.Bucket,
			PublicURL:        cfg.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create blob store: %w", err)
		}
		if err := st.EnsureContainer(ctx); err != nil {
			return nil, fmt.Errorf("prepare container %s: %w", st.Container(), err)
		}
		logger.Info("Blob store ready", zap.String("driver", cfg.Driver), zap.String("container", st.Container()))
		return st, nil
	}
}
