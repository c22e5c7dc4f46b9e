// Package app assembles the Brewline query service: it acquires the
// transaction snapshot, builds the dataset and engine, and runs the
// HTTP API with graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	httpapi "github.com/brewline/brewline/internal/api/http"
	"github.com/brewline/brewline/internal/config"
	"github.com/brewline/brewline/internal/dataset"
	"github.com/brewline/brewline/internal/engine"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/internal/server"
	"github.com/brewline/brewline/internal/storage"
)

// App is the assembled Brewline service.
type App struct {
	cfg      *config.Config
	ds       *dataset.Dataset
	engine   *engine.Engine
	stats    *observability.QueryStats
	shutdown *server.ShutdownManager
}

// New loads the dataset per the configuration and assembles the service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("app: dataset %s loaded, %d fact rows, %d products, %d stores",
		ds.LoadID, ds.RowCount(), len(ds.Products), len(ds.Stores))

	stats := observability.NewQueryStats(cfg.Stats.Window)
	eng := engine.NewWithStats(ds, stats)

	return &App{
		cfg:      cfg,
		ds:       ds,
		engine:   eng,
		stats:    stats,
		shutdown: server.NewShutdownManager(server.DefaultShutdownConfig()),
	}, nil
}

// Dataset returns the loaded dataset.
func (a *App) Dataset() *dataset.Dataset {
	return a.ds
}

// Engine returns the query engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Run starts the HTTP server and blocks until shutdown completes.
func (a *App) Run(ctx context.Context) error {
	router := httpapi.NewRouter(a.engine, a.stats)
	handler := server.ShutdownMiddleware(a.shutdown)(router)

	httpServer := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	// Prune query stats in the background until shutdown.
	pruneDone := make(chan struct{})
	go func() {
		defer close(pruneDone)
		ticker := time.NewTicker(a.cfg.Stats.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.stats.Prune()
			case <-a.shutdown.ShutdownCh():
				return
			}
		}
	}()
	a.shutdown.RegisterCloser(server.CloserFunc(func() error {
		<-pruneDone
		return nil
	}))

	gs := server.NewGracefulHTTPServer(httpServer, a.shutdown)
	errCh := make(chan error, 1)
	go func() {
		log.Printf("app: HTTP server listening on %s", a.cfg.HTTP.Addr)
		errCh <- gs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := a.shutdown.Shutdown(context.Background(), "context cancelled"); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown stops the service with the given reason.
func (a *App) Shutdown(ctx context.Context, reason string) error {
	return a.shutdown.Shutdown(ctx, reason)
}

// loadDataset acquires the snapshot and decodes it, preferring the
// on-disk cache when enabled. A stale or corrupt cache falls back to a
// fresh load rather than failing startup.
func loadDataset(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	if cfg.Cache.Enabled {
		if _, err := os.Stat(cfg.CachePath()); err == nil {
			ds, err := dataset.LoadCache(cfg.CachePath())
			if err == nil {
				log.Printf("app: dataset cache hit at %s", cfg.CachePath())
				return ds, nil
			}
			log.Printf("app: dataset cache unusable, reloading snapshot: %v", err)
		}
	}

	ds, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		if err := dataset.SaveCache(ds, cfg.CachePath()); err != nil {
			log.Printf("app: failed to write dataset cache: %v", err)
		}
	}
	return ds, nil
}

func loadSnapshot(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	switch cfg.Snapshot.Source {
	case "local":
		log.Printf("app: loading snapshot from %s", cfg.Snapshot.Path)
		return dataset.LoadFile(cfg.Snapshot.Path)

	case "s3":
		store, err := storage.NewS3Storage(ctx, cfg.Snapshot.S3.Bucket, storage.S3Config{
			Region:   cfg.Snapshot.S3.Region,
			Endpoint: cfg.Snapshot.S3.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("app: failed to initialize S3 storage: %w", err)
		}
		log.Printf("app: loading snapshot s3://%s/%s", cfg.Snapshot.S3.Bucket, cfg.Snapshot.Key)
		body, err := store.Open(ctx, cfg.Snapshot.Key)
		if err != nil {
			return nil, fmt.Errorf("app: failed to open snapshot object: %w", err)
		}
		defer body.Close()
		return dataset.Load(body)

	default:
		return nil, fmt.Errorf("app: unknown snapshot source: %s", cfg.Snapshot.Source)
	}
}
