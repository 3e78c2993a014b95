// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jobrunner/tessera/internal/adapters/cache"
	httpAdapter "github.com/jobrunner/tessera/internal/adapters/http"
	"github.com/jobrunner/tessera/internal/adapters/metrics"
	"github.com/jobrunner/tessera/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/tessera/internal/adapters/tls"
	"github.com/jobrunner/tessera/internal/adapters/watcher"
	"github.com/jobrunner/tessera/internal/application"
	"github.com/jobrunner/tessera/internal/config"
	"github.com/jobrunner/tessera/internal/ports/output"
	"github.com/jobrunner/tessera/internal/tileindex"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	Cache         output.TileCache
	Registry      *application.DatasetRegistry
	TileService   *application.TileQueryService
	HealthService *application.HealthService
	SyncService   *application.SyncService
	HTTPServer    *httpAdapter.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector

	redisCache *cache.RedisCache
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("tessera")
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize storage adapter
	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = store

	// Initialize tile cache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing tile cache: %w", err)
		}
		app.redisCache = redisCache
		app.Cache = redisCache
	} else {
		app.Cache = &output.NoOpTileCache{}
	}

	// Initialize index builder
	builder := tileindex.NewBuilder(tileindex.Options{
		Extent:    cfg.Tiles.Extent,
		Buffer:    cfg.Tiles.Buffer,
		Tolerance: cfg.Tiles.Tolerance,
		MaxZoom:   cfg.Tiles.MaxZoom,
	})

	// Initialize dataset registry
	app.Registry = application.NewDatasetRegistry(
		builder,
		app.Storage,
		app.Cache,
		metricsCollector,
		logger,
		cfg.Storage.LocalPath,
	)

	// Initialize tile query service
	app.TileService = application.NewTileQueryService(
		app.Registry,
		app.Cache,
		metricsCollector,
		logger,
		application.TileOptions{
			LayerName: cfg.Tiles.LayerName,
			Extent:    cfg.Tiles.Extent,
		},
	)

	// Initialize health service
	app.HealthService = application.NewHealthService(app.Registry)

	// Initialize sync service
	if cfg.Sync.Enabled {
		app.SyncService = application.NewSyncService(app.Registry, cfg.Sync.Interval, logger)
	}

	// Initialize HTTP server
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = metrics.Handler()
	}
	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.TileService,
		app.Registry,
		app.HealthService,
		app.SyncService,
		metricsHandler,
		logger,
	)

	// Initialize TLS server if enabled
	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(
			tlsAdapter.Config{
				Enabled:  cfg.TLS.Enabled,
				Domains:  cfg.TLS.Domains,
				Email:    cfg.TLS.Email,
				CacheDir: cfg.TLS.CacheDir,
				Staging:  cfg.TLS.Staging,
				DNS: tlsAdapter.DNSConfig{
					SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
					ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
					ClientID:          cfg.TLS.DNS.ClientID,
				},
			},
			app.HTTPServer.Router(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	// Initialize file watcher for hot-reload
	if cfg.Storage.Type == "local" && cfg.Watcher.Enabled {
		w, err := watcher.New(
			watcher.Config{
				Paths:    []string{cfg.Storage.LocalPath},
				Debounce: cfg.Watcher.Debounce,
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start starts all application components.
func (a *App) Start(ctx context.Context) error {
	// Load all datasets from storage
	if err := a.Registry.LoadAll(ctx); err != nil {
		a.Logger.Warn("failed to load datasets", "error", err)
	}

	// Start file watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	// Start periodic storage sync
	if a.SyncService != nil {
		a.SyncService.Start(ctx)
	}

	// Start server
	if a.Config.TLS.Enabled && a.TLSServer != nil {
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	// Stop sync service
	if a.SyncService != nil {
		a.SyncService.Stop()
	}

	// Shutdown HTTP server
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	// Unload all datasets
	datasets, _ := a.Registry.ListDatasets(ctx)
	for _, ds := range datasets {
		_ = a.Registry.Unload(ctx, ds.ID)
	}

	// Close cache connection
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.Logger.Error("cache shutdown error", "error", err)
		}
	}

	return nil
}

// handleFileEvent handles file system events for hot-reload.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		// Load or replace the dataset
		return a.Registry.LoadFile(ctx, event.Path)

	case watcher.OpDelete:
		// Unload the dataset by deriving its ID from the file path
		return a.Registry.Unload(ctx, tileindex.DeriveDatasetID(event.Path))
	}

	return nil
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
