// Package main provides the entry point for the Tessera vector tile service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/tessera/internal/adapters/tilestore"
	"github.com/jobrunner/tessera/internal/app"
	"github.com/jobrunner/tessera/internal/application"
	"github.com/jobrunner/tessera/internal/config"
	"github.com/jobrunner/tessera/internal/ports/output"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Tessera - GeoJSON Vector Tile Service",
	Long: `Tessera is a high-performance vector tile service for GeoJSON datasets.

It renders Mapbox Vector Tiles on the fly from registered GeoJSON
datasets and serves them over a REST API with XYZ tile addressing.

Features:
  - On-the-fly MVT encoding with clipping and simplification
  - TileJSON endpoints and a built-in map preview
  - Multiple storage backends (local, AWS S3, Azure, HTTP)
  - Hot-reload of datasets
  - Redis tile caching
  - Offline seeding into MBTiles or MySQL
  - TLS with automatic certificate management
  - Prometheus metrics`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Tessera %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Render a dataset's tile pyramid into a tile store",
	Long: `Seed renders all tiles of a registered dataset between the given
zoom levels and writes them, gzip-compressed, into an MBTiles file or a
MySQL database.`,
	RunE: runSeed,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")

	// Server flags
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 8080, "server port")
	rootCmd.Flags().Bool("tls", false, "enable TLS")
	rootCmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	rootCmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")

	// Storage flags
	rootCmd.Flags().String("storage-type", "local", "storage type (local, s3, azure, http)")
	rootCmd.Flags().String("storage-path", "./data", "local storage path")

	// CORS flags
	rootCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")

	// Cache flags
	rootCmd.Flags().Bool("cache", false, "enable the Redis tile cache")
	rootCmd.Flags().String("redis-addr", "127.0.0.1:6379", "Redis address")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("tls.enabled", rootCmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("tls.domains", rootCmd.Flags().Lookup("tls-domains"))
	_ = viper.BindPFlag("tls.email", rootCmd.Flags().Lookup("tls-email"))
	_ = viper.BindPFlag("storage.type", rootCmd.Flags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local_path", rootCmd.Flags().Lookup("storage-path"))
	_ = viper.BindPFlag("server.cors.allowed_origins", rootCmd.Flags().Lookup("cors"))
	_ = viper.BindPFlag("cache.enabled", rootCmd.Flags().Lookup("cache"))
	_ = viper.BindPFlag("cache.redis.addr", rootCmd.Flags().Lookup("redis-addr"))

	// Seed flags
	seedCmd.Flags().String("dataset", "", "dataset ID to seed (required)")
	seedCmd.Flags().Uint32("min-zoom", 0, "first zoom level to render")
	seedCmd.Flags().Uint32("max-zoom", 14, "last zoom level to render")
	seedCmd.Flags().String("output", "", "MBTiles output file")
	seedCmd.Flags().String("mysql-dsn", "", "MySQL DSN to write tiles into instead of MBTiles")
	seedCmd.Flags().Int("workers", 4, "concurrent render workers")
	_ = seedCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting Tessera",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address())
		if err := application.Start(ctx); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down server")
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	datasetID, _ := cmd.Flags().GetString("dataset")
	minZoom, _ := cmd.Flags().GetUint32("min-zoom")
	maxZoom, _ := cmd.Flags().GetUint32("max-zoom")
	outputFile, _ := cmd.Flags().GetString("output")
	mysqlDSN, _ := cmd.Flags().GetString("mysql-dsn")
	workers, _ := cmd.Flags().GetInt("workers")

	if outputFile == "" && mysqlDSN == "" {
		outputFile = datasetID + ".mbtiles"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("aborting seed run")
		cancel()
	}()

	// Bring up the registry and tile service without the HTTP surface
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	if err := a.Registry.LoadAll(ctx); err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	store, err := openTileStore(outputFile, mysqlDSN)
	if err != nil {
		return fmt.Errorf("opening tile store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("tile store close error", "error", err)
		}
	}()

	seeder := application.NewSeeder(a.TileService, a.Registry, logger)
	stats, err := seeder.Seed(ctx, datasetID, store, application.SeedOptions{
		MinZoom:  minZoom,
		MaxZoom:  maxZoom,
		Workers:  workers,
		Progress: true,
	})
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	logger.Info("seed run complete",
		"job_id", stats.JobID,
		"tiles_written", stats.TilesWritten,
		"tiles_empty", stats.TilesEmpty,
		"duration", stats.Duration,
	)
	return nil
}

// openTileStore opens the MySQL store when a DSN is given, otherwise an
// MBTiles file.
func openTileStore(outputFile, mysqlDSN string) (output.TileStore, error) {
	if mysqlDSN != "" {
		return tilestore.NewMySQLStore(mysqlDSN)
	}
	return tilestore.NewMBTilesStore(outputFile)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
