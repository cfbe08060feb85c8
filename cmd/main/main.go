package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloudbrowse/cloudbrowse/pkg/messages"
	"github.com/cloudbrowse/cloudbrowse/pkg/storage"
	"github.com/cloudbrowse/cloudbrowse/pkg/templating"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(baseLogger); err != nil {
		baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
		os.Exit(1)
	}
	baseLogger.Info("cloudbrowse has shut down.")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newBackend selects and constructs the storage backend named in the config.
func newBackend(ctx context.Context, config *ServerConfig) (storage.Backend, error) {
	switch config.StorageBackend {
	case "local":
		if err := os.MkdirAll(config.LocalStorageRoot, 0755); err != nil {
			return nil, fmt.Errorf("failed to create local storage root: %w", err)
		}
		return storage.NewLocalBackend(config.LocalStorageRoot)
	case "s3":
		return storage.NewS3Backend(ctx, storage.S3Config{
			Region:         config.S3Region,
			AccessKeyID:    config.S3AccessKeyID,
			SecretKey:      config.S3SecretKey,
			Endpoint:       config.S3Endpoint,
			ForcePathStyle: config.S3ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.StorageBackend)
	}
}

func run(baseLogger *slog.Logger) error {
	cm, err := NewConfigManager("./config.json")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	config := cm.Get()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(config.Server.LogLevel),
	}))
	cm.SetLogger(logger)
	logger.Info("Starting cloudbrowse", "version", Version, "commit", Commit, "build_date", BuildDate)

	if err = os.MkdirAll(config.Server.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err = ensureDefaultAssets(config.Server.DataDir); err != nil {
		return fmt.Errorf("failed to install default assets: %w", err)
	}

	db, err := initDB(config.Server.SessionDatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize session database: %w", err)
	}
	defer func() {
		logger.Info("Closing session database.")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close session database", "error", err)
		}
	}()

	if err = messages.SetupSchema(db); err != nil {
		return fmt.Errorf("failed to setup flash schema: %w", err)
	}
	flash, err := messages.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create flash store: %w", err)
	}
	defer flash.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, config.Server)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	logger.Info("Storage backend ready", "backend", config.Server.StorageBackend)

	tm, err := templating.NewTemplateManager(logger, reverse, config.Templates, config.Server.DataDir)
	if err != nil {
		return fmt.Errorf("failed to create template manager: %w", err)
	}
	cm.SetTemplateManager(tm)
	if err = tm.Watch(ctx); err != nil {
		return fmt.Errorf("failed to start template watcher: %w", err)
	}

	// Flash messages for sessions that never come back still take up rows.
	flashMaxAge := time.Duration(config.Server.FlashMaxAgeHours) * time.Hour
	if flashMaxAge > 0 {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					n, err := flash.PurgeOlderThan(ctx, flashMaxAge)
					if err != nil {
						logger.Warn("Flash purge failed", "error", err)
					} else if n > 0 {
						logger.Debug("Purged stale flash messages", "count", n)
					}
				}
			}
		}()
	}

	server := NewServer(&config, logger, tm, flash, backend)
	httpServer := &http.Server{Addr: config.Server.ServerAddr, Handler: server.Handler()}

	go func() {
		logger.Info("Starting cloudbrowse server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("Stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped.")

	return nil
}
