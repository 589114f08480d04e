package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskforge/attachment-service/internal/config"
	"github.com/taskforge/attachment-service/internal/domain/storage"
	"github.com/taskforge/attachment-service/internal/infrastructure/database"
	httpServer "github.com/taskforge/attachment-service/internal/infrastructure/http"
	"github.com/taskforge/attachment-service/internal/infrastructure/storage/disk"
	"github.com/taskforge/attachment-service/internal/infrastructure/storage/s3"
	"github.com/taskforge/attachment-service/internal/usecase"
	"github.com/taskforge/attachment-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Development: cfg.Service.Environment == "development",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure the scratch directory exists before the first upload needs it
	if cfg.Storage.ScratchDir != "" {
		if err := os.MkdirAll(cfg.Storage.ScratchDir, 0o755); err != nil {
			zapLogger.Fatal("Failed to create scratch directory", zap.Error(err))
		}
	}

	// Initialize blob storage backend
	store, err := newBlobStore(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	// Initialize server
	httpSrv := httpServer.NewServer(cfg, zapLogger, repos, store)

	// Start orphan reconciler
	reconciler := usecase.NewReconciler(store, repos.Attachment, cfg.Storage.SweepInterval, zapLogger)
	go reconciler.Run(ctx)

	// Start server
	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")
	cancel()

	if err := httpSrv.Shutdown(context.Background()); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}

func newBlobStore(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		return s3.New(ctx, cfg.Storage.S3, zapLogger)
	case config.BackendDisk:
		return disk.New(cfg.Storage.Root, zapLogger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
