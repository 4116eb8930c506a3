package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drivesearch/drivesearch/internal/api"
	"github.com/drivesearch/drivesearch/internal/config"
	"github.com/drivesearch/drivesearch/internal/fixtures"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/service"
	"github.com/drivesearch/drivesearch/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	videoRepo := repository.NewVideoRepository(db)
	frameRepo := repository.NewFrameRepository(db)
	exportRepo := repository.NewExportRepository(db)

	// Initialize storage (in-memory by default, S3-compatible when configured)
	objectStorage, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Seed the demo library so search works before any upload
	if err := fixtures.Seed(ctx, videoRepo, frameRepo, objectStorage); err != nil {
		appLogger.WithError(err).Fatal("Failed to seed demo library")
	}

	// Initialize services
	searchService := service.NewSearchService(frameRepo, objectStorage, appLogger, &service.SearchConfig{
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxLimit:         cfg.Search.MaxLimit,
		DefaultThreshold: cfg.Search.DefaultThreshold,
	})
	libraryService := service.NewLibraryService(videoRepo, frameRepo, objectStorage, appLogger)
	exportService := service.NewExportService(exportRepo, frameRepo, objectStorage, appLogger, &service.ExportConfig{
		Workers: cfg.Export.Workers,
	})

	// Start export workers
	if err := exportService.Start(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to start export workers")
	}

	// Setup router
	router := api.SetupRouter(searchService, libraryService, exportService, appLogger, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting demo server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	// Stop export workers and wait for in-flight jobs
	cancel()
	exportService.Wait()

	appLogger.Info("Server exited")
}
