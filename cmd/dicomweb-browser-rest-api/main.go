// Package main is the entry point for the dicomweb-browser-rest-api
// application. It loads the configuration, connects the local index database,
// wires the DICOMweb browsing, retrieval and local index services and serves
// the versioned REST API until it is shut down.
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

	v1 "github.com/lassoan/SlicerDICOMwebBrowser/internal/api/rest/v1"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/app"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/cache"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/connector"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/imaging"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/indexer"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/persistence"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "../../configs/rest-app.yaml"
	}

	restConfig, err := config.InitializeRestConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	// Initialize logger
	if err := logger.InitLogger(&restConfig.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log, err := logger.GetLogger()
	if err != nil {
		return fmt.Errorf("failed to get logger: %w", err)
	}

	// Initialize application dependencies
	deps, err := initializeDependencies(restConfig, log)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	// Setup and start server with graceful shutdown
	return startServerWithGracefulShutdown(restConfig, deps, log)
}

// appServices holds all initialized application services
type appServices struct {
	browse     dicom.BrowseService
	retrieval  retrieval.Service
	localIndex dicom.LocalIndexService
}

// initializeDependencies sets up all application components
func initializeDependencies(cfg *config.RestConfig, log logger.Logger) (*appServices, error) {
	// Initialize database
	db, err := persistence.NewDBConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create db connection: %w", err)
	}

	// Run migrations
	if err := persistence.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Info("Database migrations completed successfully")

	// Initialize repositories
	studyRepo, err := persistence.NewGormStudyRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create study repository: %w", err)
	}

	seriesRepo, err := persistence.NewGormSeriesRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create series repository: %w", err)
	}

	instanceRepo, err := persistence.NewGormInstanceRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance repository: %w", err)
	}

	volumeRepo, err := persistence.NewGormVolumeRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create volume repository: %w", err)
	}

	// Initialize DICOMweb client infrastructure
	webConnector, err := connector.NewDicomwebConnector(&cfg.Remote, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create DICOMweb connector: %w", err)
	}

	responseCache, err := cache.NewFileCache(cfg.Storage.CacheDir(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	fileIndexer, err := indexer.NewFileIndexer(&cfg.Storage, studyRepo, seriesRepo, instanceRepo, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create file indexer: %w", err)
	}

	assembler, err := imaging.NewVolumeAssembler(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create volume assembler: %w", err)
	}

	// Initialize services
	browseService, err := app.NewBrowseService(webConnector, responseCache, instanceRepo, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create browse service: %w", err)
	}

	loadService, err := app.NewLoadService(seriesRepo, instanceRepo, assembler, volumeRepo, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create load service: %w", err)
	}

	localIndexService, err := app.NewLocalIndexService(studyRepo, seriesRepo, instanceRepo, volumeRepo, &cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create local index service: %w", err)
	}

	retrievalService, err := app.NewRetrievalService(webConnector, fileIndexer, loadService, instanceRepo, &cfg.Storage, &cfg.Remote, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval service: %w", err)
	}

	log.Info("Application services initialized successfully")
	return &appServices{
		browse:     browseService,
		retrieval:  retrievalService,
		localIndex: localIndexService,
	}, nil
}

// startServerWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func startServerWithGracefulShutdown(cfg *config.RestConfig, services *appServices, log logger.Logger) error {
	// Setup router
	r := gin.Default()

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", v1.CacheRetrievedAtHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup API routes
	v1.SetupRoutes(r, services.browse, services.retrieval, services.localIndex)

	// Health and metrics endpoints
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	registry := prometheus.NewRegistry()
	metrics.RegisterCollectors(registry)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attack
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting server on port ", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		return err
	case sig := <-quit:
		log.Info("Received signal ", sig, ", initiating graceful shutdown")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Info("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}
