package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/htm-project/temporal-api/internal/api"
	"github.com/htm-project/temporal-api/internal/domain/htm"
	"github.com/htm-project/temporal-api/internal/handlers"
	"github.com/htm-project/temporal-api/internal/infrastructure/config"
	"github.com/htm-project/temporal-api/internal/services"
)

func main() {
	layerConfigPath := flag.String("layer-config", "", "path to a YAML temporal memory layer config")
	flag.Parse()

	cfg := config.Load()

	app, err := initializeApplication(cfg, *layerConfigPath)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// Application represents the main application structure.
type Application struct {
	config     *config.Config
	server     *http.Server
	shutdownCh chan os.Signal
}

// initializeApplication sets up the application with all dependencies.
func initializeApplication(cfg *config.Config, layerConfigPath string) (*Application, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	layerConfig := htm.DefaultTemporalMemoryConfig()
	if layerConfigPath != "" {
		loaded, err := config.LoadLayerConfig(layerConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load layer config: %w", err)
		}
		layerConfig = loaded
	}

	service, err := services.NewTemporalMemoryService(layerConfig, services.TemporalServiceOptions{
		SnapshotDir:       cfg.Snapshot.Directory,
		CompressSnapshots: cfg.Snapshot.Compress,
		AnomalyWindowSize: cfg.API.AnomalyWindowSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal memory service: %w", err)
	}

	temporalHandler := handlers.NewTemporalMemoryHandler(service)
	healthHandler := handlers.NewHealthMetricsHandler(service, cfg.API.Version)

	appRouter := api.NewRouter(temporalHandler, healthHandler)
	appRouter.SetupRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout * 2,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	return &Application{
		config:     cfg,
		server:     server,
		shutdownCh: shutdownCh,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (app *Application) Run() error {
	serverErrCh := make(chan error, 1)
	go func() {
		log.Printf("Starting HTM Temporal Memory API server on %s", app.config.Server.Address())

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case sig := <-app.shutdownCh:
		log.Printf("Received shutdown signal: %v", sig)
		return app.shutdown()
	}
}

// shutdown performs graceful shutdown of the application.
func (app *Application) shutdown() error {
	log.Println("Initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
		return err
	}

	log.Println("Server shutdown completed")
	return nil
}
