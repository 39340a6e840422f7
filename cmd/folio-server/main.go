package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tendant/folio-content/pkg/folio/api"
	"github.com/tendant/folio-content/pkg/folio/config"
)

func main() {
	// Load configuration from .env and the environment
	serverConfig, err := config.Load(config.WithDotEnv(".env"), config.WithEnv())
	if err != nil {
		slog.Error("Failed to load server configuration", "error", err)
		os.Exit(1)
	}

	logger := serverConfig.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()
	svc, cleanup, err := serverConfig.BuildService(ctx, logger)
	if err != nil {
		logger.Error("Failed to build service", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(svc, api.Options{
		Logger:         logger,
		AllowedOrigins: serverConfig.AllowedOrigins,
		MaxUploadBytes: serverConfig.MaxUploadBytes,
		RequestTimeout: serverConfig.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Folio CMS server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"database_type", serverConfig.DatabaseType,
			"storage_type", serverConfig.StorageType)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := cleanup(shutdownCtx); err != nil {
		logger.Error("Failed to release resources", "error", err)
	}

	logger.Info("Server exiting")
}
