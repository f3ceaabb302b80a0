// Package main is the entry point for the mitigate error-mitigation service.
// The service exposes zero-noise extrapolation and probabilistic error
// cancellation over a REST API and records mitigation runs in a local
// SQLite database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qforge/mitigate/internal/config"
	"github.com/qforge/mitigate/internal/database"
	"github.com/qforge/mitigate/internal/server"
	"github.com/qforge/mitigate/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New("info")
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Msg("Starting mitigate")

	historyDB, err := database.New(database.Config{
		Path: cfg.HistoryDBPath(),
		Name: "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	srv, err := server.New(server.Config{
		Log:       log,
		HistoryDB: historyDB,
		Config:    cfg,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	// Start server in goroutine so the main thread can wait on signals.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Give in-flight requests up to 10 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
