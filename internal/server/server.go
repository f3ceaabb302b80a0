// Package server provides the HTTP server and routing for the mitigation
// service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/qforge/mitigate/internal/config"
	"github.com/qforge/mitigate/internal/database"
	"github.com/qforge/mitigate/internal/modules/history"
	historyhandlers "github.com/qforge/mitigate/internal/modules/history/handlers"
	pechandlers "github.com/qforge/mitigate/internal/modules/pec/handlers"
	znehandlers "github.com/qforge/mitigate/internal/modules/zne/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	HistoryDB *database.DB
	Config    *config.Config
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Config,
	}

	historyRepo, err := history.NewRepository(cfg.HistoryDB.Conn(), cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history repository: %w", err)
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes(historyRepo)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Config.Port),
		Handler: s.router,
	}

	return s, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(historyRepo *history.Repository) {
	s.router.Get("/health", s.handleHealth)

	zneHandler := znehandlers.NewHandler(historyRepo, s.log)
	pecHandler := pechandlers.NewHandler(s.cfg.MaxRequestSamples, s.log)
	historyHandler := historyhandlers.NewHandler(historyRepo, s.cfg.HistoryListDefault, s.log)

	s.router.Route("/api", func(r chi.Router) {
		zneHandler.RegisterRoutes(r)
		pecHandler.RegisterRoutes(r)
		historyHandler.RegisterRoutes(r)
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	}); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
