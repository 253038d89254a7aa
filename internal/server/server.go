// Package server exposes the prediction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alanyoungcy/playervalue/internal/domain"
	"github.com/alanyoungcy/playervalue/internal/server/handler"
	"github.com/alanyoungcy/playervalue/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr             string
	CORSOrigins      []string
	AllowCredentials bool
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// RateLimiter, when set, limits POST /predict per client IP.
	RateLimiter     domain.RateLimiter
	RateLimitN      int
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Predict *handler.PredictHandler
	Metrics http.Handler // optional
}

// Server is the HTTP API server for the prediction service.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on a chi router.
// It wires up middleware (request ids, logging, panic recovery, CORS, rate
// limiting).
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           300,
	}))

	r.Get("/", handlers.Health.Root)
	r.Get("/health", handlers.Health.HealthCheck)
	r.Get("/models", handlers.Predict.Models)
	if handlers.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handlers.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimitN, cfg.RateLimitWindow, logger))
		}
		r.Post("/predict", handlers.Predict.Predict)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		router:     r,
		logger:     logger,
	}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
