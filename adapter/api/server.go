// Package api provides the HTTP API of the advising service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/felixgeelhaar/advising/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux      *http.ServeMux
	server   *http.Server
	logger   *zap.Logger
	sessions *SessionHandler
	auth     *Authenticator
	health   *observability.HealthRegistry
	metrics  http.Handler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           "0.0.0.0:8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// ServerDeps are the collaborators the server routes to. Health and
// Metrics are optional.
type ServerDeps struct {
	Sessions *SessionHandler
	Auth     *Authenticator
	Health   *observability.HealthRegistry
	Metrics  http.Handler
	Logger   *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		sessions: deps.Sessions,
		auth:     deps.Auth,
		health:   deps.Health,
		metrics:  deps.Metrics,
	}
	s.registerRoutes(cfg.RequestTimeout)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes(requestTimeout time.Duration) {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.health != nil {
		s.mux.Handle("GET /readyz", s.health.Handler())
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.Handle("GET /api/v1/slots", http.HandlerFunc(s.sessions.ListSlots))

	authed := func(h http.HandlerFunc) http.Handler {
		return timeout(requestTimeout, s.auth.Middleware(h))
	}

	s.mux.Handle("POST /api/v1/sessions", authed(s.sessions.BookSession))
	s.mux.Handle("GET /api/v1/sessions", authed(s.sessions.ListSessions))
	s.mux.Handle("GET /api/v1/sessions/{sessionID}", authed(s.sessions.GetSession))
	s.mux.Handle("POST /api/v1/sessions/{sessionID}/cancel", authed(s.sessions.CancelSession))
	s.mux.Handle("POST /api/v1/sessions/{sessionID}/complete", authed(s.sessions.CompleteSession))
	s.mux.Handle("POST /api/v1/sessions/{sessionID}/annotate", authed(s.sessions.AnnotateSession))

	s.mux.Handle("GET /api/v1/availability", authed(s.sessions.GetAvailability))
	s.mux.Handle("PUT /api/v1/availability", authed(s.sessions.SetAvailability))
}

// Handler returns the server's root handler with request middleware applied.
func (s *Server) Handler() http.Handler {
	return recoverer(s.logger, requestContext(s.logger, s.mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Error("failed to encode JSON response", zap.Error(err))
		}
	}
}
