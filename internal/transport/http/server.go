// Package http serves the admin web panel: login, a subscriber dashboard
// and the broadcast form, plus liveness and metrics endpoints.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aliexpress-dz/pricebot/internal/repository"
	"github.com/aliexpress-dz/pricebot/internal/service"
)

// Server represents the admin panel HTTP server
type Server struct {
	handler *Handler
	server  *http.Server
	logger  *zap.Logger
	port    string
}

// NewServer creates a new admin panel server
func NewServer(admins repository.AdminRepository, users repository.UserRepository, broadcaster service.Broadcaster, port string, logger *zap.Logger) *Server {
	sessions := NewSessionStore()
	handler := NewHandler(admins, users, broadcaster, sessions, logger)

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Get("/", handler.Status)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/admin/login", handler.LoginForm)
	r.Post("/admin/login", handler.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(sessions))
		r.Get("/admin/dashboard", handler.Dashboard)
		r.Post("/admin/broadcast", handler.Broadcast)
		r.Post("/admin/logout", handler.Logout)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  server,
		logger:  logger,
		port:    port,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("admin panel listening", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("admin panel shutting down")
	return s.server.Shutdown(ctx)
}

// Handler returns the server handler (useful for testing)
func (s *Server) Handler() *Handler {
	return s.handler
}

// Router exposes the configured routes (useful for testing)
func (s *Server) Router() http.Handler {
	return s.server.Handler
}
