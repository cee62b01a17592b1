package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cosmictunes/cosmic-wrapped/internal/store"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration and dependencies.
type ServerConfig struct {
	Addr        string
	LibraryPath string

	Auth     OAuthService
	Profiles ProfileService
	Builder  WrapBuilder

	Users        store.UserStore
	Wraps        store.WrapStore
	SessionStore store.SessionStore

	Logger *log.Logger
}

// Server is the HTTP server for the JSON API.
type Server struct {
	router   chi.Router
	server   *http.Server
	sessions *Sessions
	handlers *Handlers
	logger   *log.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.LibraryPath == "" {
		cfg.LibraryPath = "/api/wrapped"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	sessions := NewSessions(cfg.SessionStore)
	handlers := NewHandlers(cfg.Auth, cfg.Profiles, cfg.Builder, cfg.Users, cfg.Wraps, sessions, logger, cfg.LibraryPath)

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		sessions: sessions,
		handlers: handlers,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(rateLimitMiddleware(newIPRateLimiter(60, time.Minute, 10, 5*time.Minute)))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	// Account
	s.router.Post("/api/signup", h.Signup)
	s.router.Post("/api/login", h.Login)
	s.router.Post("/api/logout", h.Logout)
	s.router.Post("/api/forgot-password", h.ForgotPassword)
	s.router.Delete("/api/account", h.DeleteAccount)

	// Spotify link
	s.router.Get("/auth/spotify/login", h.SpotifyLogin)
	s.router.Get("/auth/spotify/callback", h.SpotifyCallback)

	// Wrapped snapshots
	s.router.Post("/api/wrapped/{timeRange}/{limit}", h.MakeWrapped)
	s.router.Get("/api/wrapped", h.ListWrapped)
	s.router.Get("/api/wrapped/{timestamp}", h.GetWrapped)
	s.router.Delete("/api/wrapped/{timestamp}", h.DeleteWrapped)
}

// Router returns the configured router, used by tests to serve requests
// without binding a socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
