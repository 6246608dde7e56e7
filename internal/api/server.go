package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/bonsai-go/internal/api/middleware"
	v1 "github.com/tphakala/bonsai-go/internal/api/v1"
	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
)

// Server is the HTTP server of the bonsai tracker.
type Server struct {
	echo      *echo.Echo
	config    *Config
	service   *collection.Service
	metrics   *metrics.HTTPMetrics
	version   string
	startTime time.Time

	controller *v1.Controller
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithMetrics records request metrics.
func WithMetrics(m *metrics.HTTPMetrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a server for service with the given settings and options.
func New(settings *conf.Settings, service *collection.Service, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		service:   service,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	GetLogger().Debug("HTTP server initialized", logger.String("address", config.Listen))
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewMetrics(s.metrics))
	s.echo.Use(mw.NewRequestLogger(GetLogger()))

	security := mw.SecurityConfig{AllowedOrigins: s.config.AllowedOrigins}
	s.echo.Use(mw.NewCORS(security))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders(security))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.controller = v1.New(s.echo, s.service)
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.version,
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln

	errCh := make(chan error, 1)
	go func() {
		GetLogger().Info("HTTP API listening", logger.String("address", ln.Addr().String()))
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	GetLogger().Info("HTTP API stopped")
	return nil
}

// Echo returns the underlying Echo instance, for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
