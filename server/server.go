// Package server exposes the worksheet generator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/worksheets"
	"github.com/flanksource/worksheets/api"
)

// Generator renders one worksheet, *worksheets.Generator in production
type Generator interface {
	Generate(ctx context.Context, doc *api.Worksheet) ([]byte, error)
}

// Server is the HTTP server of the PDF endpoint
type Server struct {
	httpServer *http.Server
	generator  Generator
	config     worksheets.ServerConfig
	addr       string

	// mu protects server state
	mu      sync.RWMutex
	running bool
}

// New creates a server, zero config values fall back to the defaults
func New(generator Generator, config worksheets.ServerConfig) *Server {
	defaults := worksheets.DefaultConfig().Server
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}

	return &Server{
		generator: generator,
		config:    config,
		addr:      config.Addr,
	}
}

// Config returns the effective server configuration
func (s *Server) Config() worksheets.ServerConfig {
	return s.config
}

// Handler returns the routes wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-pdf", s.handleGeneratePDF)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// last applied is outermost
	var handler http.Handler = mux
	if len(s.config.CORSOrigins) > 0 {
		handler = CORSMiddleware(s.config.CORSOrigins)(handler)
	}
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}

// Address returns the address the server listens on, the bound address
// once started
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start listens and serves in a goroutine, returning once the listener is
// bound
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	s.addr = listener.Addr().String()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
	}
	s.running = true

	go func() {
		logger.Infof("Listening on %s", s.addr)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded
// by ctx and the configured shutdown timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	logger.Infof("Shutting down server on %s", s.addr)
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
