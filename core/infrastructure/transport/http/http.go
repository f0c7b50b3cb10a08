// Package http serves the MCP tools over stateless streamable HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hyperterse/dbmcp/core/infrastructure/auth"
	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	"github.com/hyperterse/dbmcp/core/infrastructure/transport/http/middleware"
	"github.com/hyperterse/dbmcp/core/runtime/mcp"
)

const rateLimitWindow = time.Minute

// Options configures the HTTP transport.
type Options struct {
	Port int
	Auth *auth.Validator
	// RateLimiter is optional; RateLimit is requests per minute per client.
	RateLimiter middleware.RateLimiter
	RateLimit   int
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	port   int
}

// NewServer creates the router with the full middleware chain and routes.
func NewServer(adapter *mcp.Adapter, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = 8080
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recover)
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing)
	r.Use(middleware.Origin)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return middleware.AllowedOrigin(origin)
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "MCP-Protocol-Version", "Mcp-Session-Id", "Last-Event-ID"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))

	RegisterRoutes(r, adapter, opts)

	return &Server{
		router: r,
		port:   opts.Port,
	}
}

// Router returns the chi router
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run listens on the configured port and serves until ctx is cancelled, then
// shuts down gracefully. A bind failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	log := logging.New("http")

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // event-stream responses can be long-lived
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(listener)
	}()
	log.Successf("HTTP server listening on http://127.0.0.1:%d/message", s.port)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop() error {
	log := logging.New("http")
	log.Infof("Shutting down HTTP server")

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
		if closeErr := s.server.Close(); closeErr != nil {
			log.Errorf("Error force closing HTTP server: %v", closeErr)
		}
		return err
	}

	log.Infof("HTTP server stopped")
	return nil
}
