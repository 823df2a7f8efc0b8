package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"labelpress/internal/audit"
	"labelpress/internal/auth"
	"labelpress/internal/config"
	"labelpress/internal/constants"
	"labelpress/internal/logger"
	"labelpress/internal/progress"
	"labelpress/internal/upload"
)

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	httpServer  *http.Server
	logger      *logger.Logger
	uploads     *upload.Service
	broker      *progress.Broker
	auditLogger *audit.Logger
	startedAt   time.Time
}

// NewServer wires the router, middleware chain, and handlers.
func NewServer(cfg *config.Config, log *logger.Logger, uploads *upload.Service, broker *progress.Broker, auditLogger *audit.Logger, keys *auth.Store) *Server {
	s := &Server{
		logger:      log,
		uploads:     uploads,
		broker:      broker,
		auditLogger: auditLogger,
		startedAt:   time.Now(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{constants.HeaderAuthorization, constants.HeaderXAPIKey, constants.HeaderContentType},
		AllowCredentials: false,
	}))

	authMW := auth.NewMiddleware(keys, log)
	r.Use(authMW.Authenticate)

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/upload", s.handleUpload)
	r.Get("/api/progress/{id}", s.handleProgress)
	r.Get("/api/audit", s.handleAudit)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  0, // no timeout for streaming uploads
		WriteTimeout: 0, // no timeout for SSE progress streams
		IdleTimeout:  constants.HTTPIdleTimeout,
	}

	return s
}

// Start runs the server and blocks until a shutdown signal arrives.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-stop:
		s.logger.Info("Received signal %v, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeoutSecs*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Shutdown error: %v", err)
	}

	if s.auditLogger != nil {
		s.auditLogger.Stop()
	}

	s.logger.Info("Server stopped")
	return nil
}

// Handler returns the HTTP handler for testing purposes.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// getClientIP extracts the client address for audit entries. RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
