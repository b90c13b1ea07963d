package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/estimator"
	"github.com/user/mealcal/internal/logging"
)

// Server is the HTTP front end for the estimation pipeline
type Server struct {
	orchestrator  *estimator.Orchestrator
	logger        *logging.Logger
	httpServer    *http.Server
	shutdownGrace time.Duration
}

// New creates a server listening on the configured port
func New(cfg config.ServerConfig, orchestrator *estimator.Orchestrator, logger *logging.Logger) *Server {
	s := &Server{
		orchestrator:  orchestrator,
		logger:        logger.Named("server"),
		shutdownGrace: cfg.GetShutdownTimeout(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ai/calories", s.handleCalories)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetPort()),
		Handler:           s.withRequestLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
	}

	return s
}

// Handler returns the root handler (useful for tests)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
