// internal/server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookgate/internal/observability/logging"

	"golang.org/x/sync/errgroup"
)

// Server runs the API listener next to the metrics listener
type Server struct {
	api             *http.Server
	metrics         *http.Server
	logger          *logging.Logger
	shutdownTimeout time.Duration
	onStop          []func() error
}

// Config holds server configuration
type Config struct {
	// Address is the address to listen on
	Address string

	// MetricsAddress is the address to listen on for metrics
	MetricsAddress string

	// TLSConfig enables HTTPS on the API listener when set
	TLSConfig *tls.Config

	// ShutdownTimeout is the maximum time to wait for in-flight requests
	ShutdownTimeout time.Duration
}

// New creates a new server
func New(config Config, handler http.Handler, metricsHandler http.Handler, logger *logging.Logger) *Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metricsHandler)

	return &Server{
		api: &http.Server{
			Addr:              config.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			TLSConfig:         config.TLSConfig,
		},
		metrics: &http.Server{
			Addr:              config.MetricsAddress,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          logger.WithModule("server"),
		shutdownTimeout: config.ShutdownTimeout,
	}
}

// OnStop registers fn to run once both listeners are closed
func (s *Server) OnStop(fn func() error) {
	s.onStop = append(s.onStop, fn)
}

// Run serves until ctx is cancelled or a listener fails, then shuts both
// listeners down and runs the OnStop hooks in registration order
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting metrics server", "address", s.metrics.Addr)
		return serve(s.metrics.ListenAndServe, "metrics server")
	})
	g.Go(func() error {
		if s.api.TLSConfig != nil {
			s.logger.Info("Starting HTTPS server", "address", s.api.Addr)
			return serve(func() error { return s.api.ListenAndServeTLS("", "") }, "HTTPS server")
		}
		s.logger.Info("Starting HTTP server", "address", s.api.Addr)
		return serve(s.api.ListenAndServe, "HTTP server")
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func serve(listen func() error, name string) error {
	if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func (s *Server) shutdown() error {
	s.logger.Info("Stopping servers", "timeout", s.shutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.api.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", logging.Err(err))
		errs = append(errs, err)
	}
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down metrics server", logging.Err(err))
		errs = append(errs, err)
	}
	for _, fn := range s.onStop {
		if err := fn(); err != nil {
			s.logger.Error("Shutdown hook failed", logging.Err(err))
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		s.logger.Info("Servers stopped")
	}
	return errors.Join(errs...)
}
