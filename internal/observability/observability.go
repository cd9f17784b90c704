// internal/observability/observability.go
package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookgate/internal/config"
	"bookgate/internal/httputils"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"
)

// TraceHeader carries the request trace id in both directions
const TraceHeader = "X-Trace-ID"

// Provider bundles the process logger and metrics
type Provider struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// NewProvider creates the logger and metrics collector described by cfg
func NewProvider(cfg *config.Config) (*Provider, error) {
	logger, err := logging.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}
	return &Provider{Logger: logger, Metrics: metrics.NewCollector()}, nil
}

// Middleware gives every request a trace scoped logger, echoes the trace id
// and records the outcome once the handler returns
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := strings.TrimSpace(r.Header.Get(TraceHeader))
		if traceID == "" || len(traceID) > 64 {
			traceID = logging.NewID()
		}
		logger := p.Logger.WithTracing(traceID)

		ctx := logging.ContextWithTraceID(r.Context(), traceID)
		ctx = logging.ContextWithLogger(ctx, logger)

		rec := httputils.NewStatusRecorder(w)
		rec.Header().Set(TraceHeader, traceID)

		logger.Debug("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		p.Metrics.RecordRequest(r.Method, routeLabel(r.URL.Path), rec.Status(), duration)

		level := logger.Info
		if rec.Status() >= http.StatusInternalServerError {
			level = logger.Warn
		}
		level("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status(),
			"duration_ms", duration.Milliseconds(),
			"bytes_written", rec.Written(),
		)
	})
}

// routeLabel folds numeric path segments so book ids do not become metric labels
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// MetricsHandler returns the Prometheus scrape handler
func (p *Provider) MetricsHandler() http.Handler {
	return metrics.Handler()
}
