package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelStatus    = "status"
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelAuth      = "auth_type"
	LabelSuccess   = "success"
	LabelObject    = "object"
	LabelDecision  = "decision"
	LabelEndpoint  = "endpoint"
	LabelOutcome   = "outcome"
	LabelOperation = "operation"
)

var (
	// RequestsTotal counts all HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgate_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookgate_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	// AuthenticationTotal counts authentication attempts by type and outcome
	AuthenticationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgate_authentication_total",
			Help: "Total number of authentication attempts",
		},
		[]string{LabelAuth, LabelSuccess},
	)

	// AuthorizationTotal counts guard decisions by object and decision
	AuthorizationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgate_authorization_total",
			Help: "Total number of authorization decisions",
		},
		[]string{LabelObject, LabelDecision},
	)

	// ProviderRequestTotal counts calls to the identity and policy provider
	ProviderRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgate_provider_requests_total",
			Help: "Total number of identity and policy provider calls",
		},
		[]string{LabelEndpoint, LabelOutcome},
	)

	// ProviderRequestDuration tracks the latency of provider calls
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookgate_provider_request_duration_seconds",
			Help:    "Duration of identity and policy provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelEndpoint},
	)

	// BookMutationTotal counts committed book mutations
	BookMutationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgate_book_mutations_total",
			Help: "Total number of committed book mutations",
		},
		[]string{LabelOperation},
	)
)

// Collector provides methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request
func (c *Collector) RecordRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	RequestsTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
	RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAuthentication records an authentication attempt
func (c *Collector) RecordAuthentication(authType string, success bool) {
	if c == nil {
		return
	}
	AuthenticationTotal.WithLabelValues(authType, boolToString(success)).Inc()
}

// RecordAuthorization records a guard decision
func (c *Collector) RecordAuthorization(object, decision string) {
	if c == nil {
		return
	}
	AuthorizationTotal.WithLabelValues(object, decision).Inc()
}

// RecordProviderCall records a call to the provider, e.g. enforce, batch-enforce or token
func (c *Collector) RecordProviderCall(endpoint, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	ProviderRequestTotal.WithLabelValues(endpoint, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordBookMutation records a committed create, update or delete
func (c *Collector) RecordBookMutation(operation string) {
	if c == nil {
		return
	}
	BookMutationTotal.WithLabelValues(operation).Inc()
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// boolToString converts a boolean to a string representation
func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
