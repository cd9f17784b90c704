package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bookgate/internal/observability/logging"

	"github.com/stretchr/testify/assert"
)

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/books/":       "/api/books/",
		"/api/books/42":     "/api/books/:id",
		"/api/books/42/":    "/api/books/:id/",
		"/api/auth/profile": "/api/auth/profile",
		"/":                 "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, routeLabel(in), in)
	}
}

func TestMiddlewarePropagatesTraceID(t *testing.T) {
	p := &Provider{Logger: logging.Discard()}

	var seen string
	var scoped *logging.Logger
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.TraceID(r.Context())
		scoped = logging.FromContext(r.Context(), nil)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/books/7", nil)
	req.Header.Set(TraceHeader, "trace-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-abc", seen)
	assert.NotNil(t, scoped)
	assert.Equal(t, "trace-abc", rec.Header().Get(TraceHeader))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareGeneratesTraceID(t *testing.T) {
	p := &Provider{Logger: logging.Discard()}
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, rec.Header().Get(TraceHeader), 36)
	assert.Equal(t, http.StatusOK, rec.Code)
}
