package authz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookgate/internal/auth"
	"bookgate/internal/observability/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleEncoding(t *testing.T) {
	domain := "built-in"

	rule := NewRule("u1", "book", "write")
	data, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.JSONEq(t, `["u1","book","write"]`, string(data))

	tuple, err := json.Marshal(rule.Tuple())
	require.NoError(t, err)
	assert.JSONEq(t, `["u1","book","write",null,null,null]`, string(tuple))

	rule.V4 = &domain
	data, err = json.Marshal(rule)
	require.NoError(t, err)
	assert.JSONEq(t, `["u1","book","write",null,"built-in"]`, string(data))
}

func TestMiddlewareMapsDecisions(t *testing.T) {
	tests := []struct {
		decision Decision
		status   int
	}{
		{Allow, http.StatusNoContent},
		{Deny, http.StatusForbidden},
		{Unauthorized, http.StatusUnauthorized},
		{Error, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.decision.String(), func(t *testing.T) {
			var got *Request
			authorize := func(req *Request) *Response {
				got = req
				return &Response{Decision: tt.decision}
			}
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

			req := httptest.NewRequest(http.MethodDelete, "/api/books/1", nil)
			req = req.WithContext(auth.ContextWithIdentity(req.Context(), &auth.Identity{ID: "u1"}))
			rec := httptest.NewRecorder()
			Middleware(authorize, "book", []string{"admin"}, logging.Discard(), nil)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, got)
			assert.Equal(t, "u1", got.Identity.ID)
			assert.Equal(t, "book", got.Object)
			assert.Equal(t, []string{"admin"}, got.Actions)
		})
	}
}
