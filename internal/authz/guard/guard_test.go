package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookgate/internal/auth"
	"bookgate/internal/authz"
	"bookgate/internal/observability/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted is an Enforcer returning fixed verdicts and recording its calls
type scripted struct {
	verdicts []bool
	err      error

	batchCalls  int
	singleCalls int
	rules       []authz.Rule
	model       string
}

func (s *scripted) Enforce(context.Context, string, authz.Rule) (bool, error) {
	s.singleCalls++
	return false, errors.New("guard must not use single enforcement")
}

func (s *scripted) BatchEnforce(_ context.Context, model string, rules []authz.Rule) ([]bool, error) {
	s.batchCalls++
	s.model = model
	s.rules = rules
	return s.verdicts, s.err
}

func newGuard(t *testing.T, e authz.Enforcer) *Guard {
	t.Helper()
	g, err := New(e, "built-in/book-permission", logging.Discard(), nil)
	require.NoError(t, err)
	return g
}

var alice = &auth.Identity{ID: "u1", Username: "alice"}

func TestCheckBuildsOneRulePerAction(t *testing.T) {
	e := &scripted{verdicts: []bool{true, true}}
	g := newGuard(t, e)

	require.NoError(t, g.Check(context.Background(), alice, "book", "write", "admin"))

	assert.Equal(t, 1, e.batchCalls)
	assert.Zero(t, e.singleCalls)
	assert.Equal(t, "built-in/book-permission", e.model)
	assert.Equal(t, []authz.Rule{
		authz.NewRule("u1", "book", "write"),
		authz.NewRule("u1", "book", "admin"),
	}, e.rules)
}

func TestCheckDeniesUnlessExactlyAllTrue(t *testing.T) {
	tests := map[string][]bool{
		"any false":     {true, false},
		"all false":     {false, false},
		"empty":         {},
		"nil":           nil,
		"short":         {true},
		"long":          {true, true, true},
		"leading false": {false, true},
	}

	for name, verdicts := range tests {
		t.Run(name, func(t *testing.T) {
			e := &scripted{verdicts: verdicts}
			err := newGuard(t, e).Check(context.Background(), alice, "book", "read", "write")
			assert.True(t, errors.Is(err, authz.ErrForbidden), "got %v", err)
			assert.Equal(t, 1, e.batchCalls)
		})
	}
}

func TestCheckWithoutIdentitySkipsEnforcer(t *testing.T) {
	e := &scripted{verdicts: []bool{true}}
	g := newGuard(t, e)

	for _, identity := range []*auth.Identity{nil, {ID: ""}} {
		err := g.Check(context.Background(), identity, "book", "write")
		assert.True(t, errors.Is(err, auth.ErrUnauthorized))
	}
	assert.Zero(t, e.batchCalls)
}

func TestCheckPropagatesBackendError(t *testing.T) {
	e := &scripted{err: fmt.Errorf("%w: status \"error\"", authz.ErrPolicyBackend)}
	err := newGuard(t, e).Check(context.Background(), alice, "book", "write")

	assert.True(t, errors.Is(err, authz.ErrPolicyBackend))
	assert.False(t, errors.Is(err, authz.ErrForbidden))

	e = &scripted{err: context.Canceled}
	err = newGuard(t, e).Check(context.Background(), alice, "book", "write")
	assert.True(t, errors.Is(err, authz.ErrPolicyBackend))
}

func TestCheckWithoutActionsDenies(t *testing.T) {
	e := &scripted{verdicts: []bool{}}
	err := newGuard(t, e).Check(context.Background(), alice, "book")
	assert.True(t, errors.Is(err, authz.ErrForbidden))
	assert.Zero(t, e.batchCalls)
}

func TestMiddlewareStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		identity *auth.Identity
		enforcer *scripted
		status   int
		reached  bool
	}{
		{"allowed", alice, &scripted{verdicts: []bool{true}}, http.StatusCreated, true},
		{"denied", alice, &scripted{verdicts: []bool{false}}, http.StatusForbidden, false},
		{"anonymous", nil, &scripted{verdicts: []bool{true}}, http.StatusUnauthorized, false},
		{"backend down", alice, &scripted{err: authz.ErrPolicyBackend}, http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusCreated)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/books/", nil)
			if tt.identity != nil {
				req = req.WithContext(auth.ContextWithIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			newGuard(t, tt.enforcer).Middleware("book", "write")(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.reached, reached)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.Zero(t, tt.enforcer.batchCalls)
			}
		})
	}
}
