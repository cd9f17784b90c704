package server

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"bookgate/internal/authz/claims"
	"bookgate/internal/authz/guard"
	"bookgate/internal/authz/spicedb"
	"bookgate/internal/config"
	"bookgate/internal/observability/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authzConfig(t *testing.T, kind string) *config.Config {
	t.Helper()
	endpoint, err := url.Parse("http://casdoor:8000/")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.EndpointURL = endpoint
	cfg.Auth.ClientID = "client-id"
	cfg.Auth.ClientSecret = "client-secret"
	cfg.Authz.Type = kind
	cfg.Authz.PermissionModel = "built-in/book-permission"
	cfg.Authz.Timeout = time.Second
	cfg.Authz.SpiceDB.Endpoint = "127.0.0.1:1"
	cfg.Authz.SpiceDB.Insecure = true
	cfg.Authz.SpiceDB.Token = "preshared"
	cfg.Authz.SpiceDB.ResourceID = "library"
	return cfg
}

// recordDials makes newAuthorizer hand out clients the test can inspect
func recordDials(t *testing.T) *[]*spicedb.Client {
	t.Helper()
	var dialed []*spicedb.Client
	orig := dialSpiceDB
	dialSpiceDB = func(c spicedb.Config) (*spicedb.Client, error) {
		client, err := spicedb.Dial(c)
		if client != nil {
			dialed = append(dialed, client)
		}
		return client, err
	}
	t.Cleanup(func() { dialSpiceDB = orig })
	return &dialed
}

func TestNewAuthorizerSelectsBackend(t *testing.T) {
	a, closeFn, err := newAuthorizer(authzConfig(t, "casdoor"), http.DefaultClient, logging.Discard(), nil)
	require.NoError(t, err)
	assert.IsType(t, &guard.Guard{}, a)
	assert.Nil(t, closeFn)

	a, closeFn, err = newAuthorizer(authzConfig(t, "claims"), http.DefaultClient, logging.Discard(), nil)
	require.NoError(t, err)
	assert.IsType(t, &claims.Authorizer{}, a)
	assert.Nil(t, closeFn)
}

func TestNewAuthorizerSpiceDBReturnsCloser(t *testing.T) {
	dialed := recordDials(t)

	a, closeFn, err := newAuthorizer(authzConfig(t, "spicedb"), http.DefaultClient, logging.Discard(), nil)
	require.NoError(t, err)
	assert.IsType(t, &guard.Guard{}, a)
	require.NotNil(t, closeFn)
	require.Len(t, *dialed, 1)

	require.NoError(t, closeFn())
	assert.Error(t, (*dialed)[0].Close(), "connection already closed by the returned closer")
}

func TestNewAuthorizerSpiceDBClosesOnFailure(t *testing.T) {
	dialed := recordDials(t)
	cfg := authzConfig(t, "spicedb")
	cfg.Authz.SpiceDB.ResourceID = ""

	_, closeFn, err := newAuthorizer(cfg, http.DefaultClient, logging.Discard(), nil)
	require.Error(t, err)
	assert.Nil(t, closeFn)
	require.Len(t, *dialed, 1)
	assert.Error(t, (*dialed)[0].Close(), "connection must not outlive a failed setup")
}

func TestNewAuthorizerRejectsUnknownType(t *testing.T) {
	_, _, err := newAuthorizer(authzConfig(t, "opa"), http.DefaultClient, logging.Discard(), nil)
	assert.Error(t, err)
}

func TestNewAuthorizerPropagatesEnforcerErrors(t *testing.T) {
	cfg := authzConfig(t, "casdoor")
	cfg.Auth.ClientSecret = ""

	_, _, err := newAuthorizer(cfg, http.DefaultClient, logging.Discard(), nil)
	assert.Error(t, err)
}
