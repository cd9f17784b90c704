// internal/auth/bearer/authenticator.go
package bearer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bookgate/internal/auth"
	"bookgate/internal/httputils"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"
)

// TokenVerifier turns a raw bearer credential into an identity
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.Identity, error)
}

// Authenticator implements Bearer token authentication
type Authenticator struct {
	logger   *logging.Logger
	metrics  *metrics.Collector
	verifier TokenVerifier
}

// New creates a new Bearer authenticator
func New(verifier TokenVerifier, logger *logging.Logger, metrics *metrics.Collector) (*Authenticator, error) {
	if verifier == nil {
		return nil, errors.New("bearer authentication requires a token verifier")
	}

	return &Authenticator{
		logger:   logger.WithModule("auth.bearer"),
		metrics:  metrics,
		verifier: verifier,
	}, nil
}

// Name returns the name of this authenticator
func (a *Authenticator) Name() string {
	return string(auth.AuthTypeBearer)
}

// GetMiddleware returns an http.Handler middleware that performs Bearer authentication.
//
// Requests without a bearer credential continue anonymously; the decision to
// reject them belongs to the authorization stage. A presented credential that
// fails verification ends the request with 401.
func (a *Authenticator) GetMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx, a.logger)

		if identity := auth.IdentityFromContext(ctx); identity != nil {
			logger.Debug("Skipping Bearer: identity already set", "subject", logging.Subject(identity.ID))
			next.ServeHTTP(w, r)
			return
		}

		tokenStr, ok := extractToken(r.Header.Get("Authorization"))
		if !ok {
			logger.Debug("No Bearer token found, continuing anonymously")
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.verifier.Verify(ctx, tokenStr)
		if err != nil {
			logger.Warn("Bearer token verification failed", logging.Err(err))
			a.metrics.RecordAuthentication(a.Name(), false)
			httputils.WriteUnauthorized(w)
			return
		}

		logger.Debug("Bearer token valid", "subject", logging.Subject(identity.ID), "path", r.URL.Path)
		a.metrics.RecordAuthentication(a.Name(), true)

		ctx = auth.ContextWithIdentity(ctx, identity)
		ctx = auth.ContextWithAuthType(ctx, auth.AuthTypeBearer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken returns the credential of a "Bearer" authorization header.
// The scheme is matched case-insensitively.
func extractToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
