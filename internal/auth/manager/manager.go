// internal/auth/manager/manager.go
package manager

import (
	"fmt"
	"net/http"

	"bookgate/internal/auth"
	"bookgate/internal/auth/bearer"
	"bookgate/internal/auth/token"
	"bookgate/internal/config"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"
)

// Manager coordinates the authentication stages of a request
type Manager struct {
	logger         *logging.Logger
	authenticators []auth.Authenticator
}

// NewManager creates a new authentication manager
func NewManager(authenticators []auth.Authenticator, logger *logging.Logger) *Manager {
	return &Manager{
		authenticators: authenticators,
		logger:         logger.WithModule("auth.manager"),
	}
}

// Middleware wraps next with every authenticator. The first authenticator
// in the list is the outermost stage.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	handler := next
	for i := len(m.authenticators) - 1; i >= 0; i-- {
		handler = m.authenticators[i].GetMiddleware(handler)
	}
	m.logger.Debug("Authentication chain ready", "stages", m.Names())
	return handler
}

// Names lists the authenticator stages, outermost first
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.authenticators))
	for _, a := range m.authenticators {
		names = append(names, a.Name())
	}
	return names
}

// NewManagerFromConfig loads the issuer key and builds the bearer stage.
// An unreadable key is returned as an error; callers treat it as fatal.
func NewManagerFromConfig(cfg *config.Config, logger *logging.Logger, metrics *metrics.Collector) (*Manager, error) {
	logger = logger.WithModule("auth.factory")

	publicKey, err := token.LoadPublicKey(cfg.Auth.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load token public key: %w", err)
	}
	logger.Info("Loaded token public key", "path", cfg.Auth.PublicKeyPath)

	verifier, err := token.NewVerifier(token.Config{
		PublicKey: publicKey,
		ClientID:  cfg.Auth.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	bearerAuth, err := bearer.New(verifier, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Bearer authenticator: %w", err)
	}
	logger.Info("Bearer authentication enabled")

	return NewManager([]auth.Authenticator{bearerAuth}, logger), nil
}
