// internal/tls/config.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"bookgate/internal/observability/logging"
)

// expiryWarning is how close to NotAfter a serving certificate starts to be reported
const expiryWarning = 30 * 24 * time.Hour

// ServerConfig loads the serving key pair for the API listener
func ServerConfig(certPath, keyPath string, logger *logging.Logger) (*tls.Config, error) {
	logger = logger.WithModule("tls")

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	if remaining := time.Until(leaf.NotAfter); remaining < expiryWarning {
		logger.Warn("Server certificate expires soon",
			"subject", leaf.Subject.String(),
			"not_after", leaf.NotAfter,
		)
	}
	logger.Info("Loaded server certificate", "cert", certPath, "subject", leaf.Subject.String())

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
	}, nil
}
