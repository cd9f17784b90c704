package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"bookgate/internal/observability/logging"
)

// LoadCertPool reads a PEM bundle into a certificate pool
func LoadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("failed to parse CA file: %s", path)
	}
	return pool, nil
}

// ClientConfig returns the TLS configuration for outbound calls to the
// identity provider. An empty caPath keeps the system roots.
func ClientConfig(caPath string, logger *logging.Logger) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if caPath == "" {
		return tlsConfig, nil
	}

	pool, err := LoadCertPool(caPath)
	if err != nil {
		return nil, err
	}
	tlsConfig.RootCAs = pool
	logger.Debug("Provider CA loaded", "path", caPath)
	return tlsConfig, nil
}

// NewHTTPClient returns an HTTP client for the identity provider. Request
// deadlines come from the caller's context.
func NewHTTPClient(caPath string, logger *logging.Logger) (*http.Client, error) {
	tlsConfig, err := ClientConfig(caPath, logger)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return &http.Client{Transport: transport}, nil
}
