package config

import (
	"net/url"
	"strconv"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	// Server holds HTTP server configuration
	Server struct {
		// Address is the address to listen on
		Address string
		// ShutdownTimeout is the maximum time to wait for a graceful shutdown
		ShutdownTimeout time.Duration
		// APIPrefix is the path prefix every API route is mounted under
		APIPrefix string
		// CORSAllowedOrigins lists the origins allowed for cross-origin requests
		CORSAllowedOrigins []string
	}

	// Metrics holds metrics server configuration
	Metrics struct {
		// Address is the address to listen on for the metrics server
		Address string
	}

	// TLS holds TLS configuration
	TLS struct {
		// Enabled indicates whether TLS is enabled
		Enabled bool
		// CertPath is the path to the TLS certificate
		CertPath string
		// KeyPath is the path to the TLS key
		KeyPath string
	}

	// Database holds the book store connection settings
	Database struct {
		Host     string
		Port     int
		Name     string
		Username string
		Password string
		SSLMode  string
	}

	// Auth holds identity provider configuration
	Auth struct {
		// EndpointURL is the provider's API base URL (token exchange, enforcement)
		EndpointURL *url.URL
		// FrontEndpointURL is the provider's browser-facing base URL (login page)
		FrontEndpointURL *url.URL
		// CallbackURL is the default redirect target of the login link
		CallbackURL string
		// ClientID is the OAuth2 client ID of this application
		ClientID string
		// ClientSecret is the OAuth2 client secret of this application
		ClientSecret string
		// ApplicationName is sent as the login state
		ApplicationName string
		// PublicKeyPath points to the PEM file holding the token signing key
		PublicKeyPath string
		// CAPath is an optional CA bundle used to trust the provider
		CAPath string
	}

	// Authz holds authorization configuration
	Authz struct {
		// Type is the type of authorizer to use (casdoor, spicedb, claims)
		Type string
		// PermissionModel is the permission the PDP evaluates against
		PermissionModel string
		// Timeout bounds every PDP round trip
		Timeout time.Duration

		// SpiceDB holds SpiceDB configuration
		SpiceDB struct {
			// Endpoint is the SpiceDB endpoint
			Endpoint string
			// Insecure indicates whether to use an insecure connection
			Insecure bool
			// Token is the SpiceDB authentication token
			Token string
			// ResourceID is the SpiceDB object id checked for every resource class
			ResourceID string
			// SubjectType is the SpiceDB subject type
			SubjectType string
		}
	}

	// Observability holds observability configuration
	Observability struct {
		// LogLevel is the minimum log level to emit
		LogLevel string
		// LogFormat is the log format (json, text, console)
		LogFormat string
	}
}

// DatabaseDSN builds the PostgreSQL connection string for the book store
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Database.Username, c.Database.Password),
		Host:   c.Database.Host,
		Path:   "/" + c.Database.Name,
	}
	if c.Database.Port != 0 {
		u.Host = c.Database.Host + ":" + strconv.Itoa(c.Database.Port)
	}
	q := url.Values{}
	if c.Database.SSLMode != "" {
		q.Set("sslmode", c.Database.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
