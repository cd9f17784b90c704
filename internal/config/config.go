package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every setting name when read from the environment
const EnvPrefix = "BOOKGATE"

// Load loads the configuration from all sources and returns the merged result
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	Settings.PopulateViperDefaults(v)

	// Set up environment variable handling
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Load from config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// It's okay if the config file doesn't exist, but other errors should be reported
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if missing := Settings.Missing(v); len(missing) > 0 {
		return nil, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	config := &Config{}

	// Server
	config.Server.Address = v.GetString("SERVER_ADDR")
	shutdownTimeout, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	config.Server.ShutdownTimeout = shutdownTimeout
	config.Server.APIPrefix = strings.TrimSuffix(v.GetString("API_PREFIX"), "/")
	config.Server.CORSAllowedOrigins = v.GetStringSlice("CORS_ALLOWED_ORIGINS")

	config.Metrics.Address = v.GetString("METRICS_ADDR")

	// TLS
	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")

	// Database
	config.Database.Host = v.GetString("DB_HOST")
	config.Database.Port = v.GetInt("DB_PORT")
	config.Database.Name = v.GetString("DB_NAME")
	config.Database.Username = v.GetString("DB_USERNAME")
	config.Database.Password = v.GetString("DB_PASSWORD")
	config.Database.SSLMode = v.GetString("DB_SSLMODE")

	// Identity provider
	if config.Auth.EndpointURL, err = parseBaseURL(v.GetString("AUTH_ENDPOINT_URL")); err != nil {
		return nil, fmt.Errorf("invalid auth endpoint URL: %w", err)
	}
	if config.Auth.FrontEndpointURL, err = parseBaseURL(v.GetString("AUTH_FRONT_ENDPOINT_URL")); err != nil {
		return nil, fmt.Errorf("invalid auth front endpoint URL: %w", err)
	}
	config.Auth.CallbackURL = v.GetString("AUTH_CALLBACK_URL")
	if _, err := parseBaseURL(config.Auth.CallbackURL); err != nil {
		return nil, fmt.Errorf("invalid auth callback URL: %w", err)
	}
	config.Auth.ClientID = v.GetString("AUTH_CLIENT_ID")
	config.Auth.ClientSecret = v.GetString("AUTH_CLIENT_SECRET")
	config.Auth.ApplicationName = v.GetString("AUTH_APPLICATION_NAME")
	config.Auth.PublicKeyPath = v.GetString("AUTH_PUBLIC_KEY_PATH")
	config.Auth.CAPath = v.GetString("AUTH_CA_PATH")

	// Authorization
	config.Authz.Type = strings.ToLower(v.GetString("AUTHZ_TYPE"))
	config.Authz.PermissionModel = v.GetString("AUTHZ_PERMISSION_MODEL")
	authzTimeout, err := time.ParseDuration(v.GetString("AUTHZ_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid authz timeout: %w", err)
	}
	config.Authz.Timeout = authzTimeout
	config.Authz.SpiceDB.Endpoint = v.GetString("AUTHZ_SPICEDB_ENDPOINT")
	config.Authz.SpiceDB.Insecure = v.GetBool("AUTHZ_SPICEDB_INSECURE")
	config.Authz.SpiceDB.Token = v.GetString("AUTHZ_SPICEDB_TOKEN")
	config.Authz.SpiceDB.ResourceID = v.GetString("AUTHZ_SPICEDB_RESOURCE_ID")
	config.Authz.SpiceDB.SubjectType = v.GetString("AUTHZ_SPICEDB_SUBJECT_TYPE")

	// Observability
	config.Observability.LogLevel = v.GetString("LOG_LEVEL")
	config.Observability.LogFormat = strings.ToLower(v.GetString("LOG_FORMAT"))

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// parseBaseURL parses an absolute http(s) URL
func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	if !strings.HasPrefix(cfg.Server.APIPrefix, "/") && cfg.Server.APIPrefix != "" {
		return fmt.Errorf("API prefix must start with '/': %q", cfg.Server.APIPrefix)
	}

	// Validate TLS configuration
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return fmt.Errorf("TLS certificate path is required when TLS is enabled")
		}
		if cfg.TLS.KeyPath == "" {
			return fmt.Errorf("TLS key path is required when TLS is enabled")
		}
		if _, err := os.Stat(cfg.TLS.CertPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", cfg.TLS.CertPath)
		}
		if _, err := os.Stat(cfg.TLS.KeyPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", cfg.TLS.KeyPath)
		}
	}

	if cfg.Auth.PublicKeyPath == "" {
		return fmt.Errorf("token public key path is required")
	}

	return validateAuthzConfig(cfg)
}

// validateAuthzConfig validates authorization configuration
func validateAuthzConfig(cfg *Config) error {
	if cfg.Authz.Timeout <= 0 {
		return fmt.Errorf("authz timeout must be positive")
	}

	switch cfg.Authz.Type {
	case "casdoor":
		if cfg.Authz.PermissionModel == "" {
			return fmt.Errorf("permission model is required when using casdoor authorization")
		}
	case "spicedb":
		if cfg.Authz.SpiceDB.Token == "" {
			return fmt.Errorf("SpiceDB token is required when using SpiceDB authorization")
		}
		if cfg.Authz.SpiceDB.ResourceID == "" {
			return fmt.Errorf("SpiceDB resource ID is required when using SpiceDB authorization")
		}
	case "claims":
	default:
		return fmt.Errorf("unknown authz type %q", cfg.Authz.Type)
	}

	return nil
}
