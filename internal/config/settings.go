package config

import "github.com/spf13/viper"

// SettingType represents the type of a setting
type SettingType string

const (
	// String type for string settings
	String SettingType = "string"
	// Bool type for boolean settings
	Bool SettingType = "bool"
	// Int type for integer settings
	Int SettingType = "int"
	// StringSlice type for string slice settings
	StringSlice SettingType = "stringSlice"
)

// Setting defines a configuration setting
type Setting struct {
	// Name is the name of the setting
	Name string
	// Short is a short description of the setting
	Short string
	// Type is the type of the setting
	Type SettingType
	// Default is the default value of the setting
	Default interface{}
	// Required indicates whether the setting must be set explicitly
	Required bool
}

// SettingList is a list of settings
type SettingList []Setting

// PopulateViperDefaults sets default values for all settings in Viper
func (sl SettingList) PopulateViperDefaults(v *viper.Viper) {
	for _, s := range sl {
		v.SetDefault(s.Name, s.Default)
	}
}

// Missing returns the names of required settings that resolve to an empty value
func (sl SettingList) Missing(v *viper.Viper) []string {
	var missing []string
	for _, s := range sl {
		if !s.Required {
			continue
		}
		switch s.Type {
		case StringSlice:
			if len(v.GetStringSlice(s.Name)) == 0 {
				missing = append(missing, s.Name)
			}
		default:
			if v.GetString(s.Name) == "" {
				missing = append(missing, s.Name)
			}
		}
	}
	return missing
}

// Settings defines all application settings
var Settings = SettingList{
	// Server settings
	{
		Name:    "SERVER_ADDR",
		Short:   "Address on which the server listens",
		Type:    String,
		Default: ":8000",
	},
	{
		Name:    "METRICS_ADDR",
		Short:   "Address on which the metrics server listens",
		Type:    String,
		Default: ":9090",
	},
	{
		Name:    "SHUTDOWN_TIMEOUT",
		Short:   "Maximum time to wait for graceful shutdown",
		Type:    String,
		Default: "30s",
	},
	{
		Name:    "API_PREFIX",
		Short:   "Path prefix of the API routes",
		Type:    String,
		Default: "/api",
	},
	{
		Name:    "CORS_ALLOWED_ORIGINS",
		Short:   "Origins allowed to call the API from a browser",
		Type:    StringSlice,
		Default: []string{"*"},
	},

	// TLS settings
	{
		Name:    "TLS_ENABLED",
		Short:   "Enable TLS for the server",
		Type:    Bool,
		Default: false,
	},
	{
		Name:    "TLS_CERT_PATH",
		Short:   "Path to TLS certificate file",
		Type:    String,
		Default: "",
	},
	{
		Name:    "TLS_KEY_PATH",
		Short:   "Path to TLS key file",
		Type:    String,
		Default: "",
	},

	// Database settings
	{
		Name:    "DB_HOST",
		Short:   "PostgreSQL host",
		Type:    String,
		Default: "localhost",
	},
	{
		Name:    "DB_PORT",
		Short:   "PostgreSQL port",
		Type:    Int,
		Default: 5432,
	},
	{
		Name:     "DB_NAME",
		Short:    "PostgreSQL database name",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:     "DB_USERNAME",
		Short:    "PostgreSQL user",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:     "DB_PASSWORD",
		Short:    "PostgreSQL password",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:    "DB_SSLMODE",
		Short:   "PostgreSQL sslmode",
		Type:    String,
		Default: "disable",
	},

	// Identity provider
	{
		Name:     "AUTH_ENDPOINT_URL",
		Short:    "Identity provider API URL",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:     "AUTH_FRONT_ENDPOINT_URL",
		Short:    "Identity provider login page URL",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:     "AUTH_CALLBACK_URL",
		Short:    "Default OAuth2 redirect URI",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:     "AUTH_CLIENT_ID",
		Short:    "OAuth2 client ID",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:     "AUTH_CLIENT_SECRET",
		Short:    "OAuth2 client secret",
		Type:     String,
		Default:  "",
		Required: true,
	},
	{
		Name:    "AUTH_APPLICATION_NAME",
		Short:   "Application name sent as the login state",
		Type:    String,
		Default: "demo-app",
	},
	{
		Name:    "AUTH_PUBLIC_KEY_PATH",
		Short:   "PEM file with the token signing certificate or public key",
		Type:    String,
		Default: "token_jwt_key.pem",
	},
	{
		Name:    "AUTH_CA_PATH",
		Short:   "CA bundle used to verify the identity provider",
		Type:    String,
		Default: "",
	},

	// Authorization
	{
		Name:    "AUTHZ_TYPE",
		Short:   "Type of authorizer to use (casdoor, spicedb, claims)",
		Type:    String,
		Default: "casdoor",
	},
	{
		Name:    "AUTHZ_PERMISSION_MODEL",
		Short:   "Permission evaluated by the policy decision point",
		Type:    String,
		Default: "",
	},
	{
		Name:    "AUTHZ_TIMEOUT",
		Short:   "Timeout of a single policy decision round trip",
		Type:    String,
		Default: "10s",
	},
	{
		Name:    "AUTHZ_SPICEDB_ENDPOINT",
		Short:   "SpiceDB endpoint",
		Type:    String,
		Default: "localhost:50051",
	},
	{
		Name:    "AUTHZ_SPICEDB_INSECURE",
		Short:   "Use insecure connection to SpiceDB",
		Type:    Bool,
		Default: false,
	},
	{
		Name:    "AUTHZ_SPICEDB_TOKEN",
		Short:   "SpiceDB authentication token",
		Type:    String,
		Default: "",
	},
	{
		Name:    "AUTHZ_SPICEDB_RESOURCE_ID",
		Short:   "SpiceDB object id checked for every resource class",
		Type:    String,
		Default: "",
	},
	{
		Name:    "AUTHZ_SPICEDB_SUBJECT_TYPE",
		Short:   "SpiceDB subject type",
		Type:    String,
		Default: "user",
	},

	// Observability
	{
		Name:    "LOG_LEVEL",
		Short:   "Logging level",
		Type:    String,
		Default: "info",
	},
	{
		Name:    "LOG_FORMAT",
		Short:   "Logging format (json, text, console)",
		Type:    String,
		Default: "json",
	},
}
