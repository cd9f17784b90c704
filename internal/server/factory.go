// internal/server/factory.go
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"bookgate/internal/auth/manager"
	"bookgate/internal/auth/oauth"
	"bookgate/internal/authz"
	"bookgate/internal/authz/casdoor"
	"bookgate/internal/authz/claims"
	"bookgate/internal/authz/guard"
	"bookgate/internal/authz/spicedb"
	"bookgate/internal/book"
	"bookgate/internal/config"
	"bookgate/internal/httputils"
	"bookgate/internal/observability"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"
	"bookgate/internal/router"
	"bookgate/internal/store/pg"
	tlsconfig "bookgate/internal/tls"
)

// migrateTimeout bounds the schema bootstrap at start-up
const migrateTimeout = 30 * time.Second

// dialSpiceDB opens the SpiceDB connection
var dialSpiceDB = spicedb.Dial

// NewFromConfig creates a new server from configuration. Resources opened
// here are released by the server on stop, or right away when a later step fails.
func NewFromConfig(ctx context.Context, cfg *config.Config) (srv *Server, err error) {
	var closers []func() error
	defer func() {
		if srv != nil {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	obs, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	var tlsCfg *tls.Config
	if cfg.TLS.Enabled {
		if tlsCfg, err = tlsconfig.ServerConfig(cfg.TLS.CertPath, cfg.TLS.KeyPath, logger); err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
	}

	providerClient, err := tlsconfig.NewHTTPClient(cfg.Auth.CAPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity provider client: %w", err)
	}

	authManager, err := manager.NewManagerFromConfig(cfg, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authentication manager: %w", err)
	}

	authorizer, closeAuthorizer, err := newAuthorizer(cfg, providerClient, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authorizer: %w", err)
	}
	if closeAuthorizer != nil {
		closers = append(closers, closeAuthorizer)
	}

	store, err := pg.Open(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	closers = append(closers, store.Close)
	migrateCtx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		return nil, fmt.Errorf("failed to prepare database: %w", err)
	}
	logger.Info("Database ready", "dsn", logging.RedactStringURL(cfg.DatabaseDSN()))

	oauthCfg := oauth.Config{
		EndpointURL:      cfg.Auth.EndpointURL,
		FrontEndpointURL: cfg.Auth.FrontEndpointURL,
		ClientID:         cfg.Auth.ClientID,
		ClientSecret:     cfg.Auth.ClientSecret,
		ApplicationName:  cfg.Auth.ApplicationName,
		CallbackURL:      cfg.Auth.CallbackURL,
		HTTPClient:       providerClient,
	}
	links, err := oauth.NewLinkBuilder(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize login links: %w", err)
	}
	callback, err := oauth.NewCallbackHandler(oauthCfg, cfg.Authz.Timeout, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OAuth callback: %w", err)
	}

	books := book.NewHandler(store, logger, obs.Metrics)
	apiRouter := router.New(router.Config{
		Prefix:          cfg.Server.APIPrefix,
		ApplicationName: cfg.Auth.ApplicationName,
		LoginLink:       links.Link(""),
		Rules: router.Rules(router.Handlers{
			ListBooks:   books.List,
			GetBook:     books.Get,
			CreateBook:  books.Create,
			ReplaceBook: books.Replace,
			PatchBook:   books.Patch,
			DeleteBook:  books.Delete,
			Login:       links.LoginHandler(),
			Callback:    callback,
		}),
	}, authorizer, logger)

	// observability -> CORS -> authentication -> router (authorization per route)
	var handler http.Handler = authManager.Middleware(apiRouter)
	handler = httputils.CORS(cfg.Server.CORSAllowedOrigins, logger)(handler)
	handler = obs.Middleware(handler)

	srv = New(Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLSConfig:       tlsCfg,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, handler, obs.MetricsHandler(), logger)
	for _, fn := range closers {
		srv.OnStop(fn)
	}

	return srv, nil
}

// newAuthorizer selects the authorizer named by AUTHZ_TYPE. The returned
// close function is nil when the authorizer holds no connection.
func newAuthorizer(cfg *config.Config, client *http.Client, logger *logging.Logger, metrics *metrics.Collector) (authz.Authorizer, func() error, error) {
	switch cfg.Authz.Type {
	case "casdoor":
		enforcer, err := casdoor.New(casdoor.Config{
			EndpointURL:  cfg.Auth.EndpointURL,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			Timeout:      cfg.Authz.Timeout,
			HTTPClient:   client,
		}, logger, metrics)
		if err != nil {
			return nil, nil, err
		}
		g, err := guard.New(enforcer, cfg.Authz.PermissionModel, logger, metrics)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using policy decision point authorization",
			"endpoint", logging.RedactURL(cfg.Auth.EndpointURL),
			"model", cfg.Authz.PermissionModel,
		)
		return g, nil, nil

	case "spicedb":
		spiceCfg := spicedb.Config{
			Endpoint:    cfg.Authz.SpiceDB.Endpoint,
			Insecure:    cfg.Authz.SpiceDB.Insecure,
			Token:       cfg.Authz.SpiceDB.Token,
			ResourceID:  cfg.Authz.SpiceDB.ResourceID,
			SubjectType: cfg.Authz.SpiceDB.SubjectType,
			Timeout:     cfg.Authz.Timeout,
		}
		spiceClient, err := dialSpiceDB(spiceCfg)
		if err != nil {
			return nil, nil, err
		}
		enforcer, err := spicedb.New(spiceCfg, spiceClient, logger, metrics)
		if err != nil {
			_ = spiceClient.Close()
			return nil, nil, err
		}
		g, err := guard.New(enforcer, cfg.Authz.PermissionModel, logger, metrics)
		if err != nil {
			_ = spiceClient.Close()
			return nil, nil, err
		}
		logger.Info("Using SpiceDB authorization",
			"endpoint", cfg.Authz.SpiceDB.Endpoint,
			"insecure", cfg.Authz.SpiceDB.Insecure,
		)
		return g, spiceClient.Close, nil

	case "claims":
		logger.Info("Using token claims authorization")
		return claims.New(logger, metrics), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown authz type %q", cfg.Authz.Type)
	}
}
