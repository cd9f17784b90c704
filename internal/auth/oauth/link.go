// Package oauth builds the provider login link and completes the
// authorization code flow.
package oauth

import (
	"errors"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

const (
	authorizePath = "login/oauth/authorize"
	tokenPath     = "api/login/oauth/access_token"

	defaultResponseType = "code"
	defaultScope        = "read"
)

// Config holds the OAuth2 client settings shared by the link builder and
// the callback handler
type Config struct {
	// EndpointURL is the provider API base URL (token endpoint)
	EndpointURL *url.URL
	// FrontEndpointURL is the provider browser-facing base URL (login page)
	FrontEndpointURL *url.URL
	// ClientID is the OAuth2 client ID
	ClientID string
	// ClientSecret is the OAuth2 client secret
	ClientSecret string
	// ApplicationName is sent as the state of every login link
	ApplicationName string
	// CallbackURL is the default redirect target
	CallbackURL string
	// HTTPClient performs the token exchange, http.DefaultClient when nil
	HTTPClient *http.Client
}

func (c Config) oauth2Config() (*oauth2.Config, error) {
	if c.EndpointURL == nil || c.FrontEndpointURL == nil {
		return nil, errors.New("oauth requires provider endpoint URLs")
	}
	if c.ClientID == "" {
		return nil, errors.New("oauth requires a client ID")
	}

	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.FrontEndpointURL.JoinPath(authorizePath).String(),
			TokenURL:  c.EndpointURL.JoinPath(tokenPath).String(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// LinkBuilder produces provider authorization links
type LinkBuilder struct {
	oauth    *oauth2.Config
	state    string
	callback string
}

// NewLinkBuilder creates a link builder from the client settings
func NewLinkBuilder(config Config) (*LinkBuilder, error) {
	oc, err := config.oauth2Config()
	if err != nil {
		return nil, err
	}
	return &LinkBuilder{oauth: oc, state: config.ApplicationName, callback: config.CallbackURL}, nil
}

// LinkOption overrides one query parameter of a login link
type LinkOption func(*linkParams)

type linkParams struct {
	responseType string
	scope        string
}

// WithResponseType overrides the response_type parameter
func WithResponseType(rt string) LinkOption {
	return func(p *linkParams) { p.responseType = rt }
}

// WithScope overrides the scope parameter
func WithScope(scope string) LinkOption {
	return func(p *linkParams) { p.scope = scope }
}

// Link returns the authorize URL redirecting to redirectURI, or to the
// configured callback when redirectURI is empty. The state is always the
// application name.
func (b *LinkBuilder) Link(redirectURI string, opts ...LinkOption) string {
	params := linkParams{responseType: defaultResponseType, scope: defaultScope}
	for _, opt := range opts {
		opt(&params)
	}
	if redirectURI == "" {
		redirectURI = b.callback
	}

	return b.oauth.AuthCodeURL(b.state,
		oauth2.SetAuthURLParam("response_type", params.responseType),
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("scope", params.scope),
	)
}

// LoginHandler redirects the browser to the provider login page. The
// redirect_uri query parameter overrides the configured callback.
func (b *LinkBuilder) LoginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, b.Link(r.URL.Query().Get("redirect_uri")), http.StatusFound)
	})
}
