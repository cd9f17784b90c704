package oauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bookgate/internal/httputils"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"

	"golang.org/x/oauth2"
)

// TokenPayload is the token set issued by the provider
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// CallbackHandler completes the authorization code flow
type CallbackHandler struct {
	oauth   *oauth2.Config
	client  *http.Client
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewCallbackHandler creates a callback handler. Every exchange is bounded
// by timeout.
func NewCallbackHandler(config Config, timeout time.Duration, logger *logging.Logger, metrics *metrics.Collector) (*CallbackHandler, error) {
	oc, err := config.oauth2Config()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, errors.New("oauth callback requires a positive timeout")
	}

	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &CallbackHandler{
		oauth:   oc,
		client:  client,
		timeout: timeout,
		logger:  logger.WithModule("auth.oauth"),
		metrics: metrics,
	}, nil
}

// Exchange trades an authorization code for the issued token payload
func (h *CallbackHandler) Exchange(ctx context.Context, code string) (*TokenPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, h.client)

	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	payload := &TokenPayload{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		payload.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		payload.Scope = scope
	}
	return payload, nil
}

// ServeHTTP handles GET /auth/callback?code=&state=. The state is required
// but not checked.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), h.logger)

	query := r.URL.Query()
	var missing []httputils.FieldError
	for _, name := range []string{"code", "state"} {
		if query.Get(name) == "" {
			missing = append(missing, httputils.FieldError{Field: name, Tag: "required"})
		}
	}
	if len(missing) > 0 {
		httputils.WriteValidation(w, "Missing query parameters", missing)
		return
	}

	start := time.Now()
	payload, err := h.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		h.metrics.RecordProviderCall("token", "error", time.Since(start))
		logger.Warn("Token exchange failed", logging.Err(err))
		writeExchangeError(w, err)
		return
	}
	h.metrics.RecordProviderCall("token", "ok", time.Since(start))

	_ = httputils.WriteJSON(w, http.StatusOK, payload)
}

// writeExchangeError surfaces provider failures as 502, or 504 on timeout
func writeExchangeError(w http.ResponseWriter, err error) {
	var re *oauth2.RetrieveError
	switch {
	case errors.As(err, &re):
		detail := "Token exchange failed"
		if re.ErrorCode != "" {
			detail = re.ErrorCode
			if re.ErrorDescription != "" {
				detail += ": " + re.ErrorDescription
			}
		}
		httputils.WriteError(w, http.StatusBadGateway, detail)
	case errors.Is(err, context.DeadlineExceeded):
		httputils.WriteError(w, http.StatusGatewayTimeout, "Identity provider timed out")
	default:
		httputils.WriteError(w, http.StatusBadGateway, "Token exchange failed")
	}
}
