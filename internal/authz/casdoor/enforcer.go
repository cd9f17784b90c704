// Package casdoor implements authz.Enforcer against the enforce and
// batch-enforce endpoints of a Casdoor-compatible provider.
package casdoor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bookgate/internal/authz"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"
)

const (
	enforcePath      = "api/enforce"
	batchEnforcePath = "api/batch-enforce"

	// maxResponseSize caps the envelope read from the provider
	maxResponseSize = 1 << 20
)

// Config holds the enforcement client configuration
type Config struct {
	// EndpointURL is the provider API base URL
	EndpointURL *url.URL
	// ClientID is the OAuth2 client ID used in the Authorization header
	ClientID string
	// ClientSecret is the OAuth2 client secret used in the Authorization header
	ClientSecret string
	// Timeout bounds each round trip
	Timeout time.Duration
	// HTTPClient performs the calls, http.DefaultClient when nil
	HTTPClient *http.Client
}

// Enforcer is the HTTP policy enforcement client. It is safe for concurrent use.
type Enforcer struct {
	endpoint      *url.URL
	authorization string
	timeout       time.Duration
	client        *http.Client
	logger        *logging.Logger
	metrics       *metrics.Collector
}

var _ authz.Enforcer = (*Enforcer)(nil)

// envelope is the response wrapper of every provider API call
type envelope struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// New creates an enforcement client
func New(config Config, logger *logging.Logger, metrics *metrics.Collector) (*Enforcer, error) {
	if config.EndpointURL == nil {
		return nil, errors.New("casdoor enforcer requires an endpoint URL")
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, errors.New("casdoor enforcer requires client credentials")
	}
	if config.Timeout <= 0 {
		return nil, errors.New("casdoor enforcer requires a positive timeout")
	}

	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Enforcer{
		endpoint: config.EndpointURL,
		// The provider expects the raw pair, not base64.
		authorization: "Basic " + config.ClientID + ":" + config.ClientSecret,
		timeout:       config.Timeout,
		client:        client,
		logger:        logger.WithModule("authz.casdoor"),
		metrics:       metrics,
	}, nil
}

// Enforce evaluates one rule. The body is always the six-element tuple.
func (e *Enforcer) Enforce(ctx context.Context, model string, rule authz.Rule) (bool, error) {
	data, err := e.post(ctx, enforcePath, model, rule.Tuple())
	if err != nil {
		return false, err
	}
	return decodeVerdict(data)
}

// BatchEnforce evaluates rules in one round trip. An empty rule list
// yields an empty result without contacting the provider.
func (e *Enforcer) BatchEnforce(ctx context.Context, model string, rules []authz.Rule) ([]bool, error) {
	if len(rules) == 0 {
		return []bool{}, nil
	}

	data, err := e.post(ctx, batchEnforcePath, model, rules)
	if err != nil {
		return nil, err
	}

	verdicts, err := decodeVerdicts(data)
	if err != nil {
		return nil, err
	}
	if len(verdicts) != len(rules) {
		e.logger.Warn("Verdict count does not match rule count", "rules", len(rules), "verdicts", len(verdicts))
	}
	return verdicts, nil
}

// post sends body to path and returns the data member of an ok envelope.
// Every failure wraps authz.ErrPolicyBackend.
func (e *Enforcer) post(ctx context.Context, path, model string, body any) (json.RawMessage, error) {
	start := time.Now()
	data, err := e.roundTrip(ctx, path, model, body)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		logging.FromContext(ctx, e.logger).Error("Policy decision request failed",
			logging.Err(err),
			"endpoint", path,
			"model", model,
		)
	}
	e.metrics.RecordProviderCall(path, outcome, time.Since(start))
	return data, err
}

func (e *Enforcer) roundTrip(ctx context.Context, path, model string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", authz.ErrPolicyBackend, err)
	}

	target := e.endpoint.JoinPath(path)
	target.RawQuery = url.Values{"permissionId": {model}}.Encode()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", authz.ErrPolicyBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", e.authorization)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrPolicyBackend, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", authz.ErrPolicyBackend, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", authz.ErrPolicyBackend, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", authz.ErrPolicyBackend, err)
	}
	if env.Status != "ok" {
		return nil, fmt.Errorf("%w: status %q: %s", authz.ErrPolicyBackend, env.Status, env.Msg)
	}
	if isAbsent(env.Data) {
		return nil, fmt.Errorf("%w: response carries no data", authz.ErrPolicyBackend)
	}
	return env.Data, nil
}

// decodeVerdict accepts a bare boolean or a single-element boolean array
func decodeVerdict(data json.RawMessage) (bool, error) {
	var verdict bool
	if err := json.Unmarshal(data, &verdict); err == nil {
		return verdict, nil
	}

	var verdicts []bool
	if err := json.Unmarshal(data, &verdicts); err == nil && len(verdicts) == 1 {
		return verdicts[0], nil
	}
	return false, fmt.Errorf("%w: malformed verdict %s", authz.ErrPolicyBackend, truncate(data))
}

// decodeVerdicts accepts a boolean array, or that array nested once inside
// a single-element array as returned per permission model
func decodeVerdicts(data json.RawMessage) ([]bool, error) {
	var verdicts []bool
	if err := json.Unmarshal(data, &verdicts); err == nil {
		return verdicts, nil
	}

	var nested [][]bool
	if err := json.Unmarshal(data, &nested); err == nil && len(nested) == 1 && nested[0] != nil {
		return nested[0], nil
	}
	return nil, fmt.Errorf("%w: malformed verdicts %s", authz.ErrPolicyBackend, truncate(data))
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func truncate(data json.RawMessage) string {
	if len(data) > 64 {
		return string(data[:64]) + "..."
	}
	return string(data)
}
