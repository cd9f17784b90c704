// Package guard authorizes requests by asking an Enforcer for a verdict on
// every required action in a single batch round trip.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bookgate/internal/auth"
	"bookgate/internal/authz"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"
)

// Guard implements authz.Authorizer on top of an Enforcer
type Guard struct {
	enforcer authz.Enforcer
	model    string
	logger   *logging.Logger
	metrics  *metrics.Collector
}

var _ authz.Authorizer = (*Guard)(nil)

// New creates a guard evaluating rules against the given policy model
func New(enforcer authz.Enforcer, model string, logger *logging.Logger, metrics *metrics.Collector) (*Guard, error) {
	if enforcer == nil {
		return nil, errors.New("guard requires an enforcer")
	}

	return &Guard{
		enforcer: enforcer,
		model:    model,
		logger:   logger.WithModule("authz.guard"),
		metrics:  metrics,
	}, nil
}

// Check returns nil when identity may perform every action on object.
// Otherwise it returns auth.ErrUnauthorized, authz.ErrForbidden or an error
// wrapping authz.ErrPolicyBackend.
func (g *Guard) Check(ctx context.Context, identity *auth.Identity, object string, actions ...string) error {
	if identity == nil || identity.ID == "" {
		return auth.ErrUnauthorized
	}
	if len(actions) == 0 {
		return fmt.Errorf("%w: no actions required", authz.ErrForbidden)
	}

	rules := make([]authz.Rule, 0, len(actions))
	for _, act := range actions {
		rules = append(rules, authz.NewRule(identity.ID, object, act))
	}

	verdicts, err := g.enforcer.BatchEnforce(ctx, g.model, rules)
	if err != nil {
		if !errors.Is(err, authz.ErrPolicyBackend) {
			err = fmt.Errorf("%w: %v", authz.ErrPolicyBackend, err)
		}
		return err
	}

	if !allGranted(verdicts, len(rules)) {
		return fmt.Errorf("%w: %d rules, verdicts %v", authz.ErrForbidden, len(rules), verdicts)
	}
	return nil
}

// allGranted holds only for exactly n verdicts that are all true
func allGranted(verdicts []bool, n int) bool {
	if len(verdicts) != n {
		return false
	}
	for _, v := range verdicts {
		if !v {
			return false
		}
	}
	return true
}

// Authorize implements authz.Authorizer
func (g *Guard) Authorize(req *authz.Request) *authz.Response {
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	err := g.Check(ctx, req.Identity, req.Object, req.Actions...)
	switch {
	case err == nil:
		return &authz.Response{Decision: authz.Allow, Reason: "Permission granted"}
	case errors.Is(err, auth.ErrUnauthorized):
		return &authz.Response{Decision: authz.Unauthorized, Reason: "No identity provided"}
	case errors.Is(err, authz.ErrForbidden):
		return &authz.Response{Decision: authz.Deny, Reason: err.Error()}
	default:
		return &authz.Response{Decision: authz.Error, Reason: "Error checking permission", Error: err}
	}
}

// Middleware creates an HTTP middleware requiring every action on object
func (g *Guard) Middleware(object string, actions ...string) func(http.Handler) http.Handler {
	return authz.Middleware(g.Authorize, object, actions, g.logger, g.metrics)
}
