// Package claims authorizes requests from the roles and permissions carried
// in the verified token, without contacting a policy decision point.
package claims

import (
	"net/http"
	"strings"

	"bookgate/internal/auth"
	"bookgate/internal/authz"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"

	"golang.org/x/exp/slices"
)

// Authorizer implements authz.Authorizer over token claims
type Authorizer struct {
	logger  *logging.Logger
	metrics *metrics.Collector
}

var _ authz.Authorizer = (*Authorizer)(nil)

// New creates a claims authorizer
func New(logger *logging.Logger, metrics *metrics.Collector) *Authorizer {
	return &Authorizer{
		logger:  logger.WithModule("authz.claims"),
		metrics: metrics,
	}
}

// Name returns the role or permission name granting action on object
func Name(object, action string) string {
	return object + ":" + action
}

// Authorize allows the request when every action is granted by the identity
func (a *Authorizer) Authorize(req *authz.Request) *authz.Response {
	if req.Identity == nil || req.Identity.ID == "" {
		return &authz.Response{Decision: authz.Unauthorized, Reason: "No identity provided"}
	}
	if len(req.Actions) == 0 {
		return &authz.Response{Decision: authz.Deny, Reason: "No actions required"}
	}

	for _, action := range req.Actions {
		if !Grants(req.Identity, req.Object, action) {
			return &authz.Response{Decision: authz.Deny, Reason: "Missing grant " + Name(req.Object, action)}
		}
	}
	return &authz.Response{Decision: authz.Allow, Reason: "Permission granted"}
}

// Grants reports whether identity may perform action on object. A permission
// covers the pair when it is named "object:action" or lists the object among
// its resources and the action among its actions. An enabled Deny permission
// covering the pair always wins. Otherwise the grant is an enabled role named
// "object:action" or an enabled Allow permission covering the pair.
func Grants(identity *auth.Identity, object, action string) bool {
	name := Name(object, action)
	covers := func(p auth.Permission) bool {
		if p.Name == name {
			return true
		}
		return slices.Contains(p.Resources, object) &&
			slices.ContainsFunc(p.Actions, func(a auth.Action) bool {
				return strings.EqualFold(string(a), action)
			})
	}

	if slices.ContainsFunc(identity.Permissions, func(p auth.Permission) bool {
		return p.IsEnabled && p.Effect == auth.EffectDeny && covers(p)
	}) {
		return false
	}
	if identity.HasEnabledRole(name) {
		return true
	}
	return slices.ContainsFunc(identity.Permissions, func(p auth.Permission) bool {
		return p.Grants() && covers(p)
	})
}

// Middleware creates an HTTP middleware requiring every action on object
func (a *Authorizer) Middleware(object string, actions ...string) func(http.Handler) http.Handler {
	return authz.Middleware(a.Authorize, object, actions, a.logger, a.metrics)
}
