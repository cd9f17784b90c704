// internal/authz/types.go
package authz

import (
	"context"
	"encoding/json"
	"net/http"

	"bookgate/internal/auth"
)

// Decision represents an authorization decision
type Decision int

const (
	// Allow indicates the request is allowed
	Allow Decision = iota
	// Deny indicates the request is denied
	Deny
	// Unauthorized indicates the request is unauthorized (no identity)
	Unauthorized
	// Error indicates no trustworthy decision could be made
	Error
)

// String returns the metric label of the decision
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Unauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}

// Request represents an authorization request
type Request struct {
	// Identity is the identity to authorize
	Identity *auth.Identity

	// Object is the label of the resource class being accessed, e.g. "book"
	Object string

	// Actions are the actions that must all be allowed on Object
	Actions []string

	// Context is the request context
	Context context.Context
}

// Response represents an authorization response
type Response struct {
	// Decision is the authorization decision
	Decision Decision

	// Reason provides additional information about the decision
	Reason string

	// Error is set if an error occurred during authorization
	Error error
}

// Authorizer defines the interface for authorization
type Authorizer interface {
	// Authorize decides whether the identity may perform every action on the object
	Authorize(req *Request) *Response

	// Middleware gates next on object and actions
	Middleware(object string, actions ...string) func(http.Handler) http.Handler
}

// Rule is one enforcement query. Sub is always the id of the verified
// identity of the current request.
type Rule struct {
	Sub string
	Obj string
	Act string
	V3  *string
	V4  *string
	V5  *string
}

// NewRule creates a rule without optional values
func NewRule(sub, obj, act string) Rule {
	return Rule{Sub: sub, Obj: obj, Act: act}
}

// Tuple returns the fixed-length form [sub, obj, act, v3, v4, v5] with
// absent optional values as nil
func (r Rule) Tuple() []*string {
	return []*string{&r.Sub, &r.Obj, &r.Act, r.V3, r.V4, r.V5}
}

// MarshalJSON encodes the rule as an array trimmed after the last present value
func (r Rule) MarshalJSON() ([]byte, error) {
	tuple := r.Tuple()
	n := len(tuple)
	for n > 3 && tuple[n-1] == nil {
		n--
	}
	return json.Marshal(tuple[:n])
}

// Enforcer asks a policy decision point for verdicts against a policy model
type Enforcer interface {
	// Enforce evaluates a single rule
	Enforce(ctx context.Context, model string, rule Rule) (bool, error)

	// BatchEnforce evaluates rules in one round trip. Verdict i answers rule i.
	BatchEnforce(ctx context.Context, model string, rules []Rule) ([]bool, error)
}
