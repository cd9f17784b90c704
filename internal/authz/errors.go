package authz

import "errors"

var (
	// ErrForbidden is returned when the policy denies at least one required action
	ErrForbidden = errors.New("authz: insufficient access")

	// ErrPolicyBackend is returned when the policy decision point is unreachable,
	// times out or answers with a malformed or non-ok envelope
	ErrPolicyBackend = errors.New("authz: policy backend error")
)
