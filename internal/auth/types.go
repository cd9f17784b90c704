package auth

import (
	"net/http"
)

// Action is a permission action as issued by the identity provider
type Action string

const (
	ActionRead  Action = "Read"
	ActionWrite Action = "Write"
	ActionAdmin Action = "Admin"
)

// ResourceType is the kind of resource a permission applies to
type ResourceType string

const (
	ResourceApplication ResourceType = "Application"
	ResourceTreeNode    ResourceType = "TreeNode"
	ResourceCustom      ResourceType = "Custom"
)

// Effect tells whether a permission grants or withholds access
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Role is a provider role projected from token claims
type Role struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	IsEnabled   bool   `json:"is_enabled"`
	Owner       string `json:"owner"`
}

// Permission is a provider permission projected from token claims
type Permission struct {
	Name         string       `json:"name"`
	DisplayName  string       `json:"display_name"`
	IsEnabled    bool         `json:"is_enabled"`
	Actions      []Action     `json:"actions"`
	ResourceType ResourceType `json:"resource_type"`
	Resources    []string     `json:"resources"`
	Effect       Effect       `json:"effect"`
	Owner        string       `json:"owner"`
}

// Grants reports whether the permission is usable to allow access
func (p Permission) Grants() bool {
	return p.IsEnabled && p.Effect == EffectAllow
}

// Identity represents an authenticated caller.
//
// It is a read-only projection of provider-issued claims and lives for one request.
type Identity struct {
	// ID is the stable subject identifier and the only value ever sent as an enforcement subject
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	DisplayName string       `json:"display_name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Avatar      string       `json:"avatar"`
	Owner       string       `json:"owner"`
	Groups      []string     `json:"groups"`
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`

	// Provider is the authentication method that produced this identity
	Provider string `json:"-"`
}

// HasEnabledRole reports whether the identity holds the named role and it is enabled
func (i *Identity) HasEnabledRole(name string) bool {
	for _, r := range i.Roles {
		if r.Name == name && r.IsEnabled {
			return true
		}
	}
	return false
}

// Authenticator is one stage of the request authentication pipeline
type Authenticator interface {
	// Name returns the name of this authenticator
	Name() string

	// GetMiddleware returns an http.Handler middleware that performs authentication
	GetMiddleware(next http.Handler) http.Handler
}
