package token

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookgate/internal/auth"

	"github.com/coreos/go-oidc/v3/oidc"
)

// supportedAlgs are the signing algorithms accepted from the issuer
var supportedAlgs = []string{
	oidc.RS256, oidc.RS384, oidc.RS512,
	oidc.ES256, oidc.ES384, oidc.ES512,
	oidc.PS256, oidc.PS384, oidc.PS512,
}

// Config holds token verifier configuration
type Config struct {
	// PublicKey is the trusted issuer key
	PublicKey crypto.PublicKey

	// ClientID must appear in the token audience
	ClientID string

	// Now overrides the clock, for tests
	Now func() time.Time
}

// Verifier validates bearer credentials signed by the identity provider
// and projects their claims onto an auth.Identity
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier creates a verifier trusting a single static issuer key
func NewVerifier(config Config) (*Verifier, error) {
	if config.PublicKey == nil {
		return nil, errors.New("token verifier requires a public key")
	}
	if config.ClientID == "" {
		return nil, errors.New("token verifier requires a client ID")
	}

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{config.PublicKey}}
	return &Verifier{
		// The issuer claim is not pinned; the audience is.
		verifier: oidc.NewVerifier("", keySet, &oidc.Config{
			ClientID:             config.ClientID,
			SupportedSigningAlgs: supportedAlgs,
			SkipIssuerCheck:      true,
			Now:                  config.Now,
		}),
	}, nil
}

// providerRole mirrors the role object embedded in provider tokens
type providerRole struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	IsEnabled   bool   `json:"isEnabled"`
	Owner       string `json:"owner"`
}

// providerPermission mirrors the permission object embedded in provider tokens
type providerPermission struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	IsEnabled    bool     `json:"isEnabled"`
	Actions      []string `json:"actions"`
	ResourceType string   `json:"resourceType"`
	Resources    []string `json:"resources"`
	Effect       string   `json:"effect"`
	Owner        string   `json:"owner"`
}

// providerClaims is the user payload of a provider-issued token
type providerClaims struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	DisplayName string               `json:"displayName"`
	Email       string               `json:"email"`
	Phone       string               `json:"phone"`
	Avatar      string               `json:"avatar"`
	Owner       string               `json:"owner"`
	Groups      []string             `json:"groups"`
	Roles       []providerRole       `json:"roles"`
	Permissions []providerPermission `json:"permissions"`
}

// Verify checks the credential signature, audience and validity window and
// returns the caller identity. Every failure wraps auth.ErrInvalidCredential.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*auth.Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, fmt.Errorf("%w: empty token", auth.ErrInvalidCredential)
	}

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidCredential, err)
	}

	var claims providerClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: malformed claims: %v", auth.ErrInvalidCredential, err)
	}

	identity := claims.identity()
	if identity.ID == "" {
		identity.ID = idToken.Subject
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("%w: token carries no subject", auth.ErrInvalidCredential)
	}

	return identity, nil
}

// identity renames provider claims to their semantic fields. Absent
// collections become empty, never nil.
func (c providerClaims) identity() *auth.Identity {
	roles := make([]auth.Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		roles = append(roles, auth.Role{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			IsEnabled:   r.IsEnabled,
			Owner:       r.Owner,
		})
	}

	permissions := make([]auth.Permission, 0, len(c.Permissions))
	for _, p := range c.Permissions {
		actions := make([]auth.Action, 0, len(p.Actions))
		for _, a := range p.Actions {
			actions = append(actions, auth.Action(a))
		}
		permissions = append(permissions, auth.Permission{
			Name:         p.Name,
			DisplayName:  p.DisplayName,
			IsEnabled:    p.IsEnabled,
			Actions:      actions,
			ResourceType: auth.ResourceType(p.ResourceType),
			Resources:    nonNil(p.Resources),
			Effect:       auth.Effect(p.Effect),
			Owner:        p.Owner,
		})
	}

	return &auth.Identity{
		ID:          c.ID,
		Username:    c.Name,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		Phone:       c.Phone,
		Avatar:      c.Avatar,
		Owner:       c.Owner,
		Groups:      nonNil(c.Groups),
		Roles:       roles,
		Permissions: permissions,
		Provider:    string(auth.AuthTypeBearer),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
