package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bookgate/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "client-id"

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func providerToken(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":         "f2a9c1d0",
		"id":          "f2a9c1d0",
		"aud":         []string{testClientID},
		"iss":         "https://login.example.com",
		"iat":         now.Unix(),
		"nbf":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
		"owner":       "built-in",
		"name":        "alice",
		"displayName": "Alice Liddell",
		"email":       "alice@example.com",
		"phone":       "",
		"avatar":      "https://cdn.example.com/alice.png",
		"groups":      []string{"built-in/readers", "built-in/writers"},
		"roles": []map[string]any{
			{"name": "editor", "displayName": "Editor", "isEnabled": true, "owner": "built-in"},
			{"name": "admin", "displayName": "Admin", "isEnabled": false, "owner": "built-in"},
		},
		"permissions": []map[string]any{
			{
				"name":         "book-write",
				"displayName":  "Book write",
				"isEnabled":    true,
				"actions":      []string{"Read", "Write"},
				"resourceType": "Application",
				"resources":    []string{"app-built-in"},
				"effect":       "Allow",
				"owner":        "built-in",
			},
		},
	}
}

func newVerifier(t *testing.T, key *rsa.PrivateKey, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{
		PublicKey: &key.PublicKey,
		ClientID:  testClientID,
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	return v
}

func TestVerifyMapsProviderClaims(t *testing.T) {
	key := newKey(t)
	now := time.Now()
	v := newVerifier(t, key, now)

	identity, err := v.Verify(context.Background(), sign(t, key, providerToken(now)))
	require.NoError(t, err)

	assert.Equal(t, "f2a9c1d0", identity.ID)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "Alice Liddell", identity.DisplayName)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "built-in", identity.Owner)
	assert.Equal(t, []string{"built-in/readers", "built-in/writers"}, identity.Groups)

	require.Len(t, identity.Roles, 2)
	assert.Equal(t, auth.Role{Name: "editor", DisplayName: "Editor", IsEnabled: true, Owner: "built-in"}, identity.Roles[0])
	assert.False(t, identity.Roles[1].IsEnabled)

	require.Len(t, identity.Permissions, 1)
	perm := identity.Permissions[0]
	assert.Equal(t, "Book write", perm.DisplayName)
	assert.True(t, perm.IsEnabled)
	assert.Equal(t, []auth.Action{auth.ActionRead, auth.ActionWrite}, perm.Actions)
	assert.Equal(t, auth.ResourceApplication, perm.ResourceType)
	assert.Equal(t, auth.EffectAllow, perm.Effect)
}

func TestVerifyDefaultsAbsentCollections(t *testing.T) {
	key := newKey(t)
	now := time.Now()
	v := newVerifier(t, key, now)

	identity, err := v.Verify(context.Background(), sign(t, key, jwt.MapClaims{
		"sub": "u1",
		"aud": testClientID,
		"exp": now.Add(time.Minute).Unix(),
	}))
	require.NoError(t, err)

	assert.Equal(t, "u1", identity.ID)
	assert.NotNil(t, identity.Groups)
	assert.NotNil(t, identity.Roles)
	assert.NotNil(t, identity.Permissions)
	assert.Empty(t, identity.Roles)
}

func TestVerifyRejectsInvalidCredentials(t *testing.T) {
	key := newKey(t)
	otherKey := newKey(t)
	now := time.Now()
	v := newVerifier(t, key, now)

	expired := providerToken(now)
	expired["iat"] = now.Add(-2 * time.Hour).Unix()
	expired["nbf"] = now.Add(-2 * time.Hour).Unix()
	expired["exp"] = now.Add(-time.Hour).Unix()

	wrongAudience := providerToken(now)
	wrongAudience["aud"] = "someone-else"

	noExpiry := providerToken(now)
	delete(noExpiry, "exp")

	noSubject := providerToken(now)
	delete(noSubject, "sub")
	delete(noSubject, "id")

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, providerToken(now)).SignedString([]byte("shared"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "   ",
		"malformed":      "not-a-jwt",
		"truncated":      sign(t, key, providerToken(now))[:40],
		"expired":        sign(t, key, expired),
		"untrusted key":  sign(t, otherKey, providerToken(now)),
		"wrong audience": sign(t, key, wrongAudience),
		"no expiry":      sign(t, key, noExpiry),
		"no subject":     sign(t, key, noSubject),
		"hmac signed":    hmacToken,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			identity, err := v.Verify(context.Background(), raw)
			assert.Nil(t, identity, "no partial identity on failure")
			assert.True(t, errors.Is(err, auth.ErrInvalidCredential), "got %v", err)
		})
	}
}

func TestNewVerifierValidation(t *testing.T) {
	_, err := NewVerifier(Config{ClientID: testClientID})
	assert.Error(t, err)

	key := newKey(t)
	_, err = NewVerifier(Config{PublicKey: &key.PublicKey})
	assert.Error(t, err)
}

func TestLoadPublicKeyFormats(t *testing.T) {
	key := newKey(t)
	dir := t.TempDir()

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "cert-built-in"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	pkix, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	files := map[string]*pem.Block{
		"cert.pem":  {Type: "CERTIFICATE", Bytes: der},
		"pkix.pem":  {Type: "PUBLIC KEY", Bytes: pkix},
		"pkcs1.pem": {Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)},
	}

	for name, block := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

			loaded, err := LoadPublicKey(path)
			require.NoError(t, err)
			rsaKey, ok := loaded.(*rsa.PublicKey)
			require.True(t, ok)
			assert.True(t, key.PublicKey.Equal(rsaKey))
		})
	}

	_, err = LoadPublicKey(filepath.Join(dir, "missing.pem"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("hello"), 0o600))
	_, err = LoadPublicKey(garbage)
	assert.Error(t, err)
}
