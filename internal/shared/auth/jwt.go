// Package auth implements the HS256 session tokens that identify tenants
// on API requests. Tokens are minted by the session collaborator (or by
// operators for testing) and verified here.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Claims is the payload carried by a session token. Sub holds the tenant ID.
type Claims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp,omitempty"`
	Iat int64  `json:"iat,omitempty"`
}

// ErrInvalidToken is returned for malformed, tampered or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

const defaultTTL = 24 * time.Hour

// Keychain signs and verifies session tokens with a shared HS256 secret.
type Keychain struct {
	secret []byte
}

// NewKeychain builds a Keychain from the configured session secret.
func NewKeychain(secret string) (*Keychain, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("session secret not configured")
	}
	return &Keychain{secret: []byte(secret)}, nil
}

// Sign issues a token for the given claims. Iat and Exp default to now and
// now+24h when zero.
func (k *Keychain) Sign(claims Claims) (string, error) {
	if claims.Sub == "" {
		return "", errors.New("sub is required")
	}

	now := time.Now().UTC().Unix()
	if claims.Iat == 0 {
		claims.Iat = now
	}
	if claims.Exp == 0 {
		claims.Exp = now + int64(defaultTTL/time.Second)
	}

	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	segments := []string{
		base64.RawURLEncoding.EncodeToString(headerJSON),
		base64.RawURLEncoding.EncodeToString(payloadJSON),
	}
	signingInput := strings.Join(segments, ".")

	segments = append(segments, k.sign(signingInput))
	return strings.Join(segments, "."), nil
}

// Verify checks the token signature and expiry and returns its claims.
func (k *Keychain) Verify(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	signingInput := strings.Join(parts[0:2], ".")
	expectedSig := k.sign(signingInput)
	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return Claims{}, ErrInvalidToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}

	if claims.Sub == "" {
		return Claims{}, ErrInvalidToken
	}

	if claims.Exp > 0 && time.Now().UTC().Unix() > claims.Exp {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// Resolve implements the auth middleware's TenantResolver: a valid token
// resolves to the tenant named in its sub claim.
func (k *Keychain) Resolve(token string) (string, error) {
	claims, err := k.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Sub, nil
}

func (k *Keychain) sign(input string) string {
	mac := hmac.New(sha256.New, k.secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
