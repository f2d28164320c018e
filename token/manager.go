// Package token issues and verifies signed identity tokens that bind a
// username to a session id, so callers carry an explicit credential instead
// of relying on process-wide current-user state.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Parse for any token that fails to verify.
var ErrInvalidToken = errors.New("token: invalid")

const minKeySize = 32

// Config carries the manager's signing parameters.
type Config struct {
	// SigningKey is the HMAC-SHA256 key; at least 32 bytes.
	SigningKey []byte
	Issuer     string
	// Now overrides the validation time source. Nil means time.Now.
	Now func() time.Time
}

// Claims is the identity token payload.
type Claims struct {
	Username  string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager signs and verifies identity tokens with HMAC-SHA256.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SigningKey) < minKeySize {
		return nil, fmt.Errorf("token: signing key must be at least %d bytes", minKeySize)
	}
	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{key: key, issuer: cfg.Issuer, now: now}, nil
}

// Issue signs a token for username bound to sessionID, valid until expiresAt.
func (m *Manager) Issue(username, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		Username:  username,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of raw and returns its claims. Any
// failure is reported as a wrapped [ErrInvalidToken].
func (m *Manager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Username == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
