package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskdeck.org/internal/ids"
)

const (
	issuer            = "taskdeck"
	defaultSessionTTL = 15 * 24 * time.Hour
)

// ErrInvalidToken indicates the token failed validation. Every failure mode
// (malformed, forged, expired, wrong issuer) collapses into this one error so
// callers cannot leak which case occurred.
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims binds a token to one identity and the token version that was
// current at issuance. A version bump on logout or password change invalidates
// every previously issued token.
type SessionClaims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies signed session tokens with a server-held
// secret. The secret and clock are injected so nothing here reads process
// state.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithSessionTTL overrides the default 15-day token lifetime.
func WithSessionTTL(ttl time.Duration) CodecOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for expiry tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewTokenCodec constructs a codec for the given signing secret.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &TokenCodec{
		secret: []byte(secret),
		ttl:    defaultSessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL reports the configured token lifetime, which the transport layer reuses
// for the session cookie so both expire together.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a session token for the identity using HS256.
func (c *TokenCodec) Issue(identityID string, version int) (string, time.Time, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return "", time.Time{}, errors.New("identity id is required")
	}

	now := c.now().UTC()
	expiresAt := now.Add(c.ttl)
	claims := SessionClaims{
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ids.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and claims and returns the embedded identity id
// and token version.
func (c *TokenCodec) Verify(token string) (string, int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", 0, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		return "", 0, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return "", 0, ErrInvalidToken
	}
	if err := c.validateClaims(claims); err != nil {
		return "", 0, ErrInvalidToken
	}
	return claims.Subject, claims.Version, nil
}

func (c *TokenCodec) validateClaims(claims *SessionClaims) error {
	if claims.Issuer != issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := c.now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
