package tokenx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nockspace/murmur/pkg/idx"
)

// Token classes. A codec only ever accepts tokens of its own class;
// verification under the wrong class fails as malformed, never expired.
const (
	ClassAccess  = "access"
	ClassRefresh = "refresh"
	ClassReset   = "reset"
)

// Default token TTL constants. Refresh stays well inside the observed
// 15x-60x multiple of the access lifetime.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the signed claims carried by every murmur credential.
// Access and refresh tokens never touch the database; reset tokens are
// additionally persisted so they can be redeemed exactly once.
type Claims struct {
	jwt.RegisteredClaims

	// Class pins a token to the codec that minted it ("access",
	// "refresh" or "reset").
	Class string `json:"class"`
}

// NewClaims builds minimally-correct claims for one principal.
// Expiry is truncated to whole seconds; the wire format has no finer
// resolution and comparisons are done in UTC. The ULID jti keeps two
// tokens minted within the same second from being byte-identical.
func NewClaims(subject, class string, ttl time.Duration, now time.Time) Claims {
	now = now.UTC().Truncate(time.Second)
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        idx.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Class: class,
	}
}

// ValidateExpiry ensures the token hasn't expired. Clock skew is not
// compensated; second-resolution UTC timestamps are compared directly.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrMalformed
	}
	if now.UTC().After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}
