package tokenx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired reports a structurally valid, correctly signed token
	// whose expiry has passed. Callers branch on this to attempt a
	// refresh; anything else is terminal.
	ErrExpired = errors.New("tokenx: token expired")

	// ErrMalformed reports a failed signature check, a token signed for
	// a different class, or absent required fields.
	ErrMalformed = errors.New("tokenx: malformed token")
)

// Codec signs and verifies compact HS256 claims blobs under one
// symmetric secret and one token class. Access and refresh codecs hold
// independent secrets, so a token minted by one can never pass the
// other's verification path even with an identical claims shape.
type Codec struct {
	secret []byte
	class  string
	ttl    time.Duration
}

// NewCodec constructs a codec for the given class.
func NewCodec(secret []byte, class string, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokenx: empty secret")
	}
	switch class {
	case ClassAccess, ClassRefresh, ClassReset:
	default:
		return nil, fmt.Errorf("tokenx: unknown token class %q", class)
	}
	if ttl <= 0 {
		return nil, errors.New("tokenx: non-positive ttl")
	}
	return &Codec{secret: secret, class: class, ttl: ttl}, nil
}

// TTL returns the lifetime stamped into tokens minted by this codec.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Class returns the token class this codec mints and accepts.
func (c *Codec) Class() string { return c.class }

// Sign mints a token for subject with this codec's class and lifetime.
func (c *Codec) Sign(subject string, now time.Time) (string, error) {
	claims := NewClaims(subject, c.class, c.ttl, now)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// SignClaims mints a token from fully prepared claims. The claims class
// must match the codec's class.
func (c *Codec) SignClaims(claims Claims) (string, error) {
	if claims.Class != c.class {
		return "", fmt.Errorf("tokenx: class %q claims on %q codec", claims.Class, c.class)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify checks signature, class and expiry, in that order. The expiry
// check runs after the signature check so a tampered token can never be
// reported as merely expired.
func (c *Codec) Verify(token string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrMalformed
	}
	if claims.Class != c.class || claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrMalformed
	}
	if err := claims.ValidateExpiry(now); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
