package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nockspace/murmur/pkg/slogx"
	"github.com/nockspace/murmur/pkg/tokenx"
)

// AccessTokenCookie is the cookie the login handler sets and this
// middleware reads. Browser clients never see the raw token.
const AccessTokenCookie = "access_token"

// AccessVerifier verifies compact access tokens. Satisfied by
// *tokenx.Codec.
type AccessVerifier interface {
	Verify(token string, now time.Time) (tokenx.Claims, error)
}

// AuthnMiddleware authenticates requests with the access token cookie,
// falling back to a bearer Authorization header for non-browser
// clients. The verified subject is injected into the request context.
func AuthnMiddleware(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := accessTokenFromRequest(r)
			if raw == "" {
				writeBearerError(w, "missing access token")
				return
			}

			claims, err := v.Verify(raw, time.Now())
			if err != nil {
				if err == tokenx.ErrExpired {
					writeBearerError(w, "token expired")
					return
				}
				writeBearerError(w, "token verification failed")
				log.Warn("access token verify failed", "err", err)
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}
	return ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
