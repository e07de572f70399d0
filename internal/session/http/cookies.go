package http

import (
	"net/http"
	"time"

	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/pkg/httpx"
)

const refreshTokenCookie = "refresh_token"

// setSessionCookies installs the token pair. The access cookie rides on
// every request; the refresh cookie is scoped to the refresh endpoint
// and pinned down with Secure + SameSite=Strict.
func setSessionCookies(w http.ResponseWriter, pair domain.TokenPair, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.ExpiresIn.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/v1/token",
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookies expires both cookies. Logout is cookie removal
// only; the tokens themselves stay valid until expiry.
func clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    "",
		Path:     "/v1/token",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
