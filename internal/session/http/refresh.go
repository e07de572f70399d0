package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nockspace/murmur/internal/session/service"
	"github.com/nockspace/murmur/pkg/httpx"
	"github.com/nockspace/murmur/pkg/slogx"
)

// RefreshHandler serves POST /v1/token/refresh. The refresh token
// arrives in its scoped cookie; non-browser clients may pass it in the
// body instead. A new pair is minted and both cookies reissued.
type RefreshHandler struct {
	SessionService *service.SessionService
	RefreshTTL     time.Duration
	SecureCookies  bool
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := ""
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" && r.Body != nil {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing refresh token")
		return
	}

	pair, err := h.SessionService.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "account no longer exists")
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "account is not eligible")
		case isTokenError(err):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "refresh token rejected")
		default:
			log.Error("refresh failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not refresh session")
		}
		return
	}

	setSessionCookies(w, pair, h.RefreshTTL, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   int64(pair.ExpiresIn.Seconds()),
	})
}
