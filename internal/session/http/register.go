package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nockspace/murmur/internal/session/service"
	"github.com/nockspace/murmur/pkg/httpx"
	"github.com/nockspace/murmur/pkg/slogx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	UserService *service.UserService
}

type registerRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

const minPasswordLength = 8

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}

	u, err := h.UserService.Register(ctx, req.Email, req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			httpx.WriteError(w, http.StatusConflict, "email_taken", "an account with that email already exists")
			return
		}
		log.Error("register failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not create account")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":       u.ID,
		"email":    u.Email,
		"nickname": u.Nickname,
	})
}
