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

// ResetRequestHandler serves POST /v1/auth/reset-password.
type ResetRequestHandler struct {
	ResetService *service.ResetService
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *ResetRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.ResetService.RequestReset(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "no account with that email")
			return
		}
		log.Error("reset request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not process reset request")
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reset_mail_queued"})
}

// ResetConfirmHandler serves POST /v1/auth/reset-password/confirm.
type ResetConfirmHandler struct {
	ResetService *service.ResetService
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *ResetConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token and new_password are required")
		return
	}

	if err := h.ResetService.ConfirmReset(ctx, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrResetTokenExpired):
			httpx.WriteError(w, http.StatusBadRequest, "reset_token_expired", "reset link expired, request a new one")
		case errors.Is(err, service.ErrResetTokenNotFound):
			httpx.WriteError(w, http.StatusNotFound, "reset_token_invalid", "reset link is invalid or already used")
		default:
			log.Error("reset confirm failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not reset password")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_updated"})
}
