package http

import (
	"errors"
	"net/http"

	"github.com/nockspace/murmur/internal/session/service"
	"github.com/nockspace/murmur/pkg/httpx"
	"github.com/nockspace/murmur/pkg/slogx"
)

// SubscriptionHandler serves subscribe/unsubscribe for the
// authenticated user against the author in the path.
type SubscriptionHandler struct {
	UserService *service.UserService
}

func (h *SubscriptionHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subscriberID := httpx.UserIDFromContext(ctx)
	authorID := r.PathValue("author_id")
	if authorID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "author_id is required")
		return
	}

	if err := h.UserService.Subscribe(ctx, authorID, subscriberID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "no such user")
		case errors.Is(err, service.ErrSelfSubscription):
			httpx.WriteError(w, http.StatusBadRequest, "self_subscription", "cannot subscribe to yourself")
		case errors.Is(err, service.ErrAlreadySubscribed):
			httpx.WriteError(w, http.StatusConflict, "already_subscribed", "already subscribed to this user")
		default:
			log.Error("subscribe failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not subscribe")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

func (h *SubscriptionHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subscriberID := httpx.UserIDFromContext(ctx)
	authorID := r.PathValue("author_id")

	if err := h.UserService.Unsubscribe(ctx, authorID, subscriberID); err != nil {
		if errors.Is(err, service.ErrNotSubscribed) {
			httpx.WriteError(w, http.StatusNotFound, "not_subscribed", "no subscription to remove")
			return
		}
		log.Error("unsubscribe failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not unsubscribe")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}
