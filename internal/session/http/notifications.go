package http

import (
	"net/http"

	"github.com/nockspace/murmur/internal/notify"
	"github.com/nockspace/murmur/pkg/httpx"
)

// NotificationsHandler mounts the push channel and the event hook.
type NotificationsHandler struct {
	Gateway    *notify.Gateway
	Dispatcher *notify.Dispatcher
}

// HandleChannel serves GET /v1/notifications/{user_id}: the long-lived
// push channel for the user named in the path.
func (h *NotificationsHandler) HandleChannel(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	h.Gateway.HandleChannel(w, r, userID)
}

// HandleNewPost serves POST /v1/notifications/new-post: the posting
// service calls this after persisting a post so subscribers of the
// authenticated author get their push event. Always 202: fan-out is
// best effort and reports nothing back.
func (h *NotificationsHandler) HandleNewPost(w http.ResponseWriter, r *http.Request) {
	authorID := httpx.UserIDFromContext(r.Context())
	h.Dispatcher.NotifyNewPost(r.Context(), authorID)
	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}
