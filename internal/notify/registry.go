package notify

import (
	"log/slog"
	"sync"
)

// Registry maps user ids to their live push channel. At most one
// channel per user: a reconnect replaces and closes the previous one.
//
// Concurrency guarantees:
// - Connect/Disconnect are safe under concurrent Send.
// - Send never blocks (drops under backpressure) and never panics,
//   because Client.Send is never closed by the server.
type Registry struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry constructs a Registry instance.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:     log,
		clients: make(map[string]*Client),
	}
}

// Connect registers a client as the user's channel. Any previous
// channel for the same user is closed; its gateway loop observes
// Done() and tears the old connection down.
func (r *Registry) Connect(client *Client) {
	if r == nil || client == nil || client.UserID == "" {
		return
	}

	r.mu.Lock()
	prev := r.clients[client.UserID]
	r.clients[client.UserID] = client
	n := len(r.clients)
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	metricConnected.Set(float64(n))

	r.log.Info("notify.channel.connect", "user_id", client.UserID, "replaced", prev != nil)
}

// Disconnect removes the user's channel, but only if it is still the
// given client. A stale disconnect after a reconnect replaced the
// channel is a no-op, as is disconnecting twice.
func (r *Registry) Disconnect(client *Client) {
	if r == nil || client == nil || client.UserID == "" {
		return
	}

	r.mu.Lock()
	removed := r.clients[client.UserID] == client
	if removed {
		delete(r.clients, client.UserID)
	}
	n := len(r.clients)
	r.mu.Unlock()

	client.Close()
	if !removed {
		return
	}
	metricConnected.Set(float64(n))

	r.log.Info("notify.channel.disconnect", "user_id", client.UserID)
}

// Send enqueues a notification for the user, best effort. An offline
// user or a full queue is an expected outcome: the event is dropped
// with a log line, never an error.
func (r *Registry) Send(userID string, n Notification) {
	if r == nil || userID == "" {
		return
	}

	r.mu.RLock()
	client := r.clients[userID]
	r.mu.RUnlock()

	if client == nil {
		metricDropped.WithLabelValues(n.Type, "offline").Inc()
		r.log.Debug("notify.send.offline", "user_id", userID, "type", n.Type)
		return
	}

	select {
	case <-client.Done():
		metricDropped.WithLabelValues(n.Type, "closing").Inc()
		return
	default:
	}

	select {
	case client.Send <- n:
		metricDelivered.WithLabelValues(n.Type).Inc()
	default:
		// Drop rather than block the caller.
		metricDropped.WithLabelValues(n.Type, "backpressure").Inc()
		r.log.Warn("notify.send.drop", "user_id", userID, "type", n.Type)
	}
}

// Connected reports whether the user currently has a registered channel.
func (r *Registry) Connected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID] != nil
}
