package notify

import (
	"context"
	"log/slog"

	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/pkg/slogx"
)

// Dispatcher resolves the audience for an event and fans it out through
// the Registry. Delivery is best effort, at most once: an audience
// member who is offline or slow simply misses the event.
type Dispatcher struct {
	Store    store.Store
	Registry *Registry
}

// NotifyNewPost pushes a new post event to every active subscriber of
// the author. Banned subscribers are excluded by the audience query.
// A failed audience lookup is logged and swallowed so post creation is
// never blocked by the push path.
func (d *Dispatcher) NotifyNewPost(ctx context.Context, authorID string) {
	l := slogx.FromContext(ctx)

	audience, err := d.Store.Subscriptions().ListActiveSubscriberIDs(ctx, authorID)
	if err != nil {
		l.Error("notify.audience.fail", "author_id", authorID, "err", err)
		return
	}

	n := NewPostNotification(authorID)
	for _, userID := range audience {
		d.Registry.Send(userID, n)
	}

	l.Debug("notify.new_post.dispatched",
		slog.String("author_id", authorID),
		slog.Int("audience", len(audience)),
	)
}

// NotifyNewSubscriber tells the author someone subscribed to them.
// Banned authors receive nothing, same as the audience filter on the
// post path.
func (d *Dispatcher) NotifyNewSubscriber(ctx context.Context, authorID, subscriberID string) {
	l := slogx.FromContext(ctx)

	author, err := d.Store.Users().GetUserByID(ctx, authorID)
	if err != nil {
		l.Error("notify.author.fail", "author_id", authorID, "err", err)
		return
	}
	if author.Banned {
		return
	}

	d.Registry.Send(authorID, NewSubscriberNotification(subscriberID))
}
