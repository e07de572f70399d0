package notify

import (
	"context"
	"testing"

	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/internal/session/store/drivers/sqlite"
	"github.com/nockspace/murmur/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store, email string, banned bool) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "unused",
		Banned:       banned,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func seedSubscription(t *testing.T, st store.Store, authorID, subscriberID string) {
	t.Helper()

	require.NoError(t, st.Subscriptions().CreateSubscription(context.Background(), domain.Subscription{
		ID:           idx.New().String(),
		AuthorID:     authorID,
		SubscriberID: subscriberID,
	}))
}

func TestNotifyNewPost(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	registry := NewRegistry(testLogger())
	d := &Dispatcher{Store: st, Registry: registry}

	author := seedUser(t, st, "author@example.com", false)
	subscriber := seedUser(t, st, "subscriber@example.com", false)
	banned := seedUser(t, st, "banned@example.com", true)
	bystander := seedUser(t, st, "bystander@example.com", false)

	seedSubscription(t, st, author.ID, subscriber.ID)
	seedSubscription(t, st, author.ID, banned.ID)

	subscriberCh := NewClient(subscriber.ID, 4)
	bannedCh := NewClient(banned.ID, 4)
	bystanderCh := NewClient(bystander.ID, 4)
	registry.Connect(subscriberCh)
	registry.Connect(bannedCh)
	registry.Connect(bystanderCh)

	d.NotifyNewPost(ctx, author.ID)

	t.Run("subscriber receives exactly one event", func(t *testing.T) {
		require.Len(t, subscriberCh.Send, 1)
		n := <-subscriberCh.Send
		require.Equal(t, TypeNewPost, n.Type)
		require.Equal(t, "User with id "+author.ID+" created new post!", n.Text)
	})

	t.Run("banned subscriber receives nothing", func(t *testing.T) {
		require.Empty(t, bannedCh.Send)
	})

	t.Run("non-subscriber receives nothing", func(t *testing.T) {
		require.Empty(t, bystanderCh.Send)
	})

	t.Run("offline subscribers do not fail the fan-out", func(t *testing.T) {
		registry.Disconnect(subscriberCh)
		require.NotPanics(t, func() { d.NotifyNewPost(ctx, author.ID) })
	})
}

func TestNotifyNewSubscriber(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	registry := NewRegistry(testLogger())
	d := &Dispatcher{Store: st, Registry: registry}

	author := seedUser(t, st, "author@example.com", false)
	subscriber := seedUser(t, st, "subscriber@example.com", false)

	authorCh := NewClient(author.ID, 4)
	registry.Connect(authorCh)

	d.NotifyNewSubscriber(ctx, author.ID, subscriber.ID)

	require.Len(t, authorCh.Send, 1)
	n := <-authorCh.Send
	require.Equal(t, TypeNewSubscriber, n.Type)
	require.Equal(t, "User with id "+subscriber.ID+" subscribed to you!", n.Text)

	t.Run("banned author receives nothing", func(t *testing.T) {
		require.NoError(t, st.Users().SetBanned(ctx, author.ID, true))

		d.NotifyNewSubscriber(ctx, author.ID, subscriber.ID)
		require.Empty(t, authorCh.Send)
	})
}
