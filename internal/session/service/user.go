package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/pkg/cryptox"
	"github.com/nockspace/murmur/pkg/idx"
	"github.com/nockspace/murmur/pkg/slogx"
)

var (
	ErrEmailTaken        = errors.New("email_taken")
	ErrAlreadySubscribed = errors.New("already_subscribed")
	ErrNotSubscribed     = errors.New("not_subscribed")
	ErrSelfSubscription  = errors.New("self_subscription")
)

// SubscriberNotifier is notified after a subscription is created so the
// author can be told in real time. Implemented by notify.Dispatcher.
type SubscriberNotifier interface {
	NotifyNewSubscriber(ctx context.Context, authorID, subscriberID string)
}

// UserService handles account creation and the subscription graph the
// notification fan-out reads from.
type UserService struct {
	Store    store.Store
	Notifier SubscriberNotifier
}

// Register creates an account with a hashed password and returns it.
func (s *UserService) Register(ctx context.Context, email, nickname, password string) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Nickname:     strings.TrimSpace(nickname),
		PasswordHash: hash,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	return u, nil
}

// Subscribe makes subscriber follow author and tells the author about
// their new subscriber. Both sides must exist.
func (s *UserService) Subscribe(ctx context.Context, authorID, subscriberID string) error {
	if authorID == subscriberID {
		return ErrSelfSubscription
	}

	for _, id := range []string{authorID, subscriberID} {
		if _, err := s.Store.Users().GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
	}

	sub := domain.Subscription{
		ID:           idx.New().String(),
		AuthorID:     authorID,
		SubscriberID: subscriberID,
	}
	if err := s.Store.Subscriptions().CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadySubscribed
		}
		return err
	}

	if s.Notifier != nil {
		s.Notifier.NotifyNewSubscriber(ctx, authorID, subscriberID)
	} else {
		slogx.FromContext(ctx).Debug("no notifier wired, skipping new subscriber push")
	}
	return nil
}

// Unsubscribe removes the author/subscriber pair.
func (s *UserService) Unsubscribe(ctx context.Context, authorID, subscriberID string) error {
	err := s.Store.Subscriptions().DeleteSubscription(ctx, authorID, subscriberID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotSubscribed
	}
	return err
}
