package store

import (
	"context"
	"errors"

	"github.com/nockspace/murmur/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. We can change having the sub-repos as methods later but we do it
// now so we can have more control and actively stop people from accidently
// doing transactions within transactions.
type Store interface {
	Users() Users
	ResetTokens() ResetTokens
	Subscriptions() Subscriptions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., reset
	// redemption). The caller MUST call Commit() or Rollback() on the
	// returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and password reset requests.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetBanned flips the banned flag and bumps updated_at.
	SetBanned(ctx context.Context, userID string, banned bool) error

	// DeleteUser cascades to reset_tokens and subscriptions (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type ResetTokens interface {
	// CreateResetToken stores a freshly minted reset grant. At most one
	// live grant per user; creating replaces any previous one.
	CreateResetToken(ctx context.Context, t domain.ResetToken) error

	// GetResetTokenByToken fetches a grant by its signed blob when redeeming.
	GetResetTokenByToken(ctx context.Context, token string) (domain.ResetToken, error)

	// DeleteResetToken removes a redeemed grant so it cannot be replayed.
	DeleteResetToken(ctx context.Context, id string) error

	// DeleteExpiredResetTokens is housekeeping for grants that were never redeemed.
	DeleteExpiredResetTokens(ctx context.Context) error
}

type Subscriptions interface {
	// CreateSubscription makes subscriber follow author.
	CreateSubscription(ctx context.Context, s domain.Subscription) error

	// DeleteSubscription removes the author/subscriber pair.
	DeleteSubscription(ctx context.Context, authorID, subscriberID string) error

	// ListActiveSubscriberIDs returns the ids of every non-banned user
	// subscribed to the author. This is the notification audience.
	ListActiveSubscriberIDs(ctx context.Context, authorID string) ([]string, error)
}
