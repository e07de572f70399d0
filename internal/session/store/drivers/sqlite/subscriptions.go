package sqlite

import (
	"context"
	"strings"

	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/internal/session/store"
)

type subscriptionsRepo struct {
	db dbtx
}

func (r *subscriptionsRepo) CreateSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, author_id, subscriber_id)
		VALUES (?, ?, ?)`,
		s.ID, s.AuthorID, s.SubscriberID)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *subscriptionsRepo) DeleteSubscription(ctx context.Context, authorID, subscriberID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE author_id = ? AND subscriber_id = ?`,
		authorID, subscriberID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListActiveSubscriberIDs filters banned subscribers in SQL so the
// fan-out path never has to look users up one by one.
func (r *subscriptionsRepo) ListActiveSubscriberIDs(ctx context.Context, authorID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.subscriber_id
		FROM subscriptions s
		JOIN users u ON u.id = s.subscriber_id
		WHERE s.author_id = ? AND u.banned = 0
		ORDER BY s.created_at`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
