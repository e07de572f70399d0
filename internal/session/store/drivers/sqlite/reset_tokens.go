package sqlite

import (
	"context"
	"time"

	"github.com/nockspace/murmur/internal/session/domain"
)

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, t domain.ResetToken) error {
	// One live grant per user. Requesting again invalidates any earlier mail.
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM reset_tokens WHERE user_id = ?`, t.UserID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reset_tokens (id, user_id, token, expires_at)
		VALUES (?, ?, ?, ?)`,
		t.ID, t.UserID, t.Token, t.ExpiresAt.UTC())
	return err
}

func (r *resetTokensRepo) GetResetTokenByToken(ctx context.Context, token string) (domain.ResetToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, created_at
		FROM reset_tokens WHERE token = ?`, token)

	var t domain.ResetToken
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt); err != nil {
		return domain.ResetToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *resetTokensRepo) DeleteResetToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *resetTokensRepo) DeleteExpiredResetTokens(ctx context.Context) error {
	// Bound parameter rather than CURRENT_TIMESTAMP so the comparison
	// uses the same time encoding the driver wrote on insert.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reset_tokens WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
