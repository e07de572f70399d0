package service

import (
	"context"
	"errors"
	"time"

	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/pkg/cryptox"
	"github.com/nockspace/murmur/pkg/idx"
	"github.com/nockspace/murmur/pkg/mailx"
	"github.com/nockspace/murmur/pkg/slogx"
	"github.com/nockspace/murmur/pkg/tokenx"
)

var (
	ErrResetTokenNotFound = errors.New("reset_token_not_found")
	ErrResetTokenExpired  = errors.New("reset_token_expired")
)

// ResetService drives the password reset flow. The mailed token is a
// signed blob, but unlike session tokens it is also persisted: the row
// is what makes the grant single-use. Redeeming deletes the row and
// updates the password in one transaction.
type ResetService struct {
	Codec  *tokenx.Codec
	Store  store.Store
	Mailer mailx.Mailer
}

// RequestReset mints a reset grant for the account behind email and
// mails it. Returns ErrUserNotFound for unknown emails. Requesting
// again replaces any earlier grant for the same user.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	now := time.Now()
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := s.Codec.Sign(u.ID, now)
	if err != nil {
		return err
	}

	grant := domain.ResetToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: now.Add(s.Codec.TTL()),
	}
	if err := s.Store.ResetTokens().CreateResetToken(ctx, grant); err != nil {
		return err
	}

	// Mail delivery must not hold the request open. A lost mail is
	// recovered by requesting again.
	go func() {
		if err := s.Mailer.SendPasswordReset(context.Background(), u.Email, token); err != nil {
			l.Error("reset mail delivery failed", "user_id", u.ID, "err", err)
		}
	}()

	return nil
}

// ConfirmReset redeems a reset grant and sets the new password. The
// signature and expiry are checked first, then the persisted row is
// consumed and the password updated atomically. A second confirm with
// the same token fails because the row is gone; expired rows are left
// for housekeeping.
func (s *ResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.Codec.Verify(token, time.Now())
	if err != nil {
		if errors.Is(err, tokenx.ErrExpired) {
			return ErrResetTokenExpired
		}
		return ErrResetTokenNotFound
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		grant, err := tx.ResetTokens().GetResetTokenByToken(ctx, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrResetTokenNotFound
			}
			return err
		}
		if grant.UserID != claims.Subject {
			return ErrResetTokenNotFound
		}

		if err := tx.ResetTokens().DeleteResetToken(ctx, grant.ID); err != nil {
			return err
		}
		return tx.Users().UpdatePasswordHash(ctx, grant.UserID, newHash)
	})
}
