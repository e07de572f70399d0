package service

import (
	"context"
	"testing"
	"time"

	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/pkg/idx"
	"github.com/nockspace/murmur/pkg/mailx"
	"github.com/nockspace/murmur/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

func newResetService(t *testing.T) (*ResetService, *SessionService, *mailx.LogMailer) {
	t.Helper()

	st := newTestStore(t)
	mailer := &mailx.LogMailer{}
	reset := &ResetService{
		Codec:  newTestCodec(t, "refresh-secret", tokenx.ClassReset, time.Hour),
		Store:  st,
		Mailer: mailer,
	}
	return reset, newSessionService(t, st), mailer
}

func mailedToken(t *testing.T, mailer *mailx.LogMailer, n int) string {
	t.Helper()

	// Mail delivery happens off the request goroutine.
	require.Eventually(t, func() bool {
		return len(mailer.Sent()) >= n
	}, time.Second, 10*time.Millisecond)

	sent := mailer.Sent()
	return sent[len(sent)-1].Token
}

func TestRequestReset(t *testing.T) {
	ctx := context.Background()
	reset, _, mailer := newResetService(t)
	u := createUser(t, reset.Store, "alice@example.com", "old password", false)

	t.Run("unknown email is reported", func(t *testing.T) {
		err := reset.RequestReset(ctx, "nobody@example.com")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("mails a verifiable token and persists the grant", func(t *testing.T) {
		require.NoError(t, reset.RequestReset(ctx, "alice@example.com"))

		token := mailedToken(t, mailer, 1)
		claims, err := reset.Codec.Verify(token, time.Now())
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)

		grant, err := reset.Store.ResetTokens().GetResetTokenByToken(ctx, token)
		require.NoError(t, err)
		require.Equal(t, u.ID, grant.UserID)
	})

	t.Run("a second request replaces the first grant", func(t *testing.T) {
		require.NoError(t, reset.RequestReset(ctx, "alice@example.com"))
		first := mailedToken(t, mailer, 2)

		require.NoError(t, reset.RequestReset(ctx, "alice@example.com"))
		second := mailedToken(t, mailer, 3)

		require.ErrorIs(t, reset.ConfirmReset(ctx, first, "new password 1"), ErrResetTokenNotFound)
		require.NoError(t, reset.ConfirmReset(ctx, second, "new password 2"))
	})
}

func TestConfirmReset(t *testing.T) {
	ctx := context.Background()
	reset, sessions, mailer := newResetService(t)
	u := createUser(t, reset.Store, "alice@example.com", "old password", false)

	require.NoError(t, reset.RequestReset(ctx, "alice@example.com"))
	token := mailedToken(t, mailer, 1)

	t.Run("updates the password and consumes the grant", func(t *testing.T) {
		require.NoError(t, reset.ConfirmReset(ctx, token, "new password"))

		_, err := sessions.Login(ctx, "alice@example.com", "old password")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = sessions.Login(ctx, "alice@example.com", "new password")
		require.NoError(t, err)
	})

	t.Run("single use: a second confirm fails", func(t *testing.T) {
		err := reset.ConfirmReset(ctx, token, "another password")
		require.ErrorIs(t, err, ErrResetTokenNotFound)

		// The first reset still stands.
		_, err = sessions.Login(ctx, "alice@example.com", "new password")
		require.NoError(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		err := reset.ConfirmReset(ctx, "garbage", "whatever")
		require.ErrorIs(t, err, ErrResetTokenNotFound)
	})

	t.Run("expired token is reported distinctly and leaves the row", func(t *testing.T) {
		expired, err := reset.Codec.SignClaims(
			tokenx.NewClaims(u.ID, tokenx.ClassReset, time.Hour, time.Now().Add(-2*time.Hour)))
		require.NoError(t, err)

		grant := domain.ResetToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			Token:     expired,
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, reset.Store.ResetTokens().CreateResetToken(ctx, grant))

		err = reset.ConfirmReset(ctx, expired, "whatever")
		require.ErrorIs(t, err, ErrResetTokenExpired)

		// Housekeeping, not ConfirmReset, removes expired grants.
		_, err = reset.Store.ResetTokens().GetResetTokenByToken(ctx, expired)
		require.NoError(t, err)

		require.NoError(t, reset.Store.ResetTokens().DeleteExpiredResetTokens(ctx))
		_, err = reset.Store.ResetTokens().GetResetTokenByToken(ctx, expired)
		require.Error(t, err)
	})
}
