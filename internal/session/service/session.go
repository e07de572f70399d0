package service

import (
	"context"
	"errors"
	"time"

	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/pkg/cryptox"
	"github.com/nockspace/murmur/pkg/slogx"
	"github.com/nockspace/murmur/pkg/tokenx"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password
	// so the login endpoint cannot be used to probe which emails exist.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrUserNotFound = errors.New("user_not_found")
)

// SessionService issues and verifies the access/refresh token pair.
// Sessions are stateless: nothing is persisted at login, and logout is
// purely cookie removal at the transport layer. A refresh reissues both
// tokens but cannot invalidate the old refresh token before its expiry;
// revocation would need a persisted token table.
type SessionService struct {
	AccessCodec  *tokenx.Codec
	RefreshCodec *tokenx.Codec
	Store        store.Store
}

// Login verifies the email/password pair and mints a fresh token pair.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("login password verification failed", "user_id", u.ID)
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	// Banned accounts keep the uniform error so a ban is not
	// distinguishable from a bad password.
	if u.Banned {
		l.Info("login rejected for banned user", "user_id", u.ID)
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	return s.mint(u.ID, time.Now())
}

// Authorize verifies an access token and returns the subject user id.
// Returns tokenx.ErrExpired when the token has lapsed so the caller can
// attempt a refresh, and tokenx.ErrMalformed for anything else.
func (s *SessionService) Authorize(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.AccessCodec.Verify(accessToken, time.Now())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// AuthorizeOrRefresh verifies the access token and, when it has merely
// expired, makes exactly one attempt to refresh. The returned pair is
// nil when the original access token was still good; a non-nil pair
// means the caller should reissue cookies. Any failure of the refresh
// attempt is terminal for the request.
func (s *SessionService) AuthorizeOrRefresh(ctx context.Context, accessToken, refreshToken string) (string, *domain.TokenPair, error) {
	userID, err := s.Authorize(ctx, accessToken)
	if err == nil {
		return userID, nil, nil
	}
	if !errors.Is(err, tokenx.ErrExpired) || refreshToken == "" {
		return "", nil, err
	}

	pair, err := s.Refresh(ctx, refreshToken)
	if err != nil {
		return "", nil, err
	}
	claims, err := s.AccessCodec.Verify(pair.AccessToken, time.Now())
	if err != nil {
		return "", nil, err
	}
	return claims.Subject, &pair, nil
}

// Refresh verifies a refresh token and mints a new pair for the same
// subject. The user row is re-checked so tokens for a deleted or banned
// account stop refreshing even before the refresh token expires.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.RefreshCodec.Verify(refreshToken, time.Now())
	if err != nil {
		return domain.TokenPair{}, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}
	if u.Banned {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	return s.mint(claims.Subject, time.Now())
}

func (s *SessionService) mint(userID string, now time.Time) (domain.TokenPair, error) {
	access, err := s.AccessCodec.Sign(userID, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.RefreshCodec.Sign(userID, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessCodec.TTL(),
	}, nil
}
