package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nockspace/murmur/internal/notify"
	"github.com/nockspace/murmur/internal/session/domain"
	"github.com/nockspace/murmur/internal/session/service"
	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/internal/session/store/drivers/sqlite"
	"github.com/nockspace/murmur/pkg/cryptox"
	"github.com/nockspace/murmur/pkg/idx"
	"github.com/nockspace/murmur/pkg/mailx"
	"github.com/nockspace/murmur/pkg/slogx"
	"github.com/nockspace/murmur/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	router   *Router
	store    store.Store
	sessions *service.SessionService
	registry *notify.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	access, err := tokenx.NewCodec([]byte("access-secret"), tokenx.ClassAccess, time.Minute)
	require.NoError(t, err)
	refresh, err := tokenx.NewCodec([]byte("refresh-secret"), tokenx.ClassRefresh, time.Hour)
	require.NoError(t, err)
	reset, err := tokenx.NewCodec([]byte("refresh-secret"), tokenx.ClassReset, time.Hour)
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{Service: "test", Level: "error", Format: "text"})
	registry := notify.NewRegistry(logger)
	dispatcher := &notify.Dispatcher{Store: st, Registry: registry}

	sessions := &service.SessionService{AccessCodec: access, RefreshCodec: refresh, Store: st}

	router := NewRouter(access, time.Hour, false, "test", st, logger)
	router.SessionService = sessions
	router.ResetService = &service.ResetService{Codec: reset, Store: st, Mailer: &mailx.LogMailer{}}
	router.UserService = &service.UserService{Store: st, Notifier: dispatcher}
	router.Gateway = notify.NewGateway(logger, registry, nil)
	router.Dispatcher = dispatcher
	router.ApplyRoutes()

	return &testEnv{router: router, store: st, sessions: sessions, registry: registry}
}

func (e *testEnv) createUser(t *testing.T, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)
	u := domain.User{ID: idx.New().String(), Email: email, PasswordHash: hash}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com", "correct horse")

	t.Run("success sets both cookies", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/login",
			`{"email":"alice@example.com","password":"correct horse"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		access := cookieByName(t, rec, "access_token")
		require.True(t, access.HttpOnly)
		require.Equal(t, "/", access.Path)

		refresh := cookieByName(t, rec, "refresh_token")
		require.True(t, refresh.HttpOnly)
		require.True(t, refresh.Secure)
		require.Equal(t, http.SameSiteStrictMode, refresh.SameSite)
		require.Equal(t, "/v1/token", refresh.Path)

		var resp tokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, access.Value, resp.AccessToken)

		// The refresh credential lives in its cookie only.
		require.NotContains(t, rec.Body.String(), refresh.Value)

		subject, err := env.sessions.Authorize(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, subject)
	})

	t.Run("bad credentials are a generic 401", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/login",
			`{"email":"alice@example.com","password":"wrong"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_credentials")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/login", `{"email":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com", "correct horse")

	pair, err := env.sessions.Login(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	t.Run("cookie refresh rotates the pair", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/token/refresh", "",
			&http.Cookie{Name: "refresh_token", Value: pair.RefreshToken})
		require.Equal(t, http.StatusOK, rec.Code)

		access := cookieByName(t, rec, "access_token")
		subject, err := env.sessions.Authorize(context.Background(), access.Value)
		require.NoError(t, err)
		require.Equal(t, u.ID, subject)

		refresh := cookieByName(t, rec, "refresh_token")
		require.NotContains(t, rec.Body.String(), refresh.Value)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/token/refresh", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an access token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/token/refresh", "",
			&http.Cookie{Name: "refresh_token", Value: pair.AccessToken})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a banned account", func(t *testing.T) {
		require.NoError(t, env.store.Users().SetBanned(context.Background(), u.ID, true))

		rec := env.do(http.MethodPost, "/v1/token/refresh", "",
			&http.Cookie{Name: "refresh_token", Value: pair.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	access := cookieByName(t, rec, "access_token")
	require.Less(t, access.MaxAge, 0)
	refresh := cookieByName(t, rec, "refresh_token")
	require.Less(t, refresh.MaxAge, 0)
}

func TestResetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice@example.com", "old password")

	t.Run("unknown email is 404", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/reset-password",
			`{"email":"nobody@example.com"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("known email queues the mail", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/reset-password",
			`{"email":"alice@example.com"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("confirm rejects a bad token as not found", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/reset-password/confirm",
			`{"token":"garbage","new_password":"whatever123"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "reset_token_invalid")
	})

	t.Run("confirm distinguishes an expired token", func(t *testing.T) {
		reset, err := tokenx.NewCodec([]byte("refresh-secret"), tokenx.ClassReset, time.Hour)
		require.NoError(t, err)
		expired, err := reset.SignClaims(
			tokenx.NewClaims("someone", tokenx.ClassReset, time.Hour, time.Now().Add(-2*time.Hour)))
		require.NoError(t, err)

		rec := env.do(http.MethodPost, "/v1/auth/reset-password/confirm",
			`{"token":"`+expired+`","new_password":"whatever123"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "reset_token_expired")
	})
}

func TestSubscriptionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "author@example.com", "password123")
	reader := env.createUser(t, "reader@example.com", "password123")

	readerPair, err := env.sessions.Login(context.Background(), "reader@example.com", "password123")
	require.NoError(t, err)
	authCookie := &http.Cookie{Name: "access_token", Value: readerPair.AccessToken}

	t.Run("requires authentication", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/subscriptions/"+author.ID, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("subscribe then unsubscribe", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/subscriptions/"+author.ID, "", authCookie)
		require.Equal(t, http.StatusCreated, rec.Code)

		ids, err := env.store.Subscriptions().ListActiveSubscriberIDs(context.Background(), author.ID)
		require.NoError(t, err)
		require.Equal(t, []string{reader.ID}, ids)

		rec = env.do(http.MethodDelete, "/v1/subscriptions/"+author.ID, "", authCookie)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/subscriptions/"+author.ID, "", authCookie)
		require.Equal(t, http.StatusCreated, rec.Code)
		rec = env.do(http.MethodPost, "/v1/subscriptions/"+author.ID, "", authCookie)
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestNewPostHook(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "author@example.com", "password123")
	reader := env.createUser(t, "reader@example.com", "password123")

	require.NoError(t, env.store.Subscriptions().CreateSubscription(context.Background(), domain.Subscription{
		ID:           idx.New().String(),
		AuthorID:     author.ID,
		SubscriberID: reader.ID,
	}))

	readerCh := notify.NewClient(reader.ID, 4)
	env.registry.Connect(readerCh)

	authorPair, err := env.sessions.Login(context.Background(), "author@example.com", "password123")
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/v1/notifications/new-post", "",
		&http.Cookie{Name: "access_token", Value: authorPair.AccessToken})
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, readerCh.Send, 1)
	n := <-readerCh.Send
	require.Equal(t, "new_post", n.Type)
	require.Contains(t, n.Text, author.ID)
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = env.do(http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}
