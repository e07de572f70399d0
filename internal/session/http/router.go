package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nockspace/murmur/internal/notify"
	"github.com/nockspace/murmur/internal/session/service"
	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/pkg/httpx"
	"github.com/nockspace/murmur/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier      httpx.AccessVerifier
	refreshTTL    time.Duration
	secureCookies bool
	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger

	store          store.Store
	SessionService *service.SessionService
	ResetService   *service.ResetService
	UserService    *service.UserService
	Gateway        *notify.Gateway
	Dispatcher     *notify.Dispatcher
}

func NewRouter(
	verifier httpx.AccessVerifier,
	refreshTTL time.Duration,
	secureCookies bool,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		verifier:      verifier,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSubscriptions()
	r.registerNotifications()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /auth/register - strict rate limit by IP (public signup endpoint)
	registerHandler := &RegisterHandler{UserService: r.UserService}
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/login - strict rate limit by IP + email to slow brute force
	loginHandler := &LoginHandler{
		SessionService: r.SessionService,
		RefreshTTL:     r.refreshTTL,
		SecureCookies:  r.secureCookies,
	}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndBodyField(httpx.StrictLimit, "email"),
		),
	)

	// POST /auth/logout - nothing to verify, just clears cookies
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /token/refresh - moderate rate limit (expected periodic churn)
	refreshHandler := &RefreshHandler{
		SessionService: r.SessionService,
		RefreshTTL:     r.refreshTTL,
		SecureCookies:  r.secureCookies,
	}
	r.Mux.Handle("POST /v1/token/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Reset endpoints - strict limits, both are unauthenticated
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(&ResetRequestHandler{ResetService: r.ResetService},
			httpx.RateLimitByIPAndBodyField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /v1/auth/reset-password/confirm",
		httpx.Chain(&ResetConfirmHandler{ResetService: r.ResetService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSubscriptions() {
	h := &SubscriptionHandler{UserService: r.UserService}

	r.Mux.Handle("POST /v1/subscriptions/{author_id}",
		httpx.Chain(http.HandlerFunc(h.HandleSubscribe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/subscriptions/{author_id}",
		httpx.Chain(http.HandlerFunc(h.HandleUnsubscribe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerNotifications() {
	h := &NotificationsHandler{Gateway: r.Gateway, Dispatcher: r.Dispatcher}

	// Push channel handshakes are cheap; lenient limit
	r.Mux.Handle("GET /v1/notifications/{user_id}",
		httpx.Chain(http.HandlerFunc(h.HandleChannel),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Fan-out hook, called by the posting service on behalf of the author
	r.Mux.Handle("POST /v1/notifications/new-post",
		httpx.Chain(http.HandlerFunc(h.HandleNewPost),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
