package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nockspace/murmur/internal/notify"
	httpapi "github.com/nockspace/murmur/internal/session/http"
	"github.com/nockspace/murmur/internal/session/service"
	"github.com/nockspace/murmur/internal/session/store"
	"github.com/nockspace/murmur/internal/session/store/drivers/sqlite"
	"github.com/nockspace/murmur/pkg/cryptox"
	"github.com/nockspace/murmur/pkg/mailx"
	"github.com/nockspace/murmur/pkg/slogx"
	"github.com/nockspace/murmur/pkg/tokenx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the session service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db           store.Store
	accessCodec  *tokenx.Codec
	refreshCodec *tokenx.Codec
	resetCodec   *tokenx.Codec
	mailer       mailx.Mailer

	// Services
	sessionService      *service.SessionService
	resetService        *service.ResetService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// Notification fan-out
	registry   *notify.Registry
	dispatcher *notify.Dispatcher
	gateway    *notify.Gateway

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "session-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initCodecs(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("session service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down session service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server. Push channels are torn down implicitly:
	// their request contexts cancel when the server stops.
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("session service stopped")
	return nil
}

// initCodecs builds the three token codecs. Missing secrets are
// generated in dev so the service comes up without configuration;
// outside dev they are required.
func (app *Application) initCodecs() error {
	accessSecret := app.cfg.AccessSecret
	refreshSecret := app.cfg.RefreshSecret

	if accessSecret == "" || refreshSecret == "" {
		if app.cfg.Env != "dev" {
			return fmt.Errorf("SESSION_ACCESS_SECRET and SESSION_REFRESH_SECRET are required in %s", app.cfg.Env)
		}
		accessSecret = cryptox.MustGenerateSecret(cryptox.SecretSize256)
		refreshSecret = cryptox.MustGenerateSecret(cryptox.SecretSize256)
		app.logger.Warn("generated ephemeral signing secrets, sessions will not survive a restart")
	}

	var err error
	if app.accessCodec, err = tokenx.NewCodec([]byte(accessSecret), tokenx.ClassAccess, app.cfg.AccessTTL); err != nil {
		return fmt.Errorf("access codec: %w", err)
	}
	if app.refreshCodec, err = tokenx.NewCodec([]byte(refreshSecret), tokenx.ClassRefresh, app.cfg.RefreshTTL); err != nil {
		return fmt.Errorf("refresh codec: %w", err)
	}
	// Reset links share the refresh secret and lifetime but carry their
	// own class, so one can never pass as the other.
	if app.resetCodec, err = tokenx.NewCodec([]byte(refreshSecret), tokenx.ClassReset, app.cfg.RefreshTTL); err != nil {
		return fmt.Errorf("reset codec: %w", err)
	}
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.SMTPAddr == "" {
		app.logger.Warn("SMTP_ADDR not set, reset mails are logged instead of sent")
		app.mailer = &mailx.LogMailer{}
		return
	}
	app.mailer = &mailx.SMTPMailer{
		Addr:     app.cfg.SMTPAddr,
		From:     app.cfg.SMTPFrom,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		ResetURL: app.cfg.ResetURL,
	}
}

// initServices initializes business logic services and the fan-out
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		AccessCodec:  app.accessCodec,
		RefreshCodec: app.refreshCodec,
		Store:   app.db,
	}

	app.resetService = &service.ResetService{
		Codec:  app.resetCodec,
		Store:  app.db,
		Mailer: app.mailer,
	}

	app.registry = notify.NewRegistry(app.logger)
	app.dispatcher = &notify.Dispatcher{Store: app.db, Registry: app.registry}
	app.gateway = notify.NewGateway(app.logger, app.registry, app.cfg.AllowedOrigins)

	app.userService = &service.UserService{
		Store:    app.db,
		Notifier: app.dispatcher,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.accessCodec,
		app.cfg.RefreshTTL,
		app.cfg.SecureCookies,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.SessionService = app.sessionService
	router.ResetService = app.resetService
	router.UserService = app.userService
	router.Gateway = app.gateway
	router.Dispatcher = app.dispatcher
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
