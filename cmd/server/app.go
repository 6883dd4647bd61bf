package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/library-api/internal/cache"
	"github.com/phrazzld/library-api/internal/config"
	"github.com/phrazzld/library-api/internal/platform/postgres"
	"github.com/phrazzld/library-api/internal/service/auth"
	"github.com/phrazzld/library-api/internal/store"
	"github.com/phrazzld/library-api/internal/version"
)

// application holds the shared dependencies of the server, built once at
// startup and never mutated while serving.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Persistence
	newUnitOfWork func() store.RepositoryWrapper

	// Authentication
	tokens           auth.TokenService
	passwordVerifier auth.PasswordVerifier

	// Pipeline collaborators
	registry      *cache.Registry
	resolver      *version.Resolver
	responseCache cache.Store
	closeCache    func() error
}

// newApplication creates the application with all dependencies initialized.
// A nil db leaves the unit of work factory unset for the caller to supply.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}
	if db != nil {
		app.newUnitOfWork = postgres.NewRepositoryWrapperFactory(db, logger)
	}

	var err error
	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("token service initialized",
		"issuer", cfg.Auth.TokenIssuer,
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.registry, err = cache.NewRegistryFromConfig(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache profile registry: %w", err)
	}
	for _, name := range []string{cache.ProfileDefault, cache.ProfileNever} {
		if _, err := app.registry.Lookup(name); err != nil {
			return nil, fmt.Errorf("required cache profile missing: %w", err)
		}
	}

	app.resolver, err = version.NewResolverFromConfig(cfg.API)
	if err != nil {
		return nil, fmt.Errorf("failed to build API version resolver: %w", err)
	}

	if err := app.setupResponseCache(ctx); err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		"api_versions", app.resolver.SupportedHeader(),
		"default_api_version", app.resolver.Default().String())
	return app, nil
}

// setupResponseCache connects the configured response store backend.
func (app *application) setupResponseCache(ctx context.Context) error {
	switch app.config.Cache.Backend {
	case "redis":
		rs, err := cache.NewRedisStore(ctx, app.config.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect response cache: %w", err)
		}
		app.responseCache = rs
		app.closeCache = rs.Close
		app.logger.Info("response cache backend: redis")
	default:
		app.responseCache = cache.NewMemoryStore(nil)
		app.logger.Info("response cache backend: memory")
	}
	return nil
}

// Run starts the HTTP server and blocks until ctx is canceled and the
// server has shut down.
func (app *application) Run(ctx context.Context) error {
	router, err := app.setupRouter()
	if err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources owned by the application. The database is
// owned by the caller of newApplication.
func (app *application) cleanup() {
	if app.closeCache != nil {
		if err := app.closeCache(); err != nil {
			app.logger.Error("error closing response cache", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
