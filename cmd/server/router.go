package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/library-api/internal/api"
	apiMiddleware "github.com/phrazzld/library-api/internal/api/middleware"
	"github.com/phrazzld/library-api/internal/cache"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/pipeline"
	"github.com/phrazzld/library-api/internal/version"
)

// setupRouter creates the router: edge middleware, the health check, and
// every API route mounted through the request pipeline.
func (app *application) setupRouter() (http.Handler, error) {
	if app.newUnitOfWork == nil {
		return nil, domain.NewConfigurationError("no unit of work factory configured", nil)
	}

	p, err := pipeline.New(pipeline.Config{
		Transport:         pipeline.TransportFromConfig(app.config.Server),
		Registry:          app.registry,
		Store:             app.responseCache,
		MaxCacheBodyBytes: app.config.Cache.MaxBodyBytes,
		Tokens:            app.tokens,
		Resolver:          app.resolver,
		NewUnitOfWork:     app.newUnitOfWork,
		Logger:            app.logger,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p.Filter().Handle(w, r, domain.NewNotFoundError("the requested resource does not exist"))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	if err := p.Mount(r, app.routes()); err != nil {
		return nil, err
	}
	return r, nil
}

// routes is the route table. Stage order is fixed by the pipeline; each
// route only declares its cache profile, auth requirement, roles and the
// handler for every API version it serves.
func (app *application) routes() []pipeline.Route {
	accounts := api.NewAccountHandler(app.tokens, app.passwordVerifier, app.logger)
	authors := api.NewAuthorHandler(app.logger)
	books := api.NewBookHandler(app.logger)

	admin := []string{domain.RoleAdministrator}

	return []pipeline.Route{
		{
			Name:         "account.login",
			Method:       http.MethodPost,
			Pattern:      "/account/login",
			CacheProfile: cache.ProfileNever,
			Handlers:     app.allVersions(accounts.Login),
		},
		{
			Name:         "authors.list",
			Method:       http.MethodGet,
			Pattern:      "/api/authors",
			CacheProfile: cache.ProfileDefault,
			Handlers:     app.authorListHandlers(authors),
		},
		{
			Name:         "authors.get",
			Method:       http.MethodGet,
			Pattern:      "/api/authors/{authorId}",
			CacheProfile: cache.ProfileDefault,
			Handlers:     app.allVersions(authors.Get),
		},
		{
			Name:         "authors.create",
			Method:       http.MethodPost,
			Pattern:      "/api/authors",
			CacheProfile: cache.ProfileNever,
			AuthRequired: true,
			Roles:        admin,
			Handlers:     app.allVersions(authors.Create),
		},
		{
			Name:         "authors.delete",
			Method:       http.MethodDelete,
			Pattern:      "/api/authors/{authorId}",
			CacheProfile: cache.ProfileNever,
			AuthRequired: true,
			Roles:        admin,
			Handlers:     app.allVersions(authors.Delete),
		},
		{
			Name:         "books.list",
			Method:       http.MethodGet,
			Pattern:      "/api/authors/{authorId}/books",
			CacheProfile: cache.ProfileDefault,
			Handlers:     app.allVersions(books.List),
		},
		{
			Name:         "books.get",
			Method:       http.MethodGet,
			Pattern:      "/api/authors/{authorId}/books/{bookId}",
			CacheProfile: cache.ProfileDefault,
			Handlers:     app.allVersions(books.Get),
		},
		{
			Name:         "books.create",
			Method:       http.MethodPost,
			Pattern:      "/api/authors/{authorId}/books",
			CacheProfile: cache.ProfileNever,
			AuthRequired: true,
			Handlers:     app.allVersions(books.Create),
		},
		{
			Name:         "books.update",
			Method:       http.MethodPut,
			Pattern:      "/api/authors/{authorId}/books/{bookId}",
			CacheProfile: cache.ProfileNever,
			AuthRequired: true,
			Handlers:     app.allVersions(books.Update),
		},
		{
			Name:         "books.delete",
			Method:       http.MethodDelete,
			Pattern:      "/api/authors/{authorId}/books/{bookId}",
			CacheProfile: cache.ProfileNever,
			AuthRequired: true,
			Handlers:     app.allVersions(books.Delete),
		},
	}
}

// allVersions registers h for every configured API version.
func (app *application) allVersions(h pipeline.Handler) map[version.APIVersion]pipeline.Handler {
	handlers := make(map[version.APIVersion]pipeline.Handler)
	for _, v := range app.resolver.Versions() {
		handlers[v] = h
	}
	return handlers
}

// authorListHandlers serves the plain list before 2.0 and the paged
// envelope from 2.0 on.
func (app *application) authorListHandlers(h *api.AuthorHandler) map[version.APIVersion]pipeline.Handler {
	handlers := make(map[version.APIVersion]pipeline.Handler)
	for _, v := range app.resolver.Versions() {
		if v.Major < 2 {
			handlers[v] = h.ListV1
		} else {
			handlers[v] = h.ListV2
		}
	}
	return handlers
}
