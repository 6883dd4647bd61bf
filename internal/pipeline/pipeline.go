package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/library-api/internal/cache"
	"github.com/phrazzld/library-api/internal/config"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/redact"
	"github.com/phrazzld/library-api/internal/service/auth"
	"github.com/phrazzld/library-api/internal/store"
	"github.com/phrazzld/library-api/internal/version"
)

// Response headers set by the pipeline.
const (
	HeaderAPIVersion          = "Api-Version"
	HeaderSupportedAPIVersion = "Api-Supported-Versions"
	HeaderCacheControl        = "Cache-Control"
	HeaderHSTS                = "Strict-Transport-Security"
)

// DefaultMaxCacheBodyBytes is used when Config.MaxCacheBodyBytes is unset.
const DefaultMaxCacheBodyBytes = 1024

// Proceed invokes the remainder of the chain.
type Proceed func(req *Request) (*Response, error)

// Stage is one step of the chain. A stage either calls next or returns
// without it to short-circuit the stages after it.
type Stage interface {
	Name() string
	Process(req *Request, next Proceed) (*Response, error)
}

// TransportConfig controls the transport enforcement stage.
type TransportConfig struct {
	RequireTLS bool
	HTTPSPort  int
	HSTSMaxAge time.Duration
}

// TransportFromConfig builds the transport settings from server config.
func TransportFromConfig(cfg config.ServerConfig) TransportConfig {
	return TransportConfig{
		RequireTLS: cfg.RequireTLS,
		HTTPSPort:  cfg.HTTPSPort,
		HSTSMaxAge: time.Duration(cfg.HSTSMaxAgeSeconds) * time.Second,
	}
}

// Config holds the pipeline's collaborators. It is read once by New.
type Config struct {
	Transport TransportConfig

	Registry *cache.Registry
	// Store defaults to a process-local memory store.
	Store             cache.Store
	MaxCacheBodyBytes int

	// Tokens is required when any mounted route sets AuthRequired.
	Tokens   auth.TokenService
	Resolver *version.Resolver

	// NewUnitOfWork opens one repository wrapper per dispatched request.
	NewUnitOfWork func() store.RepositoryWrapper

	Logger *slog.Logger
}

// Pipeline is the composed stage chain. It is immutable after New and safe
// for concurrent use.
type Pipeline struct {
	registry      *cache.Registry
	resolver      *version.Resolver
	tokens        auth.TokenService
	newUnitOfWork func() store.RepositoryWrapper
	filter        *ErrorFilter
	logger        *slog.Logger

	stages []Stage
	chain  Proceed
}

// New validates cfg and composes the stages in their fixed order.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Registry == nil {
		return nil, domain.NewConfigurationError("pipeline requires a cache profile registry", nil)
	}
	if cfg.Resolver == nil {
		return nil, domain.NewConfigurationError("pipeline requires an API version resolver", nil)
	}
	if cfg.NewUnitOfWork == nil {
		return nil, domain.NewConfigurationError("pipeline requires a unit of work factory", nil)
	}
	if cfg.Transport.RequireTLS && cfg.Transport.HTTPSPort <= 0 {
		return nil, domain.NewConfigurationError("https port must be positive when TLS is required", nil)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "pipeline"))

	st := cfg.Store
	if st == nil {
		st = cache.NewMemoryStore(nil)
	}
	maxBody := cfg.MaxCacheBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxCacheBodyBytes
	}

	p := &Pipeline{
		registry:      cfg.Registry,
		resolver:      cfg.Resolver,
		tokens:        cfg.Tokens,
		newUnitOfWork: cfg.NewUnitOfWork,
		filter:        NewErrorFilter(log),
		logger:        log,
	}
	p.stages = []Stage{
		&transportStage{cfg: cfg.Transport},
		&cacheStage{store: st, resolver: cfg.Resolver, maxBodyBytes: maxBody, logger: log},
		&authStage{tokens: cfg.Tokens},
		&negotiateStage{resolver: cfg.Resolver},
	}
	p.chain = compose(p.stages, p.dispatch)
	return p, nil
}

// compose links the stages so that each one's next is the stage after it,
// ending in terminal.
func compose(stages []Stage, terminal Proceed) Proceed {
	next := terminal
	for i := len(stages) - 1; i >= 0; i-- {
		stage, after := stages[i], next
		next = func(req *Request) (*Response, error) {
			return stage.Process(req, after)
		}
	}
	return next
}

// StageNames lists the stages in execution order, dispatch excluded.
func (p *Pipeline) StageNames() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Filter returns the error filter used by the pipeline.
func (p *Pipeline) Filter() *ErrorFilter {
	return p.filter
}

// Mount registers routes on r. Every route is checked before any is
// registered: an unknown cache profile, a handler for an unregistered
// version, a route without handlers, or an authenticated route without a
// token service is a ConfigurationError.
func (p *Pipeline) Mount(r chi.Router, routes []Route) error {
	prepared := make([]*Route, 0, len(routes))
	for i := range routes {
		route := routes[i]
		if err := p.prepare(&route); err != nil {
			return err
		}
		prepared = append(prepared, &route)
	}

	for _, route := range prepared {
		r.Method(route.Method, route.Pattern, p.serve(route))
		p.logger.Debug("route mounted",
			slog.String("route", route.Name),
			slog.String("method", route.Method),
			slog.String("pattern", route.Pattern))
	}
	return nil
}

func (p *Pipeline) prepare(route *Route) error {
	if route.Method == "" || route.Pattern == "" {
		return domain.NewConfigurationError(fmt.Sprintf("route %q needs a method and a pattern", route.Name), nil)
	}
	if len(route.Handlers) == 0 {
		return domain.NewConfigurationError(fmt.Sprintf("route %q has no handlers", route.Name), nil)
	}
	for v := range route.Handlers {
		if !p.resolver.IsRegistered(v) {
			return domain.NewConfigurationError(
				fmt.Sprintf("route %q has a handler for unregistered API version %s", route.Name, v), nil)
		}
	}
	if route.AuthRequired && p.tokens == nil {
		return domain.NewConfigurationError(
			fmt.Sprintf("route %q requires authentication but no token service is configured", route.Name), nil)
	}
	if route.CacheProfile != "" {
		profile, err := p.registry.Lookup(route.CacheProfile)
		if err != nil {
			return fmt.Errorf("route %q: %w", route.Name, err)
		}
		route.profile = &profile
	}
	return nil
}

// serve adapts the chain to net/http for one route.
func (p *Pipeline) serve(route *Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := newRequest(r, route)

		var resp *Response
		err := p.filter.Guard(r.Context(), func() error {
			var err error
			resp, err = p.chain(req)
			return err
		})

		p.setHeaders(w.Header(), req)
		if err != nil {
			p.filter.Handle(w, req.HTTP, err)
			return
		}
		if resp == nil {
			resp = NoContent()
		}
		p.write(w, req, resp)
	})
}

// setHeaders applies the headers every response of the route carries.
func (p *Pipeline) setHeaders(h http.Header, req *Request) {
	h.Set(HeaderSupportedAPIVersion, p.resolver.SupportedHeader())
	if req.versionResolved {
		h.Set(HeaderAPIVersion, req.Version.String())
	}
	if profile := req.Route.profile; profile != nil {
		h.Set(HeaderCacheControl, profile.CacheControl())
	}
	for k, vs := range req.header {
		h[k] = vs
	}
}

func (p *Pipeline) write(w http.ResponseWriter, req *Request, resp *Response) {
	h := w.Header()
	for k, vs := range resp.Header {
		h[k] = vs
	}
	w.WriteHeader(resp.Status)
	if req.HTTP.Method == http.MethodHead || len(resp.Body) == 0 {
		return
	}
	if _, err := w.Write(resp.Body); err != nil {
		logger.FromContextOrDefault(req.Context(), p.logger).Debug("failed to write response body",
			slog.String("error", redact.Error(err)))
	}
}

// dispatch is the terminal step: it runs the handler for the negotiated
// version inside a fresh unit of work. Unsaved work is always discarded.
func (p *Pipeline) dispatch(req *Request) (*Response, error) {
	handler, ok := req.Route.Handlers[req.Version]
	if !ok {
		return nil, &domain.Error{
			Kind:    domain.KindNotFound,
			Reason:  domain.ReasonUnsupportedVersion,
			Message: fmt.Sprintf("API version %s is not supported by this endpoint", req.Version),
		}
	}

	uow := p.newUnitOfWork()
	req.Repos = uow
	defer func() {
		if err := uow.Rollback(); err != nil {
			logger.FromContextOrDefault(req.Context(), p.logger).Warn("failed to roll back unit of work",
				slog.String("route", req.Route.Name),
				slog.String("error", redact.Error(err)))
		}
	}()

	return handler(req)
}
