package pipeline

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/library-api/internal/api/shared"
	"github.com/phrazzld/library-api/internal/cache"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/redact"
	"github.com/phrazzld/library-api/internal/service/auth"
	"github.com/phrazzld/library-api/internal/version"
)

// transportStage redirects plain-HTTP requests to HTTPS when TLS is
// required, and marks secure responses with HSTS.
type transportStage struct {
	cfg TransportConfig
}

func (s *transportStage) Name() string { return "transport" }

func (s *transportStage) Process(req *Request, next Proceed) (*Response, error) {
	if !s.cfg.RequireTLS {
		return next(req)
	}
	if !isSecure(req.HTTP) {
		h := make(http.Header)
		h.Set("Location", s.httpsURL(req.HTTP))
		return &Response{Status: http.StatusTemporaryRedirect, Header: h}, nil
	}
	req.header.Set(HeaderHSTS, fmt.Sprintf("max-age=%d", int(s.cfg.HSTSMaxAge/time.Second)))
	return next(req)
}

func (s *transportStage) httpsURL(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	switch {
	case s.cfg.HTTPSPort != 443:
		host = net.JoinHostPort(host, strconv.Itoa(s.cfg.HTTPSPort))
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	return "https://" + host + r.URL.RequestURI()
}

// isSecure reports whether the request arrived over TLS, directly or via a
// terminating proxy.
func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// cacheStage serves fresh responses from the store and stores new 200
// responses after the rest of the chain has run. Entries are keyed by the
// negotiated version; a request whose version does not resolve bypasses the
// cache and fails in negotiation.
type cacheStage struct {
	store        cache.Store
	resolver     *version.Resolver
	maxBodyBytes int
	logger       *slog.Logger
}

func (s *cacheStage) Name() string { return "cache" }

func (s *cacheStage) Process(req *Request, next Proceed) (*Response, error) {
	profile := req.Route.profile
	if !s.applies(req, profile) {
		return next(req)
	}

	v, err := s.resolver.Resolve(req.HTTP)
	if err != nil {
		return next(req)
	}

	ctx := req.Context()
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := cache.Key(req.HTTP, v.String())

	entry, ok, err := s.store.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn("response cache lookup failed", slog.String("error", redact.Error(err)))
	case ok:
		log.Debug("response served from cache", slog.String("route", req.Route.Name))
		return &Response{Status: entry.Status, Header: entry.Header.Clone(), Body: entry.Body}, nil
	}

	resp, err := next(req)
	if err != nil || resp == nil {
		return resp, err
	}
	if resp.Status != http.StatusOK || len(resp.Body) > s.maxBodyBytes {
		return resp, nil
	}
	if ctx.Err() != nil {
		log.Debug("request abandoned, response not cached", slog.String("route", req.Route.Name))
		return resp, nil
	}

	header := resp.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if req.versionResolved {
		header.Set(HeaderAPIVersion, req.Version.String())
	}
	stored := &cache.Entry{Status: resp.Status, Header: header, Body: resp.Body}
	if err := s.store.Set(ctx, key, stored, profile.Duration); err != nil {
		log.Warn("response cache store failed", slog.String("error", redact.Error(err)))
	}
	return resp, nil
}

// applies reports whether the request may use the cache. Requests carrying
// credentials always bypass it so that per-user responses are never shared.
func (s *cacheStage) applies(req *Request, profile *cache.Profile) bool {
	if s.store == nil || profile == nil || !profile.Cacheable() {
		return false
	}
	if req.HTTP.Method != http.MethodGet && req.HTTP.Method != http.MethodHead {
		return false
	}
	return req.HTTP.Header.Get("Authorization") == ""
}

// authStage validates the bearer token and enforces route roles.
type authStage struct {
	tokens auth.TokenService
}

func (s *authStage) Name() string { return "authenticate" }

func (s *authStage) Process(req *Request, next Proceed) (*Response, error) {
	if !req.Route.AuthRequired {
		return next(req)
	}

	raw, err := auth.BearerToken(req.HTTP.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	principal, err := s.tokens.ValidateToken(req.Context(), raw)
	if err != nil {
		return nil, err
	}
	if !principal.HasAnyRole(req.Route.Roles...) {
		return nil, domain.NewAuthorizationError("insufficient role")
	}

	req.Principal = principal
	req.HTTP = req.HTTP.WithContext(shared.WithPrincipal(req.Context(), principal))
	return next(req)
}

// negotiateStage resolves the API version of the request.
type negotiateStage struct {
	resolver *version.Resolver
}

func (s *negotiateStage) Name() string { return "negotiate" }

func (s *negotiateStage) Process(req *Request, next Proceed) (*Response, error) {
	v, err := s.resolver.Resolve(req.HTTP)
	if err != nil {
		return nil, err
	}
	req.Version = v
	req.versionResolved = true
	return next(req)
}
