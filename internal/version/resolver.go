package version

import (
	"fmt"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/phrazzld/library-api/internal/config"
	"github.com/phrazzld/library-api/internal/domain"
)

// Resolver determines the API version of a request. It is immutable and
// safe for concurrent use.
type Resolver struct {
	versions       []APIVersion
	defaultVersion APIVersion
	queryParam     string
	mediaTypeParam string
	supported      string
}

// NewResolver creates a resolver over the registered versions. The default
// version must be one of them.
func NewResolver(
	versions []APIVersion,
	defaultVersion APIVersion,
	queryParam, mediaTypeParam string,
) (*Resolver, error) {
	if len(versions) == 0 {
		return nil, domain.NewConfigurationError("at least one API version must be registered", nil)
	}

	sorted := slices.Clone(versions)
	slices.SortFunc(sorted, APIVersion.Compare)
	sorted = slices.Compact(sorted)

	if !slices.Contains(sorted, defaultVersion) {
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("default API version %s is not registered", defaultVersion), nil)
	}

	names := make([]string, len(sorted))
	for i, v := range sorted {
		names[i] = v.String()
	}

	return &Resolver{
		versions:       sorted,
		defaultVersion: defaultVersion,
		queryParam:     queryParam,
		mediaTypeParam: strings.ToLower(mediaTypeParam),
		supported:      strings.Join(names, ", "),
	}, nil
}

// NewResolverFromConfig builds a resolver from the api configuration section.
func NewResolverFromConfig(cfg config.APIConfig) (*Resolver, error) {
	versions := make([]APIVersion, 0, len(cfg.Versions))
	for _, s := range cfg.Versions {
		v, err := Parse(s)
		if err != nil {
			return nil, domain.NewConfigurationError("invalid api.versions entry", err)
		}
		versions = append(versions, v)
	}

	def, err := Parse(cfg.DefaultVersion)
	if err != nil {
		return nil, domain.NewConfigurationError("invalid api.default_version", err)
	}

	return NewResolver(versions, def, cfg.VersionQueryParam, cfg.VersionMediaTypeParam)
}

// Default returns the version assumed when a request names none.
func (r *Resolver) Default() APIVersion {
	return r.defaultVersion
}

// Versions returns the registered versions in ascending order.
func (r *Resolver) Versions() []APIVersion {
	return slices.Clone(r.versions)
}

// SupportedHeader is the value of the Api-Supported-Versions response header.
func (r *Resolver) SupportedHeader() string {
	return r.supported
}

// IsRegistered reports whether v is one of the registered versions.
func (r *Resolver) IsRegistered(v APIVersion) bool {
	return slices.Contains(r.versions, v)
}

// Resolve returns the version requested by req.
//
// Selectors are read from the media-type parameter of Accept and Content-Type
// and from the query parameter. Selectors that disagree are a validation
// error, as is one that does not parse. A request without a selector gets the
// default version. A well-formed selector naming an unregistered version is a
// not-found error.
func (r *Resolver) Resolve(req *http.Request) (APIVersion, error) {
	raw := r.selectors(req)
	if len(raw) == 0 {
		return r.defaultVersion, nil
	}

	var resolved []APIVersion
	for _, s := range raw {
		v, err := Parse(s)
		if err != nil {
			return APIVersion{}, &domain.Error{
				Kind:    domain.KindValidation,
				Reason:  domain.ReasonInvalidVersion,
				Message: fmt.Sprintf("the API version %q is not valid", s),
				Err:     err,
			}
		}
		if !slices.Contains(resolved, v) {
			resolved = append(resolved, v)
		}
	}

	if len(resolved) > 1 {
		return APIVersion{}, &domain.Error{
			Kind:    domain.KindValidation,
			Reason:  domain.ReasonAmbiguousVersion,
			Message: "the request specified conflicting API versions",
		}
	}

	v := resolved[0]
	if !r.IsRegistered(v) {
		return APIVersion{}, &domain.Error{
			Kind:    domain.KindNotFound,
			Reason:  domain.ReasonUnsupportedVersion,
			Message: fmt.Sprintf("API version %s is not supported", v),
		}
	}
	return v, nil
}

func (r *Resolver) selectors(req *http.Request) []string {
	var out []string

	for _, header := range []string{"Accept", "Content-Type"} {
		for _, value := range req.Header.Values(header) {
			for _, mediaRange := range strings.Split(value, ",") {
				if strings.TrimSpace(mediaRange) == "" {
					continue
				}
				_, params, err := mime.ParseMediaType(mediaRange)
				if err != nil {
					continue
				}
				if v, ok := params[r.mediaTypeParam]; ok {
					out = append(out, v)
				}
			}
		}
	}

	out = append(out, req.URL.Query()[r.queryParam]...)
	return out
}
