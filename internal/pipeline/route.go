package pipeline

import (
	"github.com/phrazzld/library-api/internal/cache"
	"github.com/phrazzld/library-api/internal/version"
)

// Route is one entry of the route table.
type Route struct {
	Name    string
	Method  string
	Pattern string

	// CacheProfile names a profile in the registry. Empty means the route
	// never touches the response cache and sends no Cache-Control header.
	CacheProfile string

	// AuthRequired routes need a valid bearer token. When Roles is non-empty
	// the principal must also hold at least one of them.
	AuthRequired bool
	Roles        []string

	// Handlers maps each supported API version to its handler.
	Handlers map[version.APIVersion]Handler

	profile *cache.Profile
}

// Profile returns the resolved cache profile, or nil before Mount.
func (r *Route) Profile() *cache.Profile {
	return r.profile
}
