package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/library-api/internal/config"
	"github.com/phrazzld/library-api/internal/domain"
)

// Location says where a response may be cached.
type Location string

const (
	LocationAny  Location = "any"
	LocationNone Location = "none"
)

// Names of the built-in profiles.
const (
	ProfileDefault = "Default"
	ProfileNever   = "Never"
)

// Profile is a named caching policy.
type Profile struct {
	Name     string
	Duration time.Duration
	Location Location
	NoStore  bool
}

// DefaultProfile caches responses for 60 seconds.
var DefaultProfile = Profile{Name: ProfileDefault, Duration: 60 * time.Second, Location: LocationAny}

// NeverProfile disables caching.
var NeverProfile = Profile{Name: ProfileNever, Location: LocationNone, NoStore: true}

// Cacheable reports whether responses under this profile may be stored.
func (p Profile) Cacheable() bool {
	return p.Location != LocationNone && !p.NoStore && p.Duration > 0
}

// CacheControl returns the Cache-Control header value for the profile.
func (p Profile) CacheControl() string {
	if !p.Cacheable() {
		return "no-store,no-cache"
	}
	return fmt.Sprintf("public,max-age=%d", int(p.Duration/time.Second))
}

// Registry is an immutable set of profiles keyed by case-insensitive name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds a registry. Duplicate or empty names are rejected.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	reg := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if key == "" {
			return nil, domain.NewConfigurationError("cache profile name cannot be empty", nil)
		}
		if _, exists := reg.profiles[key]; exists {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("duplicate cache profile %q", p.Name), nil)
		}
		if p.Location != LocationAny && p.Location != LocationNone {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("cache profile %q has unknown location %q", p.Name, p.Location), nil)
		}
		if p.Duration < 0 {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("cache profile %q has negative duration", p.Name), nil)
		}
		reg.profiles[key] = p
	}
	return reg, nil
}

// Lookup returns the profile registered under name.
func (r *Registry) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, domain.NewConfigurationError(
			fmt.Sprintf("unknown cache profile %q", name), nil)
	}
	return p, nil
}

// NewRegistryFromConfig builds a registry from the configured profiles.
func NewRegistryFromConfig(cfg config.CacheConfig) (*Registry, error) {
	profiles := make([]Profile, 0, len(cfg.Profiles))
	for name, pc := range cfg.Profiles {
		profiles = append(profiles, Profile{
			Name:     name,
			Duration: time.Duration(pc.DurationSeconds) * time.Second,
			Location: Location(pc.Location),
			NoStore:  pc.NoStore,
		})
	}
	return NewRegistry(profiles...)
}
