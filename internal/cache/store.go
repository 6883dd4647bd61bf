package cache

import (
	"context"
	"net/http"
	"time"
)

// Entry is a stored response.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Store persists cached responses. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the fresh entry stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Set stores entry under key for ttl.
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
}

// Key derives the cache key of a request: method, case-sensitive path,
// query parameters sorted by name, the Accept header and variant. Callers
// pass the negotiated API version as variant, so selectors carried outside
// the URL and Accept header still separate entries.
func Key(r *http.Request, variant string) string {
	return r.Method + " " + r.URL.Path + "?" + r.URL.Query().Encode() +
		" accept=" + r.Header.Get("Accept") + " variant=" + variant
}
