// Package cache holds the named cache profiles routes refer to and the
// response stores the pipeline's cache stage reads and writes.
//
// Profiles are registered once at startup and are immutable afterwards.
// Lookups are case-insensitive and an unknown name is a configuration error,
// so a misspelled profile on a route aborts startup instead of silently
// disabling caching.
package cache
