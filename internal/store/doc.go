// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing handlers to remain
// independent of specific database technologies or persistence details.
//
// Handlers reach every repository through a RepositoryWrapper, which scopes
// all of one request's statements to a single unit of work.
package store
