// Package version models API versions and resolves the version a request
// asks for, either through a media-type parameter (Accept: application/json;v=2.0)
// or a query parameter (?ver=2.0).
package version
