// Package pipeline runs every API request through a fixed chain of stages:
// transport enforcement, response cache lookup, authentication, version
// negotiation and finally dispatch to the handler registered for the route
// and version. Fresh 200 responses are written back to the cache on the way
// out. An ErrorFilter wraps the whole chain and turns any failure, panics
// included, into a structured JSON error body.
//
// The stage order is fixed at construction. Routes only vary in which
// stages have work to do: a route without a cacheable profile passes
// through the cache stage, a route without AuthRequired passes through
// authentication.
package pipeline
