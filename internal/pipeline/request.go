package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/api/shared"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/service/auth"
	"github.com/phrazzld/library-api/internal/store"
	"github.com/phrazzld/library-api/internal/version"
)

// Request is the per-request state threaded through the stages.
type Request struct {
	HTTP  *http.Request
	Route *Route

	// Principal is set by the authentication stage for routes that require it.
	Principal *auth.Principal

	// Version is set by the negotiation stage.
	Version version.APIVersion

	// Repos is the unit of work opened by dispatch. It is nil in stages.
	Repos store.RepositoryWrapper

	versionResolved bool
	header          http.Header
}

func newRequest(r *http.Request, route *Route) *Request {
	return &Request{HTTP: r, Route: route, header: make(http.Header)}
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	return r.HTTP.Context()
}

// VersionResolved reports whether negotiation has run successfully.
func (r *Request) VersionResolved() bool {
	return r.versionResolved
}

// Param returns a URL path parameter.
func (r *Request) Param(name string) string {
	return chi.URLParam(r.HTTP, name)
}

// UUIDParam returns a URL path parameter parsed as a UUID. A malformed value
// is a validation error naming the parameter.
func (r *Request) UUIDParam(name string) (uuid.UUID, error) {
	raw := r.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(
			fmt.Sprintf("invalid %s", name),
			domain.FieldError{Field: name, Message: "must be a valid UUID"},
		)
	}
	return id, nil
}

// Decode reads the JSON body into v and validates it.
func (r *Request) Decode(v any) error {
	return shared.DecodeAndValidate(r.HTTP, v)
}

// Response is what a handler, or a short-circuiting stage, produces.
// Body holds the encoded payload so that it can be cached verbatim.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON encodes v as a JSON response.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response body: %w", err)
	}
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &Response{Status: status, Header: h, Body: body}, nil
}

// Created encodes v as a 201 response pointing at location.
func Created(location string, v any) (*Response, error) {
	resp, err := JSON(http.StatusCreated, v)
	if err != nil {
		return nil, err
	}
	resp.Header.Set("Location", location)
	return resp, nil
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return &Response{Status: http.StatusNoContent, Header: make(http.Header)}
}

// Handler serves one route at one API version.
type Handler func(req *Request) (*Response, error)
