package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/library-api/internal/api/shared"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFilterDescribe(t *testing.T) {
	f := NewErrorFilter(discardLogger())

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantMessage string
		wantDetail  string
		wantFields  int
	}{
		{
			name:        "expired token",
			err:         domain.NewAuthenticationError(domain.ReasonExpired, "token has expired", nil),
			wantStatus:  http.StatusUnauthorized,
			wantError:   "AuthenticationError",
			wantMessage: "token has expired",
			wantDetail:  domain.ReasonExpired,
		},
		{
			name:        "invalid credentials",
			err:         domain.NewAuthenticationError(domain.ReasonInvalidCredentials, "invalid credentials", nil),
			wantStatus:  http.StatusUnauthorized,
			wantError:   "AuthenticationError",
			wantMessage: "invalid credentials",
			wantDetail:  domain.ReasonInvalidCredentials,
		},
		{
			name:        "authorization",
			err:         domain.NewAuthorizationError("insufficient role"),
			wantStatus:  http.StatusForbidden,
			wantError:   "AuthorizationError",
			wantMessage: "insufficient role",
		},
		{
			name:        "validation with fields",
			err:         domain.NewValidationError("bad input", domain.FieldError{Field: "name", Message: "required field"}),
			wantStatus:  http.StatusBadRequest,
			wantError:   "ValidationError",
			wantMessage: "bad input",
			wantFields:  1,
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("loading author: %w", domain.NewNotFoundError("author not found")),
			wantStatus:  http.StatusNotFound,
			wantError:   "NotFoundError",
			wantMessage: "author not found",
		},
		{
			name:        "persistence conflict",
			err:         domain.NewPersistenceError(domain.ReasonConflict, "the resource already exists", errors.New("23505")),
			wantStatus:  http.StatusConflict,
			wantError:   "PersistenceError",
			wantMessage: "the resource already exists",
			wantDetail:  domain.ReasonConflict,
		},
		{
			name:        "persistence failure hides detail",
			err:         domain.NewPersistenceError(domain.ReasonFailure, "the database operation failed", errors.New("connection refused")),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "PersistenceError",
			wantMessage: genericErrorMessage,
		},
		{
			name:        "persistence canceled",
			err:         domain.NewPersistenceError(domain.ReasonCanceled, "the request was canceled", context.Canceled),
			wantStatus:  StatusClientClosedRequest,
			wantError:   "PersistenceError",
			wantMessage: "the request was canceled",
			wantDetail:  domain.ReasonCanceled,
		},
		{
			name:        "bare context canceled",
			err:         fmt.Errorf("query: %w", context.Canceled),
			wantStatus:  StatusClientClosedRequest,
			wantError:   "InternalError",
			wantMessage: "the request was canceled",
			wantDetail:  domain.ReasonCanceled,
		},
		{
			name:        "configuration",
			err:         domain.NewConfigurationError("unknown cache profile", nil),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "ConfigurationError",
			wantMessage: genericErrorMessage,
		},
		{
			name:        "unknown error",
			err:         errors.New("something broke"),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "InternalError",
			wantMessage: genericErrorMessage,
		},
		{
			name:        "empty message gets a default",
			err:         &domain.Error{Kind: domain.KindNotFound},
			wantStatus:  http.StatusNotFound,
			wantError:   "NotFoundError",
			wantMessage: "resource not found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := f.Describe(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantStatus, body.Status)
			assert.Equal(t, tc.wantError, body.Error)
			assert.Equal(t, tc.wantMessage, body.Message)
			assert.Equal(t, tc.wantDetail, body.Detail)
			assert.Len(t, body.FieldErrors, tc.wantFields)
		})
	}
}

func TestErrorFilterHandle(t *testing.T) {
	var logs bytes.Buffer
	f := NewErrorFilter(slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	req := httptest.NewRequest(http.MethodGet, "/api/authors", nil)
	req = req.WithContext(shared.WithTraceID(req.Context(), "trace-123"))
	rec := httptest.NewRecorder()

	cause := errors.New("dial postgres://library:s3cret@db:5432/library failed")
	f.Handle(rec, req, domain.NewPersistenceError(domain.ReasonFailure, "the database operation failed", cause))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"status": 500,
		"error": "PersistenceError",
		"message": "an unexpected error occurred",
		"traceId": "trace-123"
	}`, rec.Body.String())

	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), "[REDACTED_CREDENTIAL]")
	assert.NotContains(t, logs.String(), "s3cret")
}

func TestErrorFilterHandleClientErrorLogsAtDebug(t *testing.T) {
	var logs bytes.Buffer
	f := NewErrorFilter(slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	rec := httptest.NewRecorder()
	f.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), domain.ErrTokenMissing)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Contains(t, logs.String(), `"level":"DEBUG"`)
}

func TestErrorFilterFailureSafeBody(t *testing.T) {
	f := NewErrorFilter(discardLogger())
	f.marshal = func(any) ([]byte, error) { return nil, errors.New("encoder exploded") }

	rec := httptest.NewRecorder()
	f.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), domain.NewNotFoundError("author not found"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(fallbackErrorBody), rec.Body.String())
	assert.JSONEq(t, `{"status":500,"error":"InternalError","message":"an unexpected error occurred"}`, rec.Body.String())
}

func TestErrorFilterGuard(t *testing.T) {
	f := NewErrorFilter(discardLogger())

	err := f.Guard(context.Background(), func() error { panic("nil map write") })
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	want := errors.New("plain")
	assert.Same(t, want, f.Guard(context.Background(), func() error { return want }))

	assert.NoError(t, f.Guard(context.Background(), func() error { return nil }))
}
