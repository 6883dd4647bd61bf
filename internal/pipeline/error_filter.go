package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/library-api/internal/api/shared"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/redact"
)

// StatusClientClosedRequest is written when the caller went away before the
// request finished.
const StatusClientClosedRequest = 499

const genericErrorMessage = "an unexpected error occurred"

// fallbackErrorBody is written when the real error body cannot be built.
var fallbackErrorBody = []byte(`{"status":500,"error":"InternalError","message":"an unexpected error occurred"}`)

// ErrorFilter converts errors into structured JSON error responses.
type ErrorFilter struct {
	logger  *slog.Logger
	marshal func(v any) ([]byte, error)
}

// NewErrorFilter creates an ErrorFilter that logs through logger when the
// request context carries none.
func NewErrorFilter(log *slog.Logger) *ErrorFilter {
	if log == nil {
		log = slog.Default()
	}
	return &ErrorFilter{logger: log, marshal: json.Marshal}
}

// Guard runs fn and converts a panic into an internal error.
func (f *ErrorFilter) Guard(ctx context.Context, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContextOrDefault(ctx, f.logger).Error("recovered from panic",
				slog.String("panic", redact.String(fmt.Sprint(rec))),
				slog.String("stack", string(debug.Stack())))
			err = &domain.Error{Kind: domain.KindInternal, Message: "panic", Err: fmt.Errorf("%v", rec)}
		}
	}()
	return fn()
}

// Describe maps err to a status code and response body. Only 4xx bodies
// carry the caller-facing message and reason of the error.
func (f *ErrorFilter) Describe(err error) (int, shared.ErrorResponse) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		if errors.Is(err, context.Canceled) {
			return StatusClientClosedRequest, shared.ErrorResponse{
				Status:  StatusClientClosedRequest,
				Error:   domain.KindInternal.String(),
				Message: "the request was canceled",
				Detail:  domain.ReasonCanceled,
			}
		}
		return internalError(domain.KindInternal)
	}

	var status int
	switch derr.Kind {
	case domain.KindAuthentication:
		status = http.StatusUnauthorized
	case domain.KindAuthorization:
		status = http.StatusForbidden
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindPersistence:
		switch derr.Reason {
		case domain.ReasonConflict:
			status = http.StatusConflict
		case domain.ReasonCanceled:
			status = StatusClientClosedRequest
		default:
			return internalError(derr.Kind)
		}
	default:
		return internalError(derr.Kind)
	}

	message := derr.Message
	if message == "" {
		message = defaultMessage(status)
	}
	return status, shared.ErrorResponse{
		Status:      status,
		Error:       derr.Kind.String(),
		Message:     message,
		Detail:      derr.Reason,
		FieldErrors: derr.Fields,
	}
}

func internalError(kind domain.Kind) (int, shared.ErrorResponse) {
	return http.StatusInternalServerError, shared.ErrorResponse{
		Status:  http.StatusInternalServerError,
		Error:   kind.String(),
		Message: genericErrorMessage,
	}
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "the request conflicts with existing data"
	default:
		return "the request could not be completed"
	}
}

// Handle writes the error response for err and logs it. Server errors are
// logged at ERROR with redacted detail; client errors at DEBUG.
func (f *ErrorFilter) Handle(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, body := f.Describe(err)
	body.TraceID = shared.GetTraceID(ctx)

	log := logger.FromContextOrDefault(ctx, f.logger)
	log.LogAttrs(ctx, shared.ErrorLogLevel(status), "API error response",
		slog.Int("status_code", status),
		slog.String("error_kind", body.Error),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", redact.Error(err)))

	payload, merr := f.marshal(body)
	if merr != nil {
		log.Error("failed to encode error response", slog.String("error", redact.Error(merr)))
		status, payload = http.StatusInternalServerError, fallbackErrorBody
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		h.Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(payload)
}
