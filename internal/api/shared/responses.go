package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/library-api/internal/domain"
)

// ErrorResponse is the structured body written for every failed request.
type ErrorResponse struct {
	Status      int                 `json:"status"`
	Error       string              `json:"error"`
	Message     string              `json:"message"`
	Detail      string              `json:"detail,omitempty"`
	FieldErrors []domain.FieldError `json:"fieldErrors,omitempty"`
	TraceID     string              `json:"traceId,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode JSON response", "error", err)
	}
}

// ErrorLogLevel chooses the log level for an error response:
// 5xx at ERROR, 429 at WARN, every other status at DEBUG.
func ErrorLogLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
