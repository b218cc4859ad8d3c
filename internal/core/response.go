// AngelaMos | 2026
// response.go

package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ErrorResponse is the single error body shape returned by the API.
// Message is a string, or a field to message map for validation failures.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Message   any       `json:"message"`
	Path      string    `json:"path"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeError(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	code string,
	message any,
) {
	JSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Code:      code,
		Message:   message,
		Path:      r.URL.Path,
	})
}

// JSONError renders err using its AppError metadata or the sentinel it
// wraps. Anything else becomes a 500 whose details are only logged.
func JSONError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	if appErr == nil {
		InternalServerError(w, r, err)
		return
	}

	writeError(w, r, appErr.StatusCode, appErr.Code, appErr.Message)
}

func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", message)
}

func ValidationFailed(
	w http.ResponseWriter,
	r *http.Request,
	fields map[string]string,
) {
	writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", fields)
}

func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	JSONError(w, r, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, r *http.Request, message string) {
	JSONError(w, r, ForbiddenError(message))
}

func TooManyRequests(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", message)
}

func InternalServerError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	slog.ErrorContext(ctx, "request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", RequestIDFromContext(ctx),
		"trace_id", TraceIDFromContext(ctx),
	)
	SetSpanError(ctx, err)

	writeError(
		w,
		r,
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
	)
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
