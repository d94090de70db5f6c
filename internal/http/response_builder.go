package http

import (
	"errors"
	"log/slog"
	"net/http"

	"finplan/internal/core"
	"finplan/internal/engine"
	applog "finplan/internal/log"
	"finplan/internal/store"

	json "github.com/goccy/go-json"
)

// ResponseBuilder assembles a JSON response.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.payload = v
	return b
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (b *ResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "path", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

// ErrorResponse reports message with the request ID from r.
func ErrorResponse(r *http.Request, statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		Data(errorBody{Error: message, RequestID: applog.RequestID(r.Context())})
}

func BadRequestError(r *http.Request, message string) *ResponseBuilder {
	return ErrorResponse(r, http.StatusBadRequest, message)
}

func NotFoundError(r *http.Request, message string) *ResponseBuilder {
	return ErrorResponse(r, http.StatusNotFound, message)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidEnum),
		errors.Is(err, core.ErrEndBeforeStart),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, engine.ErrNoForecast):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFrom builds the response for err. Server errors are logged and
// reported without detail.
func ErrorFrom(r *http.Request, err error) *ResponseBuilder {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"error", err, "path", r.URL.Path)
		return ErrorResponse(r, status, "internal error")
	}
	return ErrorResponse(r, status, err.Error())
}
