// Package http provides the JSON API server and its handlers.
//
// This file implements the Builder Pattern for constructing JSON responses
// and the mapping from service errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"rentledger/internal/core"
	"rentledger/internal/log"
	"rentledger/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response. A nil payload writes no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// ValidationErrorResponse creates a 400 carrying the per-field problems.
func ValidationErrorResponse(fields map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusBadRequest).
		JSON(errorBody{Error: "validation failed", Fields: fields})
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, retry later")
}

func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// errorResponse maps a service error to its response. Backend details are
// logged, never returned to the caller.
func errorResponse(ctx context.Context, err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return ValidationErrorResponse(verr.Fields)
	case errors.Is(err, services.ErrNoActor):
		return UnauthorizedError("authentication required")
	case errors.Is(err, core.ErrInvalidMonthKey):
		return ValidationErrorResponse(map[string]string{"month": "must be YYYY-MM"})
	case errors.Is(err, core.ErrInvalidDate):
		return ValidationErrorResponse(map[string]string{"date": "must be YYYY-MM-DD"})
	case errors.Is(err, core.ErrInvalidAmount):
		return ValidationErrorResponse(map[string]string{"body": "amounts must be non-negative decimal numbers"})
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("record not found")
	}

	structured := log.NewStructuredLogger(log.FromContext(ctx))
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		structured.LogError(ctx, "Request timed out", err, log.ErrorTypeTimeout, log.OpRead, nil)
		return ErrorResponse(http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, core.ErrPersistence):
		structured.LogError(ctx, "Storage unavailable", err, log.ErrorTypeDatabase, log.OpRead, nil)
		return ServiceUnavailableError("storage unavailable, retry later")
	default:
		structured.LogError(ctx, "Unhandled error", err, log.ErrorTypeInternal, log.OpRead, nil)
		return InternalServerError("internal server error")
	}
}
