// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"rentledger/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// decodeJSON reads exactly one JSON object into a T. Unknown fields, trailing
// data and oversized bodies are rejected as validation errors.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return v, core.NewValidationError("body", "content type must be application/json")
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return v, core.NewValidationError("body", "must contain a single JSON object")
	}
	return v, nil
}

// bodyError turns a decoder failure into a ValidationError.
func bodyError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidAmount):
		return err
	case errors.Is(err, io.EOF):
		return core.NewValidationError("body", "is required")
	case errors.As(err, &syntaxErr):
		return core.NewValidationError("body", fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return core.NewValidationError(field, "has the wrong type")
	case errors.As(err, &maxErr):
		return core.NewValidationError("body", fmt.Sprintf("must be at most %d bytes", maxErr.Limit))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return core.NewValidationError(name, "is not a known field")
	default:
		return core.NewValidationError("body", "malformed JSON")
	}
}

// parseMonthQuery reads ?month=YYYY-MM, defaulting to the month of now.
func parseMonthQuery(r *http.Request, now time.Time) (core.MonthKey, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.CurrentMonthKey(now.UTC()), nil
	}
	return core.ParseMonthKey(v)
}

// pathID returns the {id} wildcard, rejecting blank values.
func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", core.NewValidationError("id", "is required")
	}
	return id, nil
}
