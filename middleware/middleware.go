// Package middleware validates HTTP request bodies with a compiled schema.
//
// The net/http middleware lives here; adapters for gin and echo are separate
// modules under gin/ and echo/ so that the core module does not depend on
// either framework.
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/validator"
	"github.com/reoring/jsonvalidator/value"
)

// DefaultMaxBodyBytes bounds the request body read by Validate.
const DefaultMaxBodyBytes = 1 << 20

// ctxKeyBody is a typed context key for the validated body.
type ctxKeyBody struct{}

// ContextWithBody attaches the validated (and default-filled) body to ctx.
func ContextWithBody(ctx context.Context, body []byte) context.Context {
	return context.WithValue(ctx, ctxKeyBody{}, body)
}

// BodyFromContext retrieves the body stored by ContextWithBody.
func BodyFromContext(ctx context.Context) ([]byte, bool) {
	b, ok := ctx.Value(ctxKeyBody{}).([]byte)
	return b, ok
}

// DefaultParseOptions returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors and bodies are capped at DefaultMaxBodyBytes.
func DefaultParseOptions() value.ParseOptions {
	return value.ParseOptions{OnDuplicateKey: value.DuplicateError, MaxBytes: DefaultMaxBodyBytes}
}

// Status maps an operation error to an HTTP status: 422 for violations,
// 400 for unparsable bodies, 500 otherwise.
func Status(err error) int {
	switch {
	case errors.Is(err, jsonvalidator.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, jsonvalidator.ErrInvalidJSON), errors.Is(err, jsonvalidator.ErrInvalidSchema):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorPayload shapes an operation error for JSON responses.
func ErrorPayload(err error) map[string]any {
	out := map[string]any{"error": err.Error()}
	var e *jsonvalidator.Error
	if errors.As(err, &e) {
		out["kind"] = string(e.Kind)
	}
	if vs, ok := jsonvalidator.AsViolations(err); ok {
		out["violations"] = ViolationPayload(vs)
	}
	return out
}

// ViolationPayload renders violations as JSON-ready maps.
func ViolationPayload(vs validator.Violations) []map[string]any {
	out := make([]map[string]any, len(vs))
	for i, v := range vs {
		m := map[string]any{"pointer": v.Pointer.String(), "code": v.Code, "message": v.Message}
		if len(v.Params) > 0 {
			m["params"] = v.Params
		}
		out[i] = m
	}
	return out
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(v)
}

// WriteError writes err with the status chosen by Status.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, Status(err), ErrorPayload(err))
}

// Validate returns middleware that validates the request body with h. On
// success the body seen by next is the validated instance with defaults
// applied; otherwise the request is answered with an error payload.
func Validate(h *jsonvalidator.Handle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, DefaultMaxBodyBytes))
			if err != nil {
				WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": err.Error()})
				return
			}
			out, err := h.Validate(body)
			if err != nil {
				WriteError(w, err)
				return
			}
			r = r.WithContext(ContextWithBody(r.Context(), out))
			r.Body = io.NopCloser(bytes.NewReader(out))
			r.ContentLength = int64(len(out))
			r.Header.Set("Content-Length", strconv.Itoa(len(out)))
			next.ServeHTTP(w, r)
		})
	}
}
