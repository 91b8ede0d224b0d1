package jsonvalidator

import (
	"errors"
	"fmt"

	"github.com/reoring/jsonvalidator/resolver"
	"github.com/reoring/jsonvalidator/validator"
)

// ErrorKind classifies a failure.
type ErrorKind string

const (
	// KindInvalidSchema: the schema text is not JSON.
	KindInvalidSchema ErrorKind = "invalid-schema"
	// KindInvalidJSON: the instance text (or the schema text given to
	// CheckSchema and New) is not JSON.
	KindInvalidJSON ErrorKind = "invalid-json"
	// KindSchema: the schema does not compile.
	KindSchema ErrorKind = "schema-error"
	// KindRefResolution: a referenced document could not be opened or parsed.
	KindRefResolution ErrorKind = "ref-resolution-error"
	// KindValidation: the instance violates the schema.
	KindValidation ErrorKind = "validation-error"
)

// Sentinels for errors.Is. Each matches every *Error of its kind.
var (
	ErrInvalidSchema = errors.New("invalid schema")
	ErrInvalidJSON   = errors.New("invalid json")
	ErrSchema        = errors.New("schema error")
	ErrRefResolution = errors.New("reference resolution error")
	ErrValidation    = errors.New("json schema error")
	// ErrClosed is returned by a Handle after Close.
	ErrClosed = errors.New("jsonvalidator: handle is closed")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidSchema: ErrInvalidSchema,
	KindInvalidJSON:   ErrInvalidJSON,
	KindSchema:        ErrSchema,
	KindRefResolution: ErrRefResolution,
	KindValidation:    ErrValidation,
}

// Error is the failure type of every public operation.
type Error struct {
	Kind ErrorKind
	// Violations is set for KindValidation.
	Violations validator.Violations
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	head := kindSentinels[e.Kind].Error()
	switch {
	case e.Kind == KindValidation && len(e.Violations) > 0:
		return head + ": " + e.Violations.Error()
	case e.Err != nil:
		return head + ": " + e.Err.Error()
	default:
		return head
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool { return kindSentinels[e.Kind] == target }

// AsViolations extracts the violation list from an error using errors.As
// internally.
func AsViolations(err error) (validator.Violations, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindValidation {
		return e.Violations, true
	}
	return nil, false
}

func parseError(kind ErrorKind, err error) *Error { return &Error{Kind: kind, Err: err} }

// compileError classifies a compiler failure. Reference failures carry the
// resolver's message, which names the attempted file.
func compileError(err error) *Error {
	var re *resolver.Error
	if errors.As(err, &re) {
		return &Error{Kind: KindRefResolution, Err: re}
	}
	return &Error{Kind: KindSchema, Err: err}
}

func validationError(vs validator.Violations) *Error {
	return &Error{Kind: KindValidation, Violations: vs, Err: vs}
}

// recoverError turns a panic into a schema error so that no internal fault
// escapes a public operation.
func recoverError(err *error) {
	if r := recover(); r != nil {
		*err = &Error{Kind: KindSchema, Err: fmt.Errorf("internal error: %v", r)}
	}
}
