// Package validator checks instances against a compiled schema.
//
// Validate walks the schema graph in lock-step with the instance and returns
// every violation it finds together with the default-value edits discovered
// on the way. With Options.StopOnFirstViolation the walk ends at the first
// violation instead.
package validator

import (
	"fmt"
	"strings"

	"github.com/reoring/jsonvalidator/i18n"
	"github.com/reoring/jsonvalidator/patch"
	"github.com/reoring/jsonvalidator/schema"
	"github.com/reoring/jsonvalidator/value"
)

// Violation codes.
const (
	CodeFalseSchema        = "false_schema"
	CodeInvalidType        = "invalid_type"
	CodeInvalidEnum        = "invalid_enum"
	CodeConst              = "const"
	CodeMultipleOf         = "multiple_of"
	CodeMaximum            = "maximum"
	CodeExclusiveMaximum   = "exclusive_maximum"
	CodeMinimum            = "minimum"
	CodeExclusiveMinimum   = "exclusive_minimum"
	CodeTooLong            = "too_long"
	CodeTooShort           = "too_short"
	CodePattern            = "pattern"
	CodeAdditionalItems    = "additional_items"
	CodeTooManyItems       = "too_many_items"
	CodeTooFewItems        = "too_few_items"
	CodeUniqueItems        = "unique_items"
	CodeContains           = "contains"
	CodeTooManyProperties  = "too_many_properties"
	CodeTooFewProperties   = "too_few_properties"
	CodeRequired           = "required"
	CodeAdditionalProperty = "additional_property"
	CodePropertyName       = "property_name"
	CodeDependency         = "dependency"
	CodeAnyOf              = "any_of"
	CodeOneOf              = "one_of"
	CodeNot                = "not"
)

// Options controls a validation run.
type Options struct {
	// StopOnFirstViolation ends the walk at the first violation.
	StopOnFirstViolation bool
}

// Violation is one failed constraint.
type Violation struct {
	Pointer value.Pointer `json:"pointer"` // location in the instance
	Code    string        `json:"code"`
	Message string        `json:"message"`
	// Params carries the values the message was built from (for example
	// {"limit": 3}).
	Params map[string]any `json:"params,omitempty"`
}

func (v Violation) String() string { return "'" + v.Pointer.String() + "': " + v.Message }

// Violations is the ordered list of violations of one run.
type Violations []Violation

// Error joins every violation as '<pointer>': <message>.
func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Result is the outcome of Validate.
type Result struct {
	Violations Violations
	// Patch lists the defaults to insert, in discovery order.
	Patch patch.Patch
}

// Valid reports whether no violation was found.
func (r Result) Valid() bool { return len(r.Violations) == 0 }

// Err returns the violations as an error, or nil.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return r.Violations
}

// Validate checks instance against root.
func Validate(root *schema.Root, instance value.Value, opts Options) Result {
	s := &state{
		root:   root,
		opts:   opts,
		active: make(map[activeRef]bool),
		fill:   make(map[schema.Ref]bool),
	}
	s.validate(root.Entry(), instance, nil)
	return Result{Violations: s.violations, Patch: s.edits}
}

// activeRef identifies a `$ref` being evaluated at an instance location.
type activeRef struct {
	target schema.Ref
	ptr    string
}

// state is one evaluation scope. Speculative branches (anyOf, oneOf, not,
// if, contains, propertyNames) run in a child scope whose findings are
// merged only when the caller decides so.
type state struct {
	root       *schema.Root
	opts       Options
	violations Violations
	edits      patch.Patch
	stopped    bool
	// active and fill are shared with child scopes.
	active map[activeRef]bool
	fill   map[schema.Ref]bool
}

func (s *state) child() *state {
	return &state{
		root:   s.root,
		opts:   Options{StopOnFirstViolation: true},
		active: s.active,
		fill:   s.fill,
	}
}

// try evaluates ref in a child scope and reports whether it passed, with the
// edits it produced.
func (s *state) try(ref schema.Ref, inst value.Value, ptr value.Pointer) (bool, patch.Patch) {
	c := s.child()
	c.validate(ref, inst, ptr)
	return len(c.violations) == 0, c.edits
}

// tryName evaluates a property name against ref. The name is a new instance
// rather than a location inside the object, so it gets its own $ref guard.
func (s *state) tryName(ref schema.Ref, name string, ptr value.Pointer) bool {
	c := s.child()
	c.active = make(map[activeRef]bool)
	c.validate(ref, value.FromString(name), ptr)
	return len(c.violations) == 0
}

func (s *state) report(ptr value.Pointer, code string, params map[string]any) {
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	s.violations = append(s.violations, Violation{
		Pointer: ptr,
		Code:    code,
		Message: i18n.T(code, data),
		Params:  params,
	})
	if s.opts.StopOnFirstViolation {
		s.stopped = true
	}
}

func (s *state) addDefault(ref schema.Ref, at value.Pointer) bool {
	def, ok := s.root.DefaultOf(ref)
	if !ok {
		return false
	}
	s.edits = append(s.edits, patch.Add(at, s.complete(ref, def)))
	return true
}

// complete fills the defaults nested inside a default value, so that the
// patched instance produces no further edits when validated again.
func (s *state) complete(ref schema.Ref, def value.Value) value.Value {
	if s.fill[ref] || (def.Kind() != value.KindObject && def.Kind() != value.KindArray) {
		return def
	}
	s.fill[ref] = true
	defer delete(s.fill, ref)
	// The default is a separate document: pointers restart at its root, so
	// the $ref guard must not be shared.
	c := &state{root: s.root, active: make(map[activeRef]bool), fill: s.fill}
	c.validate(ref, def, nil)
	if filled, err := c.edits.Apply(def); err == nil {
		return filled
	}
	return def
}

func (s *state) validate(ref schema.Ref, inst value.Value, ptr value.Pointer) {
	if s.stopped || !ref.Valid() {
		return
	}
	n := s.root.Node(ref)
	switch {
	case n.Always:
		return
	case n.Never:
		s.report(ptr, CodeFalseSchema, nil)
		return
	case n.IsRef():
		s.validateRef(n, inst, ptr)
		return
	}

	s.checkType(n, inst, ptr)
	s.checkEnum(n, inst, ptr)
	switch inst.Kind() {
	case value.KindNumber:
		s.checkNumber(n, inst.Number(), ptr)
	case value.KindString:
		s.checkString(n, inst.Text(), ptr)
	case value.KindArray:
		s.checkArray(n, inst, ptr)
	case value.KindObject:
		s.checkObject(n, inst, ptr)
	}
	s.checkCombinators(n, inst, ptr)
	s.checkConditional(n, inst, ptr)
}

// validateRef evaluates the target of a `$ref`. Re-entering the same target
// at the same instance location means the schema loops without consuming
// any of the instance; that path is treated as satisfied.
func (s *state) validateRef(n *schema.Node, inst value.Value, ptr value.Pointer) {
	key := activeRef{target: n.RefTarget, ptr: ptr.String()}
	if s.active[key] {
		return
	}
	s.active[key] = true
	defer delete(s.active, key)
	s.validate(n.RefTarget, inst, ptr)
}
