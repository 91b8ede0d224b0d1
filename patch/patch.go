// Package patch holds the edits produced while validating an instance and
// applies them.
//
// A Patch is an ordered list of add/replace edits addressed by JSON Pointer.
// It can be applied directly to a value.Value (copy-on-write; the input is
// never modified) or serialized as an RFC 6902 document for another party to
// apply.
package patch

import (
	"bytes"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/reoring/jsonvalidator/value"
)

// Op is an RFC 6902 operation name.
type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
)

// Edit is one operation.
type Edit struct {
	Op    Op
	Path  value.Pointer
	Value value.Value
}

// Add returns an add edit.
func Add(path value.Pointer, v value.Value) Edit { return Edit{Op: OpAdd, Path: path, Value: v} }

// Patch is an ordered edit list.
type Patch []Edit

var (
	// ErrMissingParent is returned when the container an edit targets does
	// not exist.
	ErrMissingParent = errors.New("parent container does not exist")
	// ErrMissingTarget is returned when a replace edit names an absent
	// location.
	ErrMissingTarget = errors.New("target location does not exist")
	// ErrIndex is returned for an array index that is malformed or out of
	// range.
	ErrIndex = errors.New("array index out of range")
	// ErrUnknownOp is returned for an operation other than add and replace.
	ErrUnknownOp = errors.New("unsupported patch operation")
)

// Error reports the edit that could not be applied.
type Error struct {
	Index int
	Edit  Edit
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("patch: edit %d (%s '%s'): %v", e.Index, e.Edit.Op, e.Edit.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Empty reports whether p has no edits.
func (p Patch) Empty() bool { return len(p) == 0 }

// Apply applies p to doc in order. An empty patch returns doc itself.
func (p Patch) Apply(doc value.Value) (value.Value, error) {
	if p.Empty() {
		return doc, nil
	}
	out := doc
	for i, e := range p {
		if e.Op != OpAdd && e.Op != OpReplace {
			return value.Value{}, &Error{Index: i, Edit: e, Err: ErrUnknownOp}
		}
		next, err := set(out, e.Path, e.Value, e.Op)
		if err != nil {
			return value.Value{}, &Error{Index: i, Edit: e, Err: err}
		}
		out = next
	}
	return out, nil
}

// ApplyText parses text, applies p and dumps the result. An empty patch
// returns text unchanged, byte for byte.
func (p Patch) ApplyText(text []byte) ([]byte, error) {
	if p.Empty() {
		return text, nil
	}
	doc, err := value.Parse(text)
	if err != nil {
		return nil, err
	}
	out, err := p.Apply(doc)
	if err != nil {
		return nil, err
	}
	return out.Dump(), nil
}

// set returns a copy of doc with v stored at path. Only the containers on
// path are copied.
func set(doc value.Value, path value.Pointer, v value.Value, op Op) (value.Value, error) {
	if path.IsRoot() {
		return v, nil
	}
	head, rest := path[0], path[1:]
	switch doc.Kind() {
	case value.KindObject:
		child, ok := doc.Get(head)
		if len(rest) == 0 {
			if op == OpReplace && !ok {
				return value.Value{}, ErrMissingTarget
			}
			return value.ObjectOf(doc.Object().Clone().Set(head, v)), nil
		}
		if !ok {
			return value.Value{}, ErrMissingParent
		}
		nc, err := set(child, rest, v, op)
		if err != nil {
			return value.Value{}, err
		}
		return value.ObjectOf(doc.Object().Clone().Set(head, nc)), nil
	case value.KindArray:
		items := make([]value.Value, 0, doc.Len()+1)
		for _, it := range doc.Items() {
			items = append(items, it)
		}
		if len(rest) == 0 && op == OpAdd {
			i := len(items)
			if head != "-" {
				var ok bool
				if i, ok = value.ArrayIndex(head); !ok || i > len(items) {
					return value.Value{}, ErrIndex
				}
			}
			items = append(items[:i], append([]value.Value{v}, items[i:]...)...)
			return value.ArrayOf(items...), nil
		}
		i, ok := value.ArrayIndex(head)
		if !ok || i >= len(items) {
			if len(rest) == 0 {
				return value.Value{}, ErrMissingTarget
			}
			return value.Value{}, ErrMissingParent
		}
		if len(rest) == 0 {
			items[i] = v
			return value.ArrayOf(items...), nil
		}
		nc, err := set(items[i], rest, v, op)
		if err != nil {
			return value.Value{}, err
		}
		items[i] = nc
		return value.ArrayOf(items...), nil
	default:
		return value.Value{}, ErrMissingParent
	}
}

// MarshalJSON renders p as an RFC 6902 document.
func (p Patch) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		o := value.NewObject().
			Set("op", value.FromString(string(e.Op))).
			Set("path", value.FromString(e.Path.String())).
			Set("value", e.Value)
		buf.Write(value.ObjectOf(o).Dump())
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// ApplyJSON applies p to a JSON document through the RFC 6902 reference
// implementation, the way a consumer of MarshalJSON would. The result is
// re-dumped in compact form. An empty patch returns doc unchanged.
func (p Patch) ApplyJSON(doc []byte) ([]byte, error) {
	if p.Empty() {
		return doc, nil
	}
	raw, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	jp, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("patch: decode: %w", err)
	}
	opts := jsonpatch.NewApplyOptions()
	opts.EscapeHTML = false
	out, err := jp.ApplyWithOptions(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("patch: apply: %w", err)
	}
	v, err := value.Parse(out)
	if err != nil {
		return nil, err
	}
	return v.Dump(), nil
}
