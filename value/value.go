// Package value is the in-memory model for JSON documents and schemas.
//
// A Value is an immutable tagged union. Objects keep their members in
// insertion order so that dumped text is stable, and numbers keep the literal
// text they were parsed from so that an unmodified document dumps back to the
// same digits. The zero Value is JSON null.
package value

import (
	"iter"
	"strconv"
)

// Kind is the runtime type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON-Schema simple type name for k. Numbers always
// report "number"; use Number.IsInteger to distinguish integers.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one JSON value.
type Value struct {
	kind Kind
	b    bool
	s    string // string content or number literal
	arr  []Value
	obj  *Object
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// FromBool wraps a boolean.
func FromBool(b bool) Value { return Value{kind: KindBool, b: b} }

// FromString wraps a string.
func FromString(s string) Value { return Value{kind: KindString, s: s} }

// FromNumber wraps a number literal. The literal is trusted to be valid JSON
// number syntax.
func FromNumber(n Number) Value { return Value{kind: KindNumber, s: string(n)} }

// FromInt wraps an integer.
func FromInt(i int64) Value { return FromNumber(Number(strconv.FormatInt(i, 10))) }

// FromFloat wraps a float using the shortest representation that round-trips.
func FromFloat(f float64) Value {
	return FromNumber(Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// ArrayOf builds an array. The slice is owned by the returned Value.
func ArrayOf(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// ObjectOf wraps an object. The object must not be modified afterwards.
func ObjectOf(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the runtime type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean content; false for other kinds.
func (v Value) Bool() bool { return v.b }

// Number returns the number literal; empty for other kinds.
func (v Value) Number() Number {
	if v.kind != KindNumber {
		return ""
	}
	return Number(v.s)
}

// Text returns the string content; empty for other kinds.
func (v Value) Text() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// Len returns the element count of arrays and the member count of objects.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Index returns the i-th array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Items iterates array elements with their index.
func (v Value) Items() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		if v.kind != KindArray {
			return
		}
		for i, it := range v.arr {
			if !yield(i, it) {
				return
			}
		}
	}
}

// Get returns an object member.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// Has reports whether an object has the member key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Members iterates object members in insertion order.
func (v Value) Members() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if v.kind != KindObject {
			return
		}
		for k, m := range v.obj.All() {
			if !yield(k, m) {
				return
			}
		}
	}
}

// Object returns the underlying object; nil for other kinds.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// String returns the compact JSON text of v.
func (v Value) String() string { return string(v.Dump()) }
