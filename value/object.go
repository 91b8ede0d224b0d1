package value

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an insertion-ordered set of unique members.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// Set adds or replaces a member. A replaced member keeps its position.
func (o *Object) Set(key string, v Value) *Object {
	o.m.Set(key, v)
	return o
}

// Get returns a member.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	return o.m.Get(key)
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.m.Len()
}

// All iterates members in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Keys returns member names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for k := range o.All() {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a shallow copy; member values are shared.
func (o *Object) Clone() *Object {
	c := NewObject()
	for k, v := range o.All() {
		c.m.Set(k, v)
	}
	return c
}
