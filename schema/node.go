// Package schema compiles draft-07 JSON Schema documents into an arena of
// nodes.
//
// Every subschema is addressed by a Ref into its Root. `$ref` keywords store
// the Ref of their target instead of a copy of it, so recursive and mutually
// recursive schemas compile to a finite graph.
package schema

import (
	"regexp"
	"strings"

	"github.com/reoring/jsonvalidator/value"
)

// Ref addresses a Node inside a Root.
type Ref int

// NoRef marks an absent subschema.
const NoRef Ref = -1

// Valid reports whether r addresses a node.
func (r Ref) Valid() bool { return r >= 0 }

// Type is a set of simple type names.
type Type uint8

const (
	TypeNull Type = 1 << iota
	TypeBoolean
	TypeObject
	TypeArray
	TypeNumber
	TypeString
	TypeInteger
)

var typeNames = []struct {
	name string
	t    Type
}{
	{"null", TypeNull},
	{"boolean", TypeBoolean},
	{"object", TypeObject},
	{"array", TypeArray},
	{"number", TypeNumber},
	{"string", TypeString},
	{"integer", TypeInteger},
}

// ParseType maps a simple type name to its bit.
func ParseType(name string) (Type, bool) {
	for _, tn := range typeNames {
		if tn.name == name {
			return tn.t, true
		}
	}
	return 0, false
}

// String lists the names in t, comma separated.
func (t Type) String() string {
	var names []string
	for _, tn := range typeNames {
		if t&tn.t != 0 {
			names = append(names, tn.name)
		}
	}
	return strings.Join(names, ", ")
}

// Property is one entry of `properties`, in document order.
type Property struct {
	Name   string
	Schema Ref
}

// PatternProperty is one entry of `patternProperties`.
type PatternProperty struct {
	Pattern *regexp.Regexp
	Schema  Ref
}

// Dependency is one entry of `dependencies`. Exactly one of Required and
// Schema is set.
type Dependency struct {
	Name     string
	Required []string
	Schema   Ref
}

// Node holds the compiled keywords of one subschema. Unset numeric keywords
// are empty Numbers, unset counts are -1 and unset subschemas are NoRef.
type Node struct {
	// Location is the canonical URI of the subschema: document URI, '#',
	// JSON Pointer.
	Location string
	// ID is the resolved base URI when the subschema declares `$id`.
	ID string

	// Always and Never mark the boolean schemas true and false.
	Always bool
	Never  bool

	Types    Type
	Enum     []value.Value
	HasEnum  bool
	Const    value.Value
	HasConst bool

	MultipleOf       value.Number
	Maximum          value.Number
	ExclusiveMaximum value.Number
	Minimum          value.Number
	ExclusiveMinimum value.Number

	MaxLength int
	MinLength int
	Pattern   *regexp.Regexp

	Items           Ref
	ItemsList       []Ref
	AdditionalItems Ref
	MaxItems        int
	MinItems        int
	UniqueItems     bool
	Contains        Ref

	MaxProperties        int
	MinProperties        int
	Required             []string
	Properties           []Property
	PatternProperties    []PatternProperty
	AdditionalProperties Ref
	Dependencies         []Dependency
	PropertyNames        Ref

	If   Ref
	Then Ref
	Else Ref

	AllOf []Ref
	AnyOf []Ref
	OneOf []Ref
	Not   Ref

	// RefURI is the resolved `$ref`; RefTarget its node. Sibling keywords
	// other than `default` are not compiled on a `$ref` node.
	RefURI    string
	RefTarget Ref

	Default    value.Value
	HasDefault bool
	Format     string
	// Annotations keeps keywords without assertion semantics in document
	// order.
	Annotations *value.Object
}

func newNode(location string) *Node {
	return &Node{
		Location:             location,
		MaxLength:            -1,
		MinLength:            -1,
		Items:                NoRef,
		AdditionalItems:      NoRef,
		MaxItems:             -1,
		MinItems:             -1,
		Contains:             NoRef,
		MaxProperties:        -1,
		MinProperties:        -1,
		AdditionalProperties: NoRef,
		PropertyNames:        NoRef,
		If:                   NoRef,
		Then:                 NoRef,
		Else:                 NoRef,
		Not:                  NoRef,
		RefTarget:            NoRef,
	}
}

// IsRef reports whether the node delegates to a `$ref` target.
func (n *Node) IsRef() bool { return n.RefTarget.Valid() }

// Property returns the `properties` entry for name.
func (n *Node) Property(name string) (Ref, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return NoRef, false
}

// Root is a compiled schema: an immutable arena of nodes and the registry of
// their canonical URIs.
type Root struct {
	nodes []*Node
	byURI map[string]Ref
	entry Ref
}

// Entry returns the node of the document root.
func (r *Root) Entry() Ref { return r.entry }

// Node returns the node addressed by ref.
func (r *Root) Node(ref Ref) *Node { return r.nodes[ref] }

// Len returns the number of nodes.
func (r *Root) Len() int { return len(r.nodes) }

// Lookup returns the node registered under a canonical URI.
func (r *Root) Lookup(uri string) (Ref, bool) {
	ref, ok := r.byURI[uri]
	return ref, ok
}

// DefaultOf returns the default of the subschema at ref. A `$ref` node
// without its own default takes the default of its target.
func (r *Root) DefaultOf(ref Ref) (value.Value, bool) {
	seen := map[Ref]bool{}
	for ref.Valid() && !seen[ref] {
		seen[ref] = true
		n := r.nodes[ref]
		if n.HasDefault {
			return n.Default, true
		}
		ref = n.RefTarget
	}
	return value.Value{}, false
}
