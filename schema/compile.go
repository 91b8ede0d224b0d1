package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonreference"

	"github.com/reoring/jsonvalidator/resolver"
	"github.com/reoring/jsonvalidator/value"
)

var (
	// ErrNotSchema is returned when a subschema is neither an object nor a
	// boolean.
	ErrNotSchema = errors.New("schema must be an object or a boolean")
	// ErrKeyword is returned when a keyword has a value of the wrong shape.
	ErrKeyword = errors.New("invalid keyword value")
)

// Error reports a schema that cannot be compiled. Location is the canonical
// URI of the subschema and Keyword the offending keyword, if any.
type Error struct {
	Location string
	Keyword  string
	Err      error
}

func (e *Error) Error() string {
	where := e.Location
	if e.Keyword != "" {
		where += "/" + escapeToken(e.Keyword)
	}
	return "schema error at '" + where + "': " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Pointer returns the JSON Pointer part of Location, extended with Keyword.
func (e *Error) Pointer() string {
	p := resolver.Fragment(e.Location)
	if e.Keyword != "" {
		p += "/" + escapeToken(e.Keyword)
	}
	return p
}

func escapeToken(s string) string { return value.Pointer{s}.String()[1:] }

// Option configures Compile.
type Option func(*compiler)

// WithLoader sets the Loader used for references to other documents. Without
// it external references fail.
func WithLoader(l *resolver.Loader) Option {
	return func(c *compiler) { c.loader = l }
}

// WithBaseURI sets the URI of the document being compiled. Relative `$id`
// and `$ref` values resolve against it.
func WithBaseURI(uri string) Option {
	return func(c *compiler) { c.base = resolver.DocumentURI(uri) }
}

type location struct {
	doc string
	ptr value.Pointer
}

type compiler struct {
	loader *resolver.Loader
	base   string
	root   *Root
	docs   map[string]value.Value
	ids    map[string]location
	err    error
}

// Compile compiles doc into a Root. It either returns a complete Root or an
// error; there is no partially compiled result.
func Compile(doc value.Value, opts ...Option) (*Root, error) {
	c := &compiler{
		root: &Root{byURI: make(map[string]Ref)},
		docs: make(map[string]value.Value),
		ids:  make(map[string]location),
	}
	for _, o := range opts {
		o(c)
	}
	if c.loader == nil {
		c.loader = resolver.NewLoader("")
	}
	c.loader.Register(MetaSchemaURI, metaDocument())
	c.addDocument(c.base, doc)
	entry := c.compile(c.base, c.base, nil, doc)
	if c.err != nil {
		return nil, c.err
	}
	c.root.entry = entry
	return c.root, nil
}

func (c *compiler) fail(loc, keyword string, err error) {
	if c.err == nil {
		c.err = &Error{Location: loc, Keyword: keyword, Err: err}
	}
}

func (c *compiler) failf(loc, keyword, format string, args ...any) {
	c.fail(loc, keyword, fmt.Errorf("%w: "+format, append([]any{ErrKeyword}, args...)...))
}

func (c *compiler) addDocument(uri string, doc value.Value) {
	c.docs[uri] = doc
	c.indexIDs(uri, uri, nil, doc)
}

// indexIDs records every `$id` of a document so references can name a
// subschema by its identifier.
func (c *compiler) indexIDs(doc, base string, ptr value.Pointer, v value.Value) {
	switch v.Kind() {
	case value.KindObject:
		if id, ok := v.Get("$id"); ok && id.Kind() == value.KindString {
			if resolved, err := resolveURI(base, id.Text()); err == nil {
				key := resolved
				if resolver.Fragment(resolved) == "" {
					key = resolver.DocumentURI(resolved)
				}
				if _, seen := c.ids[key]; !seen {
					c.ids[key] = location{doc: doc, ptr: ptr}
				}
				base = resolver.DocumentURI(resolved)
			}
		}
		for k, m := range v.Members() {
			switch k {
			case "enum", "const", "default", "examples":
				continue
			}
			c.indexIDs(doc, base, ptr.Key(k), m)
		}
	case value.KindArray:
		for i, it := range v.Items() {
			c.indexIDs(doc, base, ptr.Index(i), it)
		}
	}
}

// document returns a loaded document, reading it through the Loader the
// first time.
func (c *compiler) document(uri string) (value.Value, error) {
	if d, ok := c.docs[uri]; ok {
		return d, nil
	}
	d, err := c.loader.Load(uri)
	if err != nil {
		return value.Value{}, err
	}
	c.addDocument(uri, d)
	return d, nil
}

// scopeAt returns the base URI in effect for the subschema at ptr, before
// that subschema's own `$id` applies.
func (c *compiler) scopeAt(doc string, ptr value.Pointer) string {
	base := doc
	cur := c.docs[doc]
	for _, tok := range ptr {
		base = applyID(base, cur)
		next, ok := value.Pointer{tok}.Lookup(cur)
		if !ok {
			break
		}
		cur = next
	}
	return base
}

func applyID(base string, v value.Value) string {
	id, ok := v.Get("$id")
	if !ok || id.Kind() != value.KindString {
		return base
	}
	resolved, err := resolveURI(base, id.Text())
	if err != nil {
		return base
	}
	return resolver.DocumentURI(resolved)
}

func resolveURI(base, ref string) (string, error) {
	parent, err := gojsonreference.NewJsonReference(base)
	if err != nil {
		return "", err
	}
	child, err := gojsonreference.NewJsonReference(ref)
	if err != nil {
		return "", err
	}
	r, err := parent.Inherits(child)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// compile registers the subschema v found at doc#ptr and compiles its
// keywords. The node is registered before its children so that references
// back to it terminate.
func (c *compiler) compile(base, doc string, ptr value.Pointer, v value.Value) Ref {
	loc := doc + "#" + ptr.String()
	if ref, ok := c.root.byURI[loc]; ok {
		return ref
	}
	n := newNode(loc)
	ref := Ref(len(c.root.nodes))
	c.root.nodes = append(c.root.nodes, n)
	c.root.byURI[loc] = ref

	switch v.Kind() {
	case value.KindBool:
		n.Always = v.Bool()
		n.Never = !v.Bool()
		return ref
	case value.KindObject:
	default:
		c.fail(loc, "", ErrNotSchema)
		return ref
	}

	if id, ok := v.Get("$id"); ok {
		if id.Kind() != value.KindString {
			c.failf(loc, "$id", "must be a string")
			return ref
		}
		resolved, err := resolveURI(base, id.Text())
		if err != nil {
			c.failf(loc, "$id", "%v", err)
			return ref
		}
		n.ID = resolved
		base = resolver.DocumentURI(resolved)
	}

	kc := keywords{c: c, n: n, base: base, doc: doc, ptr: ptr, loc: loc}
	if r, ok := v.Get("$ref"); ok {
		kc.ref(r)
		for k, m := range v.Members() {
			switch k {
			case "$ref", "$id":
			case "default":
				n.Default, n.HasDefault = m, true
			default:
				kc.annotate(k, m)
			}
		}
		return ref
	}
	for k, m := range v.Members() {
		if c.err != nil {
			break
		}
		kc.keyword(k, m)
	}
	return ref
}

// keywords compiles the members of one schema object into n.
type keywords struct {
	c    *compiler
	n    *Node
	base string
	doc  string
	ptr  value.Pointer
	loc  string
}

func (k keywords) sub(path value.Pointer, v value.Value) Ref {
	return k.c.compile(k.base, k.doc, k.ptr.Concat(path), v)
}

func (k keywords) failf(kw, format string, args ...any) { k.c.failf(k.loc, kw, format, args...) }

func (k keywords) annotate(kw string, v value.Value) {
	if k.n.Annotations == nil {
		k.n.Annotations = value.NewObject()
	}
	k.n.Annotations.Set(kw, v)
}

func (k keywords) keyword(kw string, v value.Value) {
	n := k.n
	switch kw {
	case "$id":
	case "type":
		n.Types = k.types(kw, v)
	case "enum":
		if v.Kind() != value.KindArray {
			k.failf(kw, "must be an array")
			return
		}
		n.HasEnum = true
		for _, it := range v.Items() {
			n.Enum = append(n.Enum, it)
		}
	case "const":
		n.Const, n.HasConst = v, true
	case "multipleOf":
		n.MultipleOf = k.number(kw, v)
		if n.MultipleOf != "" && value.Compare(n.MultipleOf, "0") <= 0 {
			k.failf(kw, "must be greater than 0")
		}
	case "maximum":
		n.Maximum = k.number(kw, v)
	case "exclusiveMaximum":
		n.ExclusiveMaximum = k.number(kw, v)
	case "minimum":
		n.Minimum = k.number(kw, v)
	case "exclusiveMinimum":
		n.ExclusiveMinimum = k.number(kw, v)
	case "maxLength":
		n.MaxLength = k.count(kw, v)
	case "minLength":
		n.MinLength = k.count(kw, v)
	case "pattern":
		n.Pattern = k.regexp(kw, v)
	case "items":
		if v.Kind() == value.KindArray {
			n.ItemsList = k.list(kw, v, false)
			return
		}
		n.Items = k.sub(value.Pointer{kw}, v)
	case "additionalItems":
		n.AdditionalItems = k.sub(value.Pointer{kw}, v)
	case "maxItems":
		n.MaxItems = k.count(kw, v)
	case "minItems":
		n.MinItems = k.count(kw, v)
	case "uniqueItems":
		n.UniqueItems = k.boolean(kw, v)
	case "contains":
		n.Contains = k.sub(value.Pointer{kw}, v)
	case "maxProperties":
		n.MaxProperties = k.count(kw, v)
	case "minProperties":
		n.MinProperties = k.count(kw, v)
	case "required":
		n.Required = k.strings(kw, v)
	case "properties":
		if !k.object(kw, v) {
			return
		}
		for name, m := range v.Members() {
			n.Properties = append(n.Properties, Property{Name: name, Schema: k.sub(value.Pointer{kw, name}, m)})
		}
	case "patternProperties":
		if !k.object(kw, v) {
			return
		}
		for pat, m := range v.Members() {
			re, err := regexp.Compile(pat)
			if err != nil {
				k.failf(kw, "invalid pattern %q: %v", pat, err)
				return
			}
			n.PatternProperties = append(n.PatternProperties, PatternProperty{Pattern: re, Schema: k.sub(value.Pointer{kw, pat}, m)})
		}
	case "additionalProperties":
		n.AdditionalProperties = k.sub(value.Pointer{kw}, v)
	case "dependencies":
		if !k.object(kw, v) {
			return
		}
		for name, m := range v.Members() {
			d := Dependency{Name: name, Schema: NoRef}
			if m.Kind() == value.KindArray {
				d.Required = k.strings(kw, m)
			} else {
				d.Schema = k.sub(value.Pointer{kw, name}, m)
			}
			n.Dependencies = append(n.Dependencies, d)
		}
	case "propertyNames":
		n.PropertyNames = k.sub(value.Pointer{kw}, v)
	case "if":
		n.If = k.sub(value.Pointer{kw}, v)
	case "then":
		n.Then = k.sub(value.Pointer{kw}, v)
	case "else":
		n.Else = k.sub(value.Pointer{kw}, v)
	case "allOf":
		n.AllOf = k.list(kw, v, true)
	case "anyOf":
		n.AnyOf = k.list(kw, v, true)
	case "oneOf":
		n.OneOf = k.list(kw, v, true)
	case "not":
		n.Not = k.sub(value.Pointer{kw}, v)
	case "definitions":
		if !k.object(kw, v) {
			return
		}
		for name, m := range v.Members() {
			k.sub(value.Pointer{kw, name}, m)
		}
	case "default":
		n.Default, n.HasDefault = v, true
	case "format":
		if v.Kind() != value.KindString {
			k.failf(kw, "must be a string")
			return
		}
		n.Format = v.Text()
		k.annotate(kw, v)
	default:
		k.annotate(kw, v)
	}
}

func (k keywords) types(kw string, v value.Value) Type {
	var names []value.Value
	switch v.Kind() {
	case value.KindString:
		names = []value.Value{v}
	case value.KindArray:
		if v.Len() == 0 {
			k.failf(kw, "must not be empty")
			return 0
		}
		for _, it := range v.Items() {
			names = append(names, it)
		}
	default:
		k.failf(kw, "must be a string or an array of strings")
		return 0
	}
	var t Type
	for _, name := range names {
		bit, ok := ParseType(name.Text())
		if name.Kind() != value.KindString || !ok {
			k.failf(kw, "unknown type %s", name)
			return 0
		}
		t |= bit
	}
	return t
}

func (k keywords) number(kw string, v value.Value) value.Number {
	if v.Kind() != value.KindNumber {
		k.failf(kw, "must be a number")
		return ""
	}
	return v.Number()
}

func (k keywords) count(kw string, v value.Value) int {
	if v.Kind() != value.KindNumber || !v.Number().IsInteger() {
		k.failf(kw, "must be a non-negative integer")
		return -1
	}
	i, ok := v.Number().Int64()
	if !ok || i < 0 {
		k.failf(kw, "must be a non-negative integer")
		return -1
	}
	if i > int64(^uint32(0)>>1) {
		i = int64(^uint32(0) >> 1)
	}
	return int(i)
}

func (k keywords) boolean(kw string, v value.Value) bool {
	if v.Kind() != value.KindBool {
		k.failf(kw, "must be a boolean")
	}
	return v.Bool()
}

func (k keywords) object(kw string, v value.Value) bool {
	if v.Kind() != value.KindObject {
		k.failf(kw, "must be an object")
		return false
	}
	return true
}

func (k keywords) regexp(kw string, v value.Value) *regexp.Regexp {
	if v.Kind() != value.KindString {
		k.failf(kw, "must be a string")
		return nil
	}
	re, err := regexp.Compile(v.Text())
	if err != nil {
		k.failf(kw, "invalid pattern %q: %v", v.Text(), err)
		return nil
	}
	return re
}

func (k keywords) strings(kw string, v value.Value) []string {
	if v.Kind() != value.KindArray {
		k.failf(kw, "must be an array of strings")
		return nil
	}
	out := make([]string, 0, v.Len())
	for _, it := range v.Items() {
		if it.Kind() != value.KindString {
			k.failf(kw, "must be an array of strings")
			return nil
		}
		out = append(out, it.Text())
	}
	return out
}

func (k keywords) list(kw string, v value.Value, nonEmpty bool) []Ref {
	if v.Kind() != value.KindArray {
		k.failf(kw, "must be an array of schemas")
		return nil
	}
	if nonEmpty && v.Len() == 0 {
		k.failf(kw, "must not be empty")
		return nil
	}
	refs := make([]Ref, 0, v.Len())
	for i, it := range v.Items() {
		refs = append(refs, k.sub(value.Pointer{kw}.Index(i), it))
	}
	return refs
}

// ref resolves a `$ref` and compiles its target.
func (k keywords) ref(v value.Value) {
	if v.Kind() != value.KindString {
		k.failf("$ref", "must be a string")
		return
	}
	uri, err := resolveURI(k.base, v.Text())
	if err != nil {
		k.failf("$ref", "malformed reference %q: %v", v.Text(), err)
		return
	}
	k.n.RefURI = uri
	k.n.RefTarget = k.c.target(k.loc, v.Text(), uri)
}

// target finds the subschema a resolved reference names: a known `$id`,
// a plain-name anchor or a JSON Pointer into a document. written is the
// `$ref` text, used in failure messages.
func (c *compiler) target(from, written, uri string) Ref {
	docURI, frag := resolver.DocumentURI(uri), resolver.Fragment(uri)
	if frag != "" && !strings.HasPrefix(frag, "/") {
		at, ok := c.ids[uri]
		if !ok {
			if _, err := c.document(docURI); err != nil {
				c.fail(from, "$ref", asWritten(err, written))
				return NoRef
			}
			if at, ok = c.ids[uri]; !ok {
				c.fail(from, "$ref", &resolver.Error{URI: uri, Ref: written, Err: resolver.ErrPointer})
				return NoRef
			}
		}
		return c.compileAt(at)
	}

	at, ok := c.ids[docURI]
	if !ok {
		if _, err := c.document(docURI); err != nil {
			c.fail(from, "$ref", asWritten(err, written))
			return NoRef
		}
		at = location{doc: docURI}
	}
	resource, _ := at.ptr.Lookup(c.docs[at.doc])
	_, rel, err := resolver.ResolvePointer(resource, uri, frag)
	if err != nil {
		c.fail(from, "$ref", asWritten(err, written))
		return NoRef
	}
	return c.compileAt(location{doc: at.doc, ptr: at.ptr.Concat(rel)})
}

// asWritten records the `$ref` text on a resolver failure.
func asWritten(err error, written string) error {
	var re *resolver.Error
	if errors.As(err, &re) && re.Ref == "" {
		re.Ref = written
	}
	return err
}

func (c *compiler) compileAt(at location) Ref {
	if ref, ok := c.root.byURI[at.doc+"#"+at.ptr.String()]; ok {
		return ref
	}
	v, _ := at.ptr.Lookup(c.docs[at.doc])
	return c.compile(c.scopeAt(at.doc, at.ptr), at.doc, at.ptr, v)
}
