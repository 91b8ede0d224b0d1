package jsonvalidator

import (
	"sync/atomic"

	"github.com/reoring/jsonvalidator/resolver"
	"github.com/reoring/jsonvalidator/schema"
	"github.com/reoring/jsonvalidator/validator"
	"github.com/reoring/jsonvalidator/value"
)

// Handle is a compiled schema. It is only ever returned ready to use; a
// schema that fails to compile yields no Handle.
//
// Validate may be called concurrently. Close must not race with Validate.
type Handle struct {
	root   atomic.Pointer[schema.Root]
	loader *resolver.Loader
	cfg    config
}

// New compiles schemaText. External references are read from the directory
// given with WithBaseDir.
func New(schemaText []byte, opts ...Option) (h *Handle, err error) {
	defer recoverError(&err)
	cfg := newConfig(opts)
	doc, err := value.Parse(schemaText, cfg.parse)
	if err != nil {
		return nil, parseError(KindInvalidJSON, err)
	}
	return compile(doc, cfg)
}

// NewFromValue compiles an already parsed schema document.
func NewFromValue(doc value.Value, opts ...Option) (h *Handle, err error) {
	defer recoverError(&err)
	return compile(doc, newConfig(opts))
}

func compile(doc value.Value, cfg config) (*Handle, error) {
	l := resolver.NewLoader(cfg.baseDir)
	root, err := schema.Compile(doc, schema.WithLoader(l))
	if err != nil {
		return nil, compileError(err)
	}
	h := &Handle{loader: l, cfg: cfg}
	h.root.Store(root)
	return h, nil
}

// Validate validates instanceText and returns it with defaults applied.
// When no default applies the returned slice is instanceText itself.
func (h *Handle) Validate(instanceText []byte) (out []byte, err error) {
	defer recoverError(&err)
	inst, err := value.Parse(instanceText, h.cfg.parse)
	if err != nil {
		return nil, parseError(KindInvalidJSON, err)
	}
	return h.validateParsed(instanceText, inst)
}

// ValidateValue validates a parsed instance and returns the structured
// result: every violation and the default edits. It reports an error only
// for a closed Handle.
func (h *Handle) ValidateValue(inst value.Value) (res validator.Result, err error) {
	defer recoverError(&err)
	root := h.root.Load()
	if root == nil {
		return validator.Result{}, ErrClosed
	}
	return validator.Validate(root, inst, validator.Options{StopOnFirstViolation: h.cfg.stopOnFirst}), nil
}

func (h *Handle) validateParsed(text []byte, inst value.Value) ([]byte, error) {
	res, err := h.ValidateValue(inst)
	if err != nil {
		return nil, err
	}
	if !res.Valid() {
		return nil, validationError(res.Violations)
	}
	if res.Patch.Empty() {
		return text, nil
	}
	patched, err := res.Patch.Apply(inst)
	if err != nil {
		return nil, &Error{Kind: KindSchema, Err: err}
	}
	return patched.Dump(), nil
}

// Close releases the compiled schema and the cache of loaded documents.
// Later calls return ErrClosed. Close is idempotent.
func (h *Handle) Close() error {
	if h.root.Swap(nil) != nil {
		h.loader.Reset()
	}
	return nil
}
