package value

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/reoring/jsonvalidator/internal/token"
	jsonsrc "github.com/reoring/jsonvalidator/source/json"
)

// Driver turns JSON text into a token stream. The default implementation is
// based on encoding/json and may be swapped with SetDriver.
type Driver interface {
	NewBytes(b []byte) token.Source
	Name() string
}

var (
	driverMu      sync.RWMutex
	currentDriver Driver = defaultDriver{}
)

// SetDriver replaces the process-wide driver; nil values are ignored.
func SetDriver(d Driver) {
	if d == nil {
		return
	}
	driverMu.Lock()
	currentDriver = d
	driverMu.Unlock()
}

// UseDefaultDriver restores the encoding/json driver.
func UseDefaultDriver() {
	driverMu.Lock()
	currentDriver = defaultDriver{}
	driverMu.Unlock()
}

// CurrentDriver returns the active driver.
func CurrentDriver() Driver {
	driverMu.RLock()
	d := currentDriver
	driverMu.RUnlock()
	return d
}

type defaultDriver struct{}

func (defaultDriver) NewBytes(b []byte) token.Source { return jsonsrc.NewBytes(b) }
func (defaultDriver) Name() string                   { return "encoding/json" }

// DuplicateKeys selects how repeated object keys are handled.
type DuplicateKeys int

const (
	// DuplicateLastWins keeps the last value at the first key's position.
	DuplicateLastWins DuplicateKeys = iota
	// DuplicateError rejects the document.
	DuplicateError
)

// ParseOptions bundles parsing limits. The zero value applies none.
type ParseOptions struct {
	OnDuplicateKey DuplicateKeys
	MaxDepth       int
	MaxBytes       int64
	// Driver overrides the process-wide driver for this call.
	Driver Driver
}

// SyntaxError reports malformed JSON input.
type SyntaxError struct {
	Offset int64 // -1 when unknown
	Path   string
	Err    error
}

func (e *SyntaxError) Error() string {
	msg := e.Err.Error()
	if e.Path != "" {
		msg += " at '" + e.Path + "'"
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	return msg
}

func (e *SyntaxError) Unwrap() error { return e.Err }

var (
	errEmptyInput      = errors.New("unexpected end of input")
	errTrailingContent = errors.New("unexpected trailing content after top-level value")
)

// Parse decodes exactly one JSON value from text.
func Parse(text []byte, opts ...ParseOptions) (Value, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	d := opt.Driver
	if d == nil {
		d = CurrentDriver()
	}
	src := token.Enforce(d.NewBytes(text), token.EnforceOptions{
		OnDuplicate: toTokenDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
	})
	b := builder{src: src}
	v, err := b.decode()
	if err != nil {
		return Value{}, b.wrap(err)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingContent
		}
		return Value{}, b.wrap(err)
	}
	return v, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(text string) Value {
	v, err := Parse([]byte(text))
	if err != nil {
		panic("value: MustParse: " + err.Error())
	}
	return v
}

func toTokenDup(d DuplicateKeys) token.DuplicatePolicy {
	if d == DuplicateError {
		return token.DupError
	}
	return token.DupLastWins
}

// builder assembles Values from a token stream.
type builder struct {
	src token.Source
}

func (b *builder) wrap(err error) error {
	se := &SyntaxError{Offset: b.src.Location(), Err: err}
	var ie *token.IssueError
	if errors.As(err, &ie) {
		se.Path = ie.Path
		se.Err = errors.New(ie.Message)
	}
	if errors.Is(err, io.EOF) {
		se.Err = errEmptyInput
	}
	return se
}

func (b *builder) decode() (Value, error) {
	tok, err := b.src.NextToken()
	if err != nil {
		return Value{}, err
	}
	return b.value(tok)
}

func (b *builder) value(tok token.Token) (Value, error) {
	switch tok.Kind {
	case token.KindBeginObject:
		return b.object()
	case token.KindBeginArray:
		return b.array()
	case token.KindString:
		return FromString(tok.String), nil
	case token.KindNumber:
		return FromNumber(Number(tok.Number)), nil
	case token.KindBool:
		return FromBool(tok.Bool), nil
	case token.KindNull:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected %s", tok.Kind)
	}
}

func (b *builder) object() (Value, error) {
	o := NewObject()
	for {
		tok, err := b.src.NextToken()
		if err != nil {
			return Value{}, unexpectedEOF(err)
		}
		if tok.Kind == token.KindEndObject {
			return ObjectOf(o), nil
		}
		if tok.Kind != token.KindKey {
			return Value{}, fmt.Errorf("expected object key, got %s", tok.Kind)
		}
		m, err := b.decode()
		if err != nil {
			return Value{}, unexpectedEOF(err)
		}
		o.Set(tok.String, m)
	}
}

func (b *builder) array() (Value, error) {
	items := []Value{}
	for {
		tok, err := b.src.NextToken()
		if err != nil {
			return Value{}, unexpectedEOF(err)
		}
		if tok.Kind == token.KindEndArray {
			return ArrayOf(items...), nil
		}
		it, err := b.value(tok)
		if err != nil {
			return Value{}, err
		}
		items = append(items, it)
	}
}

// unexpectedEOF converts a clean EOF inside a container into an error so the
// top-level check does not mistake it for an empty document.
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
