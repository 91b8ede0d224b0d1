// Package resolver loads the documents that `$ref` URIs point at.
//
// References are resolved synchronously while a schema is compiled. A fragment
// is looked up in an already loaded document with ResolvePointer; a URI that
// names another document is read from the Loader's base directory and cached
// by document URI so each file is read at most once per Loader.
package resolver

import (
	"errors"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/reoring/jsonvalidator/value"
)

var (
	// ErrNoBaseDir is returned for external references when the Loader has no
	// base directory.
	ErrNoBaseDir = errors.New("no base directory configured for external reference")
	// ErrOpen is returned when a referenced file cannot be read.
	ErrOpen = errors.New("can't open file")
	// ErrInvalidDocument is returned when a referenced file does not parse.
	ErrInvalidDocument = errors.New("invalid json in file")
	// ErrPointer is returned when a fragment does not address a value.
	ErrPointer = errors.New("unresolvable JSON pointer")
)

// Error reports a reference that could not be resolved. Path is the file that
// was attempted, if any. Ref is the reference as written in the schema, before
// it was resolved against the base URI into URI.
type Error struct {
	URI   string
	Ref   string
	Path  string
	Err   error
	Cause error
}

func (e *Error) Error() string {
	target := e.Path
	if target == "" {
		target = e.Ref
	}
	if target == "" {
		target = e.URI
	}
	msg := e.Err.Error() + ": " + target
	if e.Cause != nil && e.Err != ErrOpen && e.Err != ErrInvalidDocument {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the classification sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Loader reads and caches external schema documents.
type Loader struct {
	// BaseDir is joined with the path component of every external URI.
	BaseDir string

	mu    sync.Mutex
	docs  map[string]value.Value
	reads int
}

// NewLoader returns a Loader rooted at baseDir. An empty baseDir disables
// external references.
func NewLoader(baseDir string) *Loader {
	return &Loader{BaseDir: baseDir}
}

// Register makes doc available under uri without touching the filesystem.
// An already registered or loaded document is kept.
func (l *Loader) Register(uri string, doc value.Value) {
	key := DocumentURI(uri)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.docs == nil {
		l.docs = make(map[string]value.Value)
	}
	if _, ok := l.docs[key]; !ok {
		l.docs[key] = doc
	}
}

// Load returns the document named by uri. The fragment is ignored.
func (l *Loader) Load(uri string) (value.Value, error) {
	key := DocumentURI(uri)
	l.mu.Lock()
	defer l.mu.Unlock()
	if doc, ok := l.docs[key]; ok {
		return doc, nil
	}
	if l.BaseDir == "" {
		return value.Value{}, &Error{URI: uri, Err: ErrNoBaseDir}
	}
	file, err := l.filePath(key)
	if err != nil {
		return value.Value{}, &Error{URI: uri, Err: ErrOpen, Cause: err}
	}
	doc, err := l.read(uri, file)
	if err != nil {
		return value.Value{}, err
	}
	if l.docs == nil {
		l.docs = make(map[string]value.Value)
	}
	l.docs[key] = doc
	return doc, nil
}

// Reads reports how many files were read from disk.
func (l *Loader) Reads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

// Reset drops every cached document, registered ones included.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.docs = nil
	l.mu.Unlock()
}

func (l *Loader) filePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	p := u.Path
	if u.Opaque != "" {
		p = u.Opaque
	}
	if p == "" {
		return "", errors.New("reference has no path component")
	}
	// Keep references inside BaseDir: "../x.json" resolves against the
	// directory, never above it.
	clean := path.Clean("/" + p)
	return filepath.Join(l.BaseDir, filepath.FromSlash(clean)), nil
}

func (l *Loader) read(uri, file string) (value.Value, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return value.Value{}, &Error{URI: uri, Path: file, Err: ErrOpen, Cause: err}
	}
	l.reads++
	doc, err := decode(file, b)
	if err != nil {
		return value.Value{}, &Error{URI: uri, Path: file, Err: ErrInvalidDocument, Cause: err}
	}
	return doc, nil
}

func decode(file string, b []byte) (value.Value, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		var n yaml.Node
		if err := yaml.Unmarshal(b, &n); err != nil {
			return value.Value{}, err
		}
		return value.FromYAML(&n)
	default:
		return value.Parse(b)
	}
}

// DocumentURI strips the fragment from uri. Both "x.json" and "x.json#" name
// the same document.
func DocumentURI(uri string) string {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		return uri[:i]
	}
	return uri
}

// Fragment returns the part of uri after '#', or "".
func Fragment(uri string) string {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		return uri[i+1:]
	}
	return ""
}

// ResolvePointer looks fragment up in doc and returns the value with its
// parsed pointer. The fragment is a JSON Pointer and may be percent-encoded as
// URI fragments allow.
func ResolvePointer(doc value.Value, uri, fragment string) (value.Value, value.Pointer, error) {
	if f, err := url.PathUnescape(fragment); err == nil {
		fragment = f
	}
	p, err := value.ParsePointer(fragment)
	if err != nil {
		return value.Value{}, nil, &Error{URI: uri, Err: ErrPointer, Cause: err}
	}
	v, ok := p.Lookup(doc)
	if !ok {
		return value.Value{}, nil, &Error{URI: uri, Err: ErrPointer}
	}
	return v, p, nil
}
