package token

import (
	"strconv"
	"strings"
)

// DuplicatePolicy controls what happens when an object repeats a key.
type DuplicatePolicy int

const (
	// DupLastWins keeps the later value, matching most JSON parsers.
	DupLastWins DuplicatePolicy = iota
	// DupError rejects the document.
	DupError
)

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicatePolicy
	MaxDepth    int
	MaxBytes    int64
}

// Disabled reports whether wrapping would be a no-op.
func (o EnforceOptions) Disabled() bool {
	return o.OnDuplicate == DupLastWins && o.MaxDepth == 0 && o.MaxBytes == 0
}

// IssueError reports an enforcement failure at a JSON Pointer.
type IssueError struct {
	Code    string
	Path    string
	Message string
}

func (e *IssueError) Error() string {
	return e.Message + " at '" + e.Path + "'"
}

// Enforce wraps inner with duplicate key, depth and size checks. It returns
// inner unchanged when every check is disabled.
func Enforce(inner Source, opt EnforceOptions) Source {
	if opt.Disabled() {
		return inner
	}
	return &enforcingSource{inner: inner, opt: opt}
}

type enforceFrame struct {
	object     bool
	keys       map[string]struct{}
	path       string
	nextIndex  int
	pendingKey string
}

type enforcingSource struct {
	inner Source
	opt   EnforceOptions
	stack []enforceFrame
}

func (e *enforcingSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	path := e.pathFor(tok)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		f := enforceFrame{object: tok.Kind == KindBeginObject, path: path}
		if f.object && e.opt.OnDuplicate == DupError {
			f.keys = make(map[string]struct{})
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, &IssueError{Code: "max_depth", Path: path, Message: "max depth " + strconv.Itoa(e.opt.MaxDepth) + " exceeded"}
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.keys != nil {
				if _, dup := top.keys[tok.String]; dup {
					return Token{}, &IssueError{Code: "duplicate_key", Path: path, Message: "key '" + tok.String + "' duplicated"}
				}
				top.keys[tok.String] = struct{}{}
			}
		}
	}

	if e.opt.MaxBytes > 0 {
		if off := e.inner.Location(); off > e.opt.MaxBytes {
			return Token{}, &IssueError{Code: "max_bytes", Path: path, Message: "max bytes " + strconv.FormatInt(e.opt.MaxBytes, 10) + " exceeded"}
		}
	}
	return tok, nil
}

func (e *enforcingSource) Location() int64 { return e.inner.Location() }

// pathFor computes the pointer of the value a token belongs to.
func (e *enforcingSource) pathFor(tok Token) string {
	if len(e.stack) == 0 {
		return ""
	}
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		top.pendingKey = tok.String
		return joinPointer(top.path, tok.String)
	case KindEndObject, KindEndArray:
		return top.path
	}
	if top.object {
		return joinPointer(top.path, top.pendingKey)
	}
	p := joinPointer(top.path, strconv.Itoa(top.nextIndex))
	top.nextIndex++
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
