package value

import (
	"errors"
	"strconv"
	"strings"
)

// Pointer is an RFC 6901 JSON Pointer held as unescaped reference tokens.
// The nil Pointer addresses the document root.
type Pointer []string

// ErrInvalidPointer is returned for text that is not a JSON Pointer.
var ErrInvalidPointer = errors.New("invalid JSON pointer")

const (
	encodedTilde = "~0"
	encodedSlash = "~1"
)

var (
	pointerEscaper   = strings.NewReplacer("~", encodedTilde, "/", encodedSlash)
	pointerUnescaper = strings.NewReplacer(encodedSlash, "/", encodedTilde, "~")
)

// ParsePointer parses pointer text. The empty string is the root.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return nil, nil
	}
	if s[0] != '/' {
		return nil, ErrInvalidPointer
	}
	parts := strings.Split(s[1:], "/")
	p := make(Pointer, len(parts))
	for i, part := range parts {
		if !validEscapes(part) {
			return nil, ErrInvalidPointer
		}
		p[i] = pointerUnescaper.Replace(part)
	}
	return p, nil
}

func validEscapes(part string) bool {
	for i := 0; i < len(part); i++ {
		if part[i] != '~' {
			continue
		}
		if i+1 >= len(part) || part[i+1] != '0' && part[i+1] != '1' {
			return false
		}
		i++
	}
	return true
}

// Key returns a new pointer one object member deeper.
func (p Pointer) Key(name string) Pointer {
	out := make(Pointer, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Index returns a new pointer one array element deeper.
func (p Pointer) Index(i int) Pointer { return p.Key(strconv.Itoa(i)) }

// Concat appends the tokens of q.
func (p Pointer) Concat(q Pointer) Pointer {
	out := make(Pointer, 0, len(p)+len(q))
	return append(append(out, p...), q...)
}

// IsRoot reports whether p addresses the whole document.
func (p Pointer) IsRoot() bool { return len(p) == 0 }

// Parent splits p into its parent and last token. It returns false for the
// root.
func (p Pointer) Parent() (Pointer, string, bool) {
	if len(p) == 0 {
		return nil, "", false
	}
	return p[:len(p)-1], p[len(p)-1], true
}

// String renders p as pointer text.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range p {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(t))
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Pointer) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pointer) UnmarshalText(b []byte) error {
	q, err := ParsePointer(string(b))
	if err != nil {
		return err
	}
	*p = q
	return nil
}

// Lookup resolves p against doc.
func (p Pointer) Lookup(doc Value) (Value, bool) {
	cur := doc
	for _, t := range p {
		switch cur.kind {
		case KindObject:
			next, ok := cur.obj.Get(t)
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindArray:
			i, ok := ArrayIndex(t)
			if !ok || i >= len(cur.arr) {
				return Value{}, false
			}
			cur = cur.arr[i]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// ArrayIndex parses an array reference token: decimal digits without leading
// zeros.
func ArrayIndex(t string) (int, bool) {
	if t == "" || len(t) > 1 && t[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(t); i++ {
		if t[i] < '0' || t[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(t)
	return i, err == nil
}
