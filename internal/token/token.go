// Package token defines the streaming token model shared by the JSON drivers
// under source/ and the value builder.
package token

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBeginObject:
		return "'{'"
	case KindEndObject:
		return "'}'"
	case KindBeginArray:
		return "'['"
	case KindEndArray:
		return "']'"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "null"
	}
}

// Token is one lexical element. Number keeps the literal text so callers
// decide how to interpret it. Offset is the byte position after the token,
// or -1 when the driver cannot tell.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// Source yields tokens until io.EOF.
type Source interface {
	NextToken() (Token, error)
	Location() int64
}

// Frame tracks whether the innermost open object expects a key next. Drivers
// built on Decoder.Token use it to tell keys from string values.
type Frame struct {
	Object       bool
	ExpectingKey bool
}

// Stack is the container stack kept by token drivers.
type Stack []Frame

// Open pushes a container.
func (s *Stack) Open(object bool) {
	*s = append(*s, Frame{Object: object, ExpectingKey: object})
}

// Close pops a container and marks the enclosing member as complete.
func (s *Stack) Close() {
	if n := len(*s); n > 0 {
		*s = (*s)[:n-1]
	}
	s.ValueDone()
}

// IsKey reports whether a string token at this point is an object key, and
// flips the expectation when it is.
func (s Stack) IsKey() bool {
	if n := len(s); n > 0 {
		top := &s[n-1]
		if top.Object && top.ExpectingKey {
			top.ExpectingKey = false
			return true
		}
	}
	return false
}

// ValueDone records that a member value was read.
func (s Stack) ValueDone() {
	if n := len(s); n > 0 {
		top := &s[n-1]
		if top.Object && !top.ExpectingKey {
			top.ExpectingKey = true
		}
	}
}
