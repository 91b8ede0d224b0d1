//go:build gojson

package gojson

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/jsonvalidator/internal/token"
	"github.com/reoring/jsonvalidator/value"
)

// Driver returns a value.Driver backed by goccy/go-json.
func Driver() value.Driver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewBytes(b []byte) token.Source { return NewBytes(b) }
func (driverGoJSON) Name() string                   { return "go-json" }

type source struct {
	dec   *j.Decoder
	stack token.Stack
}

// NewReader wraps an io.Reader into a token.Source using go-json.
func NewReader(r io.Reader) token.Source {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into a token.Source using go-json.
func NewBytes(b []byte) token.Source { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (token.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return token.Token{}, io.EOF
		}
		return token.Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack.Open(true)
			return token.Token{Kind: token.KindBeginObject, Offset: -1}, nil
		case '[':
			s.stack.Open(false)
			return token.Token{Kind: token.KindBeginArray, Offset: -1}, nil
		case '}':
			s.stack.Close()
			return token.Token{Kind: token.KindEndObject, Offset: -1}, nil
		default:
			s.stack.Close()
			return token.Token{Kind: token.KindEndArray, Offset: -1}, nil
		}
	case string:
		if s.stack.IsKey() {
			return token.Token{Kind: token.KindKey, String: v, Offset: -1}, nil
		}
		s.stack.ValueDone()
		return token.Token{Kind: token.KindString, String: v, Offset: -1}, nil
	case j.Number:
		s.stack.ValueDone()
		return token.Token{Kind: token.KindNumber, Number: string(v), Offset: -1}, nil
	case float64:
		s.stack.ValueDone()
		return token.Token{Kind: token.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: -1}, nil
	case bool:
		s.stack.ValueDone()
		return token.Token{Kind: token.KindBool, Bool: v, Offset: -1}, nil
	}
	s.stack.ValueDone()
	return token.Token{Kind: token.KindNull, Offset: -1}, nil
}

func (s *source) Location() int64 { return -1 }
