// Package json is the encoding/json backed token driver. It is the default
// driver of package value.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/reoring/jsonvalidator/internal/token"
)

type jsonSource struct {
	dec        *json.Decoder
	stack      token.Stack
	lastOffset int64
}

// NewReader wraps an io.Reader into a token.Source.
func NewReader(r io.Reader) token.Source {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonSource{dec: dec, lastOffset: -1}
}

// NewBytes wraps a byte slice into a token.Source.
func NewBytes(b []byte) token.Source { return NewReader(bytes.NewReader(b)) }

func (s *jsonSource) NextToken() (token.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return token.Token{}, io.EOF
		}
		return token.Token{}, err
	}
	s.lastOffset = s.dec.InputOffset()
	off := s.lastOffset

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			s.stack.Open(true)
			return token.Token{Kind: token.KindBeginObject, Offset: off}, nil
		case '[':
			s.stack.Open(false)
			return token.Token{Kind: token.KindBeginArray, Offset: off}, nil
		case '}':
			s.stack.Close()
			return token.Token{Kind: token.KindEndObject, Offset: off}, nil
		default:
			s.stack.Close()
			return token.Token{Kind: token.KindEndArray, Offset: off}, nil
		}
	case string:
		if s.stack.IsKey() {
			return token.Token{Kind: token.KindKey, String: v, Offset: off}, nil
		}
		s.stack.ValueDone()
		return token.Token{Kind: token.KindString, String: v, Offset: off}, nil
	case json.Number:
		s.stack.ValueDone()
		return token.Token{Kind: token.KindNumber, Number: string(v), Offset: off}, nil
	case float64:
		s.stack.ValueDone()
		return token.Token{Kind: token.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: off}, nil
	case bool:
		s.stack.ValueDone()
		return token.Token{Kind: token.KindBool, Bool: v, Offset: off}, nil
	}
	s.stack.ValueDone()
	return token.Token{Kind: token.KindNull, Offset: off}, nil
}

func (s *jsonSource) Location() int64 { return s.lastOffset }
