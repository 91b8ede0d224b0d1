package gojson_test

import (
	"errors"
	"testing"

	"github.com/reoring/jsonvalidator/source/gojson"
	"github.com/reoring/jsonvalidator/value"
)

func TestDriver_ParityWithDefault(t *testing.T) {
	docs := []string{
		`{"b":1.50,"a":[true,false,null],"c":{"nested":"x\u00e9\n"}}`,
		`[1e400,-0,12345678901234567890,0.1]`,
		`"<html> & \"quotes\""`,
		`{"dup":1,"dup":2}`,
		`  42  `,
	}
	for _, doc := range docs {
		want, err := value.Parse([]byte(doc))
		if err != nil {
			t.Fatalf("default driver %s: %v", doc, err)
		}
		got, err := value.Parse([]byte(doc), value.ParseOptions{Driver: gojson.Driver()})
		if err != nil {
			t.Fatalf("%s driver %s: %v", gojson.Driver().Name(), doc, err)
		}
		if string(got.Dump()) != string(want.Dump()) {
			t.Fatalf("drivers disagree on %s:\n%s\n%s", doc, got.Dump(), want.Dump())
		}
	}
}

func TestDriver_RejectsMalformed(t *testing.T) {
	for _, doc := range []string{`{"a":`, `[1,]`, `{"a" 1}`, `1 2`} {
		_, err := value.Parse([]byte(doc), value.ParseOptions{Driver: gojson.Driver()})
		var se *value.SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("%s: expected *value.SyntaxError, got %v", doc, err)
		}
	}
}
