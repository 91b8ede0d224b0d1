package main

import (
	"testing"

	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/value"
)

func TestDefaultsPatch_HonorsParseOptions(t *testing.T) {
	h, err := jsonvalidator.New([]byte(`{"properties":{"a":{"default":1},"b":{}}}`))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	doc, vs, err := defaultsPatch(h, []byte(`{"b":1,"b":2}`), value.ParseOptions{})
	if err != nil || len(vs) > 0 {
		t.Fatalf("lenient parse failed: %v %v", vs, err)
	}
	if got := string(doc); got != `[{"op":"add","path":"/a","value":1}]` {
		t.Fatalf("got %s", got)
	}

	strict := value.ParseOptions{OnDuplicateKey: value.DuplicateError}
	if _, _, err := defaultsPatch(h, []byte(`{"b":1,"b":2}`), strict); err == nil {
		t.Fatalf("duplicate keys must be rejected in strict mode")
	}
}

func TestDefaultsPatch_ReportsViolations(t *testing.T) {
	h, err := jsonvalidator.New([]byte(`{"required":["a"]}`))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	doc, vs, err := defaultsPatch(h, []byte(`{}`), value.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil || len(vs) != 1 || vs[0].Code != "required" {
		t.Fatalf("got %s %v", doc, vs)
	}
}
