package jsonvalidator_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/validator"
	"github.com/reoring/jsonvalidator/value"
)

func TestCheckSchema_AcceptsValidSchemas(t *testing.T) {
	for _, s := range []string{
		`{}`, `true`, `false`,
		`{"type":["string","null"],"minLength":1}`,
		`{"$schema":"http://json-schema.org/draft-07/schema#","definitions":{"a":{"$ref":"#"}},"items":[{"const":1}]}`,
		`{"if":{"type":"integer"},"then":{"multipleOf":2},"dependencies":{"a":["b"],"c":{}}}`,
	} {
		if err := jsonvalidator.CheckSchema([]byte(s)); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
}

func TestCheckSchema_InvalidTypePointsAtType(t *testing.T) {
	err := jsonvalidator.CheckSchema([]byte(`{"type":"not-a-type"}`))
	if !errors.Is(err, jsonvalidator.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	vs, ok := jsonvalidator.AsViolations(err)
	if !ok || len(vs) == 0 {
		t.Fatalf("expected violations, got %v", err)
	}
	for _, v := range vs {
		if v.Pointer.String() != "/type" {
			t.Fatalf("expected every violation at /type, got %v", vs)
		}
	}
}

func TestCheckSchema_ReportsAll(t *testing.T) {
	err := jsonvalidator.CheckSchema([]byte(`{"minLength":-1,"required":"x","unknown":1}`))
	vs, ok := jsonvalidator.AsViolations(err)
	if !ok || len(vs) < 3 {
		t.Fatalf("expected at least three violations, got %v", err)
	}
}

func TestCheckSchema_MalformedJSON(t *testing.T) {
	err := jsonvalidator.CheckSchema([]byte(`{"type":`))
	if !errors.Is(err, jsonvalidator.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
	var se *value.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("syntax error not reachable: %v", err)
	}
}

func TestValidateOnce_UnchangedInstanceIsReturnedAsIs(t *testing.T) {
	in := []byte(`{ "name" : "x",  "n" : 1.50 }`)
	out, err := jsonvalidator.ValidateOnce([]byte(`{"properties":{"name":{"type":"string"}}}`), in)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if &out[0] != &in[0] || len(out) != len(in) {
		t.Fatalf("expected the input bytes back, got %s", out)
	}
}

func TestValidateOnce_Defaults(t *testing.T) {
	out, err := jsonvalidator.ValidateOnce([]byte(`{"properties":{"x":{"default":7}}}`), []byte(`{}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(out) != `{"x":7}` {
		t.Fatalf("got %s", out)
	}
}

func TestValidateOnce_Idempotent(t *testing.T) {
	s := []byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "default": "anon"},
			"opts": {"type": "object", "default": {}, "properties": {"verbose": {"default": false}}},
			"list": {"items": [{"default": 1}, {"default": 2}]}
		}
	}`)
	first, err := jsonvalidator.ValidateOnce(s, []byte(`{"list":[]}`))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	want := `{"list":[1,2],"name":"anon","opts":{"verbose":false}}`
	if string(first) != want {
		t.Fatalf("got %s\nwant %s", first, want)
	}
	second, err := jsonvalidator.ValidateOnce(s, first)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if &second[0] != &first[0] {
		t.Fatalf("second run must not rewrite the instance, got %s", second)
	}
}

func TestValidateOnce_RequiredViolation(t *testing.T) {
	_, err := jsonvalidator.ValidateOnce([]byte(`{"required":["x"]}`), []byte(`{}`))
	if !errors.Is(err, jsonvalidator.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	vs, _ := jsonvalidator.AsViolations(err)
	if len(vs) != 1 || vs[0].Pointer.String() != "" || !strings.Contains(vs[0].Message, "x") {
		t.Fatalf("unexpected violations %v", vs)
	}
	if !strings.Contains(err.Error(), "'': required property 'x'") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestValidateOnce_ErrorKinds(t *testing.T) {
	cases := map[string]struct {
		schema, instance string
		want             error
	}{
		"malformed schema":   {`{`, `{}`, jsonvalidator.ErrInvalidSchema},
		"malformed instance": {`{}`, `{"a":}`, jsonvalidator.ErrInvalidJSON},
		"bad keyword":        {`{"minLength":"x"}`, `""`, jsonvalidator.ErrSchema},
		"external ref":       {`{"$ref":"other.json"}`, `1`, jsonvalidator.ErrRefResolution},
		"violation":          {`{"type":"string"}`, `1`, jsonvalidator.ErrValidation},
	}
	for name, c := range cases {
		_, err := jsonvalidator.ValidateOnce([]byte(c.schema), []byte(c.instance))
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: expected %v, got %v", name, c.want, err)
		}
		var e *jsonvalidator.Error
		if !errors.As(err, &e) {
			t.Fatalf("%s: expected *jsonvalidator.Error", name)
		}
	}
}

func TestValidateOnce_StopOnFirstViolation(t *testing.T) {
	s := []byte(`{"properties":{"a":{"type":"string"},"b":{"type":"string"}}}`)
	in := []byte(`{"a":1,"b":2}`)
	_, err := jsonvalidator.ValidateOnce(s, in)
	if vs, _ := jsonvalidator.AsViolations(err); len(vs) != 2 {
		t.Fatalf("expected two violations, got %v", vs)
	}
	_, err = jsonvalidator.ValidateOnce(s, in, jsonvalidator.WithStopOnFirstViolation())
	if vs, _ := jsonvalidator.AsViolations(err); len(vs) != 1 {
		t.Fatalf("expected one violation, got %v", vs)
	}
}

func TestValidateOnce_DuplicateKeys(t *testing.T) {
	s := []byte(`{"properties":{"a":{"type":"string"}}}`)
	if _, err := jsonvalidator.ValidateOnce(s, []byte(`{"a":1,"a":"x"}`)); err != nil {
		t.Fatalf("last value wins by default: %v", err)
	}
	_, err := jsonvalidator.ValidateOnce(s, []byte(`{"a":1,"a":"x"}`),
		jsonvalidator.WithParseOptions(value.ParseOptions{OnDuplicateKey: value.DuplicateError}))
	if !errors.Is(err, jsonvalidator.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestValidateOnce_OneOfTwoBranches(t *testing.T) {
	_, err := jsonvalidator.ValidateOnce([]byte(`{"oneOf":[{"type":"number"},{"minimum":0}]}`), []byte(`3`))
	vs, ok := jsonvalidator.AsViolations(err)
	if !ok || len(vs) != 1 || vs[0].Code != validator.CodeOneOf {
		t.Fatalf("expected a oneOf violation, got %v", err)
	}
}

func TestNew_RecursiveItems(t *testing.T) {
	h, err := jsonvalidator.New([]byte(`{"type":["array","integer"],"items":{"$ref":"#"}}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer h.Close()

	deep := strings.Repeat("[", 200) + "1" + strings.Repeat("]", 200)
	if _, err := h.Validate([]byte(deep)); err != nil {
		t.Fatalf("deep valid: %v", err)
	}
	bad := strings.Repeat("[", 50) + `"x"` + strings.Repeat("]", 50)
	_, err = h.Validate([]byte(bad))
	vs, ok := jsonvalidator.AsViolations(err)
	if !ok || len(vs) != 1 || len(vs[0].Pointer) != 50 {
		t.Fatalf("expected one violation 50 levels deep, got %v", err)
	}
}

func TestNew_ExternalRefFailureNamesPath(t *testing.T) {
	_, err := jsonvalidator.New([]byte(`{"$ref":"item.json"}`), jsonvalidator.WithBaseDir("/nonexistent/dir"))
	if !errors.Is(err, jsonvalidator.ErrRefResolution) {
		t.Fatalf("expected ErrRefResolution, got %v", err)
	}
	want := filepath.Join("/nonexistent/dir", "item.json")
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("message %q does not name %s", err.Error(), want)
	}
}

func TestNew_ExternalRefs(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"address.json": `{"type":"object","properties":{"city":{"type":"string","default":"Tokyo"}},"required":["zip"]}`,
		"tag.yaml":     "type: string\nmaxLength: 3\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	h, err := jsonvalidator.New([]byte(`{
		"properties": {
			"home": {"$ref": "address.json"},
			"work": {"$ref": "address.json#"},
			"tags": {"items": {"$ref": "tag.yaml"}}
		}
	}`), jsonvalidator.WithBaseDir(dir))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer h.Close()

	out, err := h.Validate([]byte(`{"home":{"zip":"1"},"tags":["a"]}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(out) != `{"home":{"zip":"1","city":"Tokyo"},"tags":["a"]}` {
		t.Fatalf("got %s", out)
	}
	_, err = h.Validate([]byte(`{"work":{},"tags":["long"]}`))
	vs, _ := jsonvalidator.AsViolations(err)
	if len(vs) != 2 || vs[0].Pointer.String() != "/work" || vs[1].Pointer.String() != "/tags/0" {
		t.Fatalf("unexpected violations %v", vs)
	}
}

func TestNew_MalformedSchema(t *testing.T) {
	if _, err := jsonvalidator.New([]byte(`{"a"`)); !errors.Is(err, jsonvalidator.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
	if _, err := jsonvalidator.New([]byte(`{"properties":[]}`)); !errors.Is(err, jsonvalidator.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestHandle_ConcurrentValidate(t *testing.T) {
	h, err := jsonvalidator.New([]byte(`{"properties":{"n":{"type":"integer"},"d":{"default":true}}}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer h.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				out, err := h.Validate([]byte(`{"n":1}`))
				if err != nil || string(out) != `{"n":1,"d":true}` {
					errs <- errors.New("unexpected result " + string(out))
				}
				return
			}
			if _, err := h.Validate([]byte(`{"n":"x"}`)); !errors.Is(err, jsonvalidator.ErrValidation) {
				errs <- errors.New("expected a violation")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestHandle_Close(t *testing.T) {
	h, err := jsonvalidator.New([]byte(`{}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := h.Validate([]byte(`1`)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := h.Validate([]byte(`1`)); !errors.Is(err, jsonvalidator.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := h.ValidateValue(value.FromInt(1)); !errors.Is(err, jsonvalidator.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestHandle_ValidateValueExposesPatch(t *testing.T) {
	h, err := jsonvalidator.New([]byte(`{"properties":{"a":{"default":[1]}}}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer h.Close()
	res, err := h.ValidateValue(value.MustParse(`{}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	raw, _ := res.Patch.MarshalJSON()
	if string(raw) != `[{"op":"add","path":"/a","value":[1]}]` {
		t.Fatalf("got %s", raw)
	}
}
