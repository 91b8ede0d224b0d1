package validator_test

import (
	"strings"
	"testing"

	"github.com/reoring/jsonvalidator/i18n"
	"github.com/reoring/jsonvalidator/schema"
	"github.com/reoring/jsonvalidator/validator"
	"github.com/reoring/jsonvalidator/value"
)

func run(t *testing.T, schemaText, instance string, opts validator.Options) validator.Result {
	t.Helper()
	root, err := schema.Compile(value.MustParse(schemaText))
	if err != nil {
		t.Fatalf("compile %s: %v", schemaText, err)
	}
	return validator.Validate(root, value.MustParse(instance), opts)
}

// codes renders violations as "<pointer> <code>" lines.
func codes(res validator.Result) string {
	parts := make([]string, len(res.Violations))
	for i, v := range res.Violations {
		parts[i] = "'" + v.Pointer.String() + "' " + v.Code
	}
	return strings.Join(parts, "; ")
}

func TestValidate_Keywords(t *testing.T) {
	cases := []struct {
		name     string
		schema   string
		instance string
		want     string
	}{
		{"true schema", `true`, `{"a":1}`, ""},
		{"false schema", `false`, `1`, "'' false_schema"},
		{"type ok", `{"type":"string"}`, `"x"`, ""},
		{"type mismatch", `{"type":"string"}`, `1`, "'' invalid_type"},
		{"integer accepts 1.0", `{"type":"integer"}`, `1.0`, ""},
		{"integer rejects 1.5", `{"type":"integer"}`, `1.5`, "'' invalid_type"},
		{"number accepts integer", `{"type":"number"}`, `3`, ""},
		{"type list", `{"type":["null","boolean"]}`, `false`, ""},
		{"enum numeric equality", `{"enum":[1,"a"]}`, `1e0`, ""},
		{"enum miss", `{"enum":[1,"a"]}`, `2`, "'' invalid_enum"},
		{"const object order", `{"const":{"a":1,"b":2}}`, `{"b":2,"a":1}`, ""},
		{"const miss", `{"const":null}`, `0`, "'' const"},
		{"maximum", `{"maximum":3}`, `3.5`, "'' maximum"},
		{"maximum inclusive", `{"maximum":3}`, `3`, ""},
		{"exclusive maximum", `{"exclusiveMaximum":3}`, `3`, "'' exclusive_maximum"},
		{"minimum", `{"minimum":-1}`, `-2`, "'' minimum"},
		{"exclusive minimum", `{"exclusiveMinimum":0}`, `0`, "'' exclusive_minimum"},
		{"maximum beyond float64", `{"maximum":1e400}`, `1e401`, "'' maximum"},
		{"maximum beyond float64 ok", `{"maximum":1e401}`, `1e400`, ""},
		{"minimum below float64", `{"minimum":-1e400}`, `-1e401`, "'' minimum"},
		{"const beyond float64", `{"const":1e400}`, `1e500`, "'' const"},
		{"const beyond float64 equal", `{"const":1e400}`, `10e399`, ""},
		{"enum underflow", `{"enum":[1e-400]}`, `2e-400`, "'' invalid_enum"},
		{"uniqueItems beyond float64", `{"uniqueItems":true}`, `[1e400,1e401]`, ""},
		{"big integers", `{"maximum":12345678901234567889}`, `12345678901234567890`, "'' maximum"},
		{"multipleOf decimal", `{"multipleOf":0.1}`, `0.3`, ""},
		{"multipleOf miss", `{"multipleOf":2}`, `7`, "'' multiple_of"},
		{"bounds ignore other types", `{"minimum":5,"minLength":3}`, `true`, ""},
		{"maxLength counts code points", `{"maxLength":2}`, `"éé"`, ""},
		{"too long", `{"maxLength":2}`, `"abc"`, "'' too_long"},
		{"too short", `{"minLength":2}`, `"é"`, "'' too_short"},
		{"pattern is a search", `{"pattern":"b+"}`, `"abbc"`, ""},
		{"pattern miss", `{"pattern":"^a"}`, `"ba"`, "'' pattern"},
		{"items", `{"items":{"type":"string"}}`, `["x",1]`, "'/1' invalid_type"},
		{"positional items", `{"items":[{"type":"string"},{"type":"integer"}]}`, `["x","y",true]`, "'/1' invalid_type"},
		{"additionalItems false", `{"items":[{}],"additionalItems":false}`, `[1,2]`, "'' additional_items"},
		{"additionalItems schema", `{"items":[{}],"additionalItems":{"type":"string"}}`, `[1,2]`, "'/1' invalid_type"},
		{"additionalItems ignored for single items", `{"items":{},"additionalItems":false}`, `[1,2]`, ""},
		{"maxItems", `{"maxItems":1}`, `[1,2]`, "'' too_many_items"},
		{"minItems", `{"minItems":1}`, `[]`, "'' too_few_items"},
		{"uniqueItems", `{"uniqueItems":true}`, `[1,{"a":[1]},{"a":[1.0]}]`, "'' unique_items"},
		{"uniqueItems distinct", `{"uniqueItems":true}`, `[1,"1",true]`, ""},
		{"contains", `{"contains":{"type":"string"}}`, `[1,2]`, "'' contains"},
		{"contains empty", `{"contains":{}}`, `[]`, "'' contains"},
		{"contains hit", `{"contains":{"type":"string"}}`, `[1,"x"]`, ""},
		{"maxProperties", `{"maxProperties":1}`, `{"a":1,"b":2}`, "'' too_many_properties"},
		{"minProperties", `{"minProperties":1}`, `{}`, "'' too_few_properties"},
		{"required", `{"required":["x","y"]}`, `{"y":1}`, "'' required"},
		{"properties", `{"properties":{"a":{"type":"string"}}}`, `{"a":1,"b":2}`, "'/a' invalid_type"},
		{"patternProperties", `{"patternProperties":{"^n_":{"type":"number"}}}`, `{"n_a":"x","s":"y"}`, "'/n_a' invalid_type"},
		{"additionalProperties false", `{"properties":{"a":{}},"additionalProperties":false}`, `{"a":1,"b":2}`, "'' additional_property"},
		{"additionalProperties respects patterns", `{"patternProperties":{"^x":{}},"additionalProperties":false}`, `{"xy":1}`, ""},
		{"additionalProperties schema", `{"additionalProperties":{"type":"string"}}`, `{"a":1}`, "'/a' invalid_type"},
		{"dependencies array", `{"dependencies":{"a":["b"]}}`, `{"a":1}`, "'' dependency"},
		{"dependencies absent trigger", `{"dependencies":{"a":["b"]}}`, `{"c":1}`, ""},
		{"dependencies schema", `{"dependencies":{"a":{"required":["c"]}}}`, `{"a":1}`, "'' required"},
		{"propertyNames", `{"propertyNames":{"maxLength":2}}`, `{"ab":1,"abc":2}`, "'' property_name"},
		{"propertyNames through recursive ref", `{"$ref":"#/definitions/s","definitions":{"s":{"type":["object","string"],"maxLength":2,"propertyNames":{"$ref":"#/definitions/s"}}}}`,
			`{"abc":1}`, "'' property_name"},
		{"propertyNames through recursive ref ok", `{"$ref":"#/definitions/s","definitions":{"s":{"type":["object","string"],"maxLength":2,"propertyNames":{"$ref":"#/definitions/s"}}}}`,
			`{"ab":1}`, ""},
		{"allOf", `{"allOf":[{"type":"integer"},{"minimum":2}]}`, `1`, "'' minimum"},
		{"anyOf", `{"anyOf":[{"type":"string"},{"type":"null"}]}`, `1`, "'' any_of"},
		{"anyOf hit", `{"anyOf":[{"type":"string"},{"type":"null"}]}`, `null`, ""},
		{"oneOf two pass", `{"oneOf":[{"type":"integer"},{"minimum":0}]}`, `1`, "'' one_of"},
		{"oneOf none pass", `{"oneOf":[{"type":"integer"},{"minimum":0}]}`, `-1.5`, "'' one_of"},
		{"oneOf exactly one", `{"oneOf":[{"type":"integer"},{"minimum":0}]}`, `-1`, ""},
		{"not", `{"not":{"type":"string"}}`, `"x"`, "'' not"},
		{"if then", `{"if":{"type":"integer"},"then":{"minimum":10},"else":{"type":"string"}}`, `5`, "'' minimum"},
		{"if else", `{"if":{"type":"integer"},"then":{"minimum":10},"else":{"type":"string"}}`, `true`, "'' invalid_type"},
		{"then without if", `{"then":false}`, `1`, ""},
		{"nested pointer", `{"properties":{"a~b/c":{"items":{"type":"string"}}}}`, `{"a~b/c":["x",1]}`, "'/a~0b~1c/1' invalid_type"},
		{"format is not asserted", `{"format":"email"}`, `"not an email"`, ""},
		{"unknown keyword ignored", `{"x-unknown":{"type":"string"}}`, `1`, ""},
		{"ref siblings ignored", `{"definitions":{"s":{"type":"string"}},"properties":{"a":{"$ref":"#/definitions/s","maxLength":1}}}`, `{"a":"long"}`, ""},
		{"self ref", `{"$ref":"#"}`, `[1,{"a":null}]`, ""},
		{"recursive tree", `{"type":"object","properties":{"value":{"type":"integer"},"children":{"type":"array","items":{"$ref":"#"}}}}`,
			`{"value":1,"children":[{"value":2,"children":[{"value":"x"}]}]}`, "'/children/0/children/0/value' invalid_type"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := run(t, c.schema, c.instance, validator.Options{})
			if got := codes(res); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
			if res.Valid() != (c.want == "") {
				t.Fatalf("Valid() disagrees with violations")
			}
		})
	}
}

func TestValidate_AccumulatesInDocumentOrder(t *testing.T) {
	res := run(t, `{"required":["z"],"properties":{"a":{"type":"string"},"b":{"minimum":5}}}`, `{"a":1,"b":2}`, validator.Options{})
	want := "'' required; '/a' invalid_type; '/b' minimum"
	if got := codes(res); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if err := res.Err(); err == nil || !strings.Contains(err.Error(), "'/a': ") {
		t.Fatalf("unexpected joined error: %v", err)
	}
}

func TestValidate_StopOnFirstViolation(t *testing.T) {
	res := run(t, `{"properties":{"a":{"type":"string"},"b":{"type":"string"}}}`, `{"a":1,"b":2}`,
		validator.Options{StopOnFirstViolation: true})
	if got := codes(res); got != "'/a' invalid_type" {
		t.Fatalf("got %q", got)
	}
}

func TestValidate_Messages(t *testing.T) {
	res := run(t, `{"type":"object","required":["x"]}`, `{}`, validator.Options{})
	if len(res.Violations) != 1 {
		t.Fatalf("expected one violation, got %v", res.Violations)
	}
	v := res.Violations[0]
	if v.Pointer.String() != "" || !strings.Contains(v.Message, "'x'") {
		t.Fatalf("unexpected violation %+v", v)
	}
	if v.Params["property"] != "x" {
		t.Fatalf("unexpected params %v", v.Params)
	}

	res = run(t, `{"oneOf":[{},{}]}`, `1`, validator.Options{})
	if got := res.Violations[0].Message; !strings.HasPrefix(got, "2 subschemas") {
		t.Fatalf("count missing from message: %q", got)
	}

	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")
	res = run(t, `{"required":["x"]}`, `{}`, validator.Options{})
	if got := res.Violations[0].Message; !strings.Contains(got, "必須プロパティ 'x'") {
		t.Fatalf("expected a Japanese message, got %q", got)
	}
}

func patchText(t *testing.T, res validator.Result) string {
	t.Helper()
	raw, err := res.Patch.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal patch: %v", err)
	}
	return string(raw)
}

func TestValidate_PropertyDefaults(t *testing.T) {
	res := run(t, `{"properties":{"a":{"default":1},"b":{"type":"string"},"c":{"default":{"k":[]}}}}`, `{"b":"x"}`, validator.Options{})
	if !res.Valid() {
		t.Fatalf("unexpected violations %v", res.Violations)
	}
	want := `[{"op":"add","path":"/a","value":1},{"op":"add","path":"/c","value":{"k":[]}}]`
	if got := patchText(t, res); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestValidate_DefaultsAreCompletedAndIdempotent(t *testing.T) {
	schemaText := `{
		"properties": {
			"o": {
				"type": "object",
				"default": {},
				"properties": {"x": {"default": 1}, "y": {"$ref": "#/definitions/y"}}
			}
		},
		"definitions": {"y": {"default": "why"}}
	}`
	root, err := schema.Compile(value.MustParse(schemaText))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	inst := value.MustParse(`{}`)
	res := validator.Validate(root, inst, validator.Options{})
	patched, err := res.Patch.Apply(inst)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := string(patched.Dump()); got != `{"o":{"x":1,"y":"why"}}` {
		t.Fatalf("unexpected patched instance %s", got)
	}
	again := validator.Validate(root, patched, validator.Options{})
	if !again.Valid() || !again.Patch.Empty() {
		t.Fatalf("second run must be a no-op, got %v %v", again.Violations, again.Patch)
	}
}

func TestValidate_RecursiveDefaultTerminates(t *testing.T) {
	res := run(t, `{"properties":{"next":{"$ref":"#","default":{}}}}`, `{}`, validator.Options{})
	if !res.Valid() || len(res.Patch) != 1 {
		t.Fatalf("unexpected result %v %v", res.Violations, res.Patch)
	}
}

func TestValidate_DefaultDoesNotSatisfyRequired(t *testing.T) {
	res := run(t, `{"required":["a"],"properties":{"a":{"default":1}}}`, `{}`, validator.Options{})
	if got := codes(res); got != "'' required" {
		t.Fatalf("got %q", got)
	}
}

func TestValidate_PositionalDefaults(t *testing.T) {
	schemaText := `{"items":[{"default":1},{"default":2},{},{"default":4}]}`
	if got := patchText(t, run(t, schemaText, `[]`, validator.Options{})); got != `[{"op":"add","path":"/0","value":1},{"op":"add","path":"/1","value":2}]` {
		t.Fatalf("empty array: %s", got)
	}
	if got := patchText(t, run(t, schemaText, `[9]`, validator.Options{})); got != `[{"op":"add","path":"/1","value":2}]` {
		t.Fatalf("one element: %s", got)
	}
	if got := patchText(t, run(t, schemaText, `[9,8,7]`, validator.Options{})); got != `[{"op":"add","path":"/3","value":4}]` {
		t.Fatalf("three elements: %s", got)
	}
}

func TestValidate_SpeculativeEdits(t *testing.T) {
	cases := map[string]struct {
		schema string
		want   string
	}{
		"anyOf keeps the first passing branch": {
			`{"anyOf":[{"type":"string"},{"properties":{"a":{"default":1}}},{"properties":{"b":{"default":2}}}]}`,
			`[{"op":"add","path":"/a","value":1}]`,
		},
		"oneOf keeps the only passing branch": {
			`{"oneOf":[{"type":"string"},{"properties":{"a":{"default":1}}}]}`,
			`[{"op":"add","path":"/a","value":1}]`,
		},
		"not discards": {
			`{"not":{"properties":{"a":{"default":1}},"required":["zz"]}}`,
			`[]`,
		},
		"if discards its own edits": {
			`{"if":{"properties":{"a":{"default":1}}},"then":{"properties":{"b":{"default":2}}}}`,
			`[{"op":"add","path":"/b","value":2}]`,
		},
		"allOf keeps every branch": {
			`{"allOf":[{"properties":{"a":{"default":1}}},{"properties":{"b":{"default":2}}}]}`,
			`[{"op":"add","path":"/a","value":1},{"op":"add","path":"/b","value":2}]`,
		},
	}
	for name, c := range cases {
		res := run(t, c.schema, `{}`, validator.Options{})
		if !res.Valid() {
			t.Fatalf("%s: unexpected violations %v", name, res.Violations)
		}
		if got := patchText(t, res); got != c.want {
			t.Fatalf("%s: got %s, want %s", name, got, c.want)
		}
	}

	res := run(t, `{"oneOf":[{"properties":{"a":{"default":1}}},{"properties":{"b":{"default":2}}}]}`, `{}`, validator.Options{})
	if res.Valid() || !res.Patch.Empty() {
		t.Fatalf("a failed oneOf must drop its edits, got %v %v", res.Violations, res.Patch)
	}
}

func TestValidate_ConcurrentUse(t *testing.T) {
	root, err := schema.Compile(value.MustParse(`{"properties":{"a":{"default":1},"n":{"type":"integer"}}}`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	done := make(chan validator.Result)
	for i := 0; i < 8; i++ {
		go func() { done <- validator.Validate(root, value.MustParse(`{"n":"x"}`), validator.Options{}) }()
	}
	for i := 0; i < 8; i++ {
		res := <-done
		if codes(res) != "'/n' invalid_type" || len(res.Patch) != 1 {
			t.Fatalf("unexpected result %v %v", res.Violations, res.Patch)
		}
	}
}
