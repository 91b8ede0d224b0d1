package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("required", map[string]string{"property": "x"}); msg != "required property 'x' not found in object" {
		t.Fatalf("unexpected english message: %q", msg)
	}

	SetLanguage("ja")
	if msg := T("required", map[string]string{"property": "x"}); msg == "required property 'x' not found in object" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("expected code echo, got %q", msg)
	}
	SetLanguage("xx")
	if msg := T("not", nil); msg == "not" || msg == "" {
		t.Fatalf("unknown language should fall back to en, got %q", msg)
	}
	SetLanguage("en")
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	if msg := T("any_of", nil); msg != "X:any_of" {
		t.Fatalf("custom translator not used: %q", msg)
	}
	SetTranslator(nil)
	if msg := T("any_of", nil); msg == "X:any_of" {
		t.Fatalf("nil should restore the dictionary")
	}
}
