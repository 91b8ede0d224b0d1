// Package i18n holds the message catalog for violation codes.
package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for violation codes.
// data fills the {name} placeholders of the message (for example, "limit"
// or "property").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"false_schema":        "instance is rejected by a false schema",
		"invalid_type":        "unexpected instance type {got}, expected {expected}",
		"invalid_enum":        "instance not found in required enum",
		"const":               "instance not const",
		"multiple_of":         "instance is not a multiple of {multipleOf}",
		"maximum":             "instance exceeds maximum of {limit}",
		"exclusive_maximum":   "instance exceeds or equals exclusive maximum of {limit}",
		"minimum":             "instance is below minimum of {limit}",
		"exclusive_minimum":   "instance is below or equals exclusive minimum of {limit}",
		"too_long":            "instance is too long as per maxLength: {limit}",
		"too_short":           "instance is too short as per minLength: {limit}",
		"pattern":             "instance does not match regex pattern: {pattern}",
		"additional_items":    "additional item at index {index} is not allowed",
		"too_many_items":      "array has too many items as per maxItems: {limit}",
		"too_few_items":       "array has too few items as per minItems: {limit}",
		"unique_items":        "items at index {first} and {second} are equal but have to be unique",
		"contains":            "array does not contain required element as per 'contains'",
		"too_many_properties": "too many properties as per maxProperties: {limit}",
		"too_few_properties":  "too few properties as per minProperties: {limit}",
		"required":            "required property '{property}' not found in object",
		"additional_property": "additional property '{property}' is not allowed",
		"property_name":       "property name '{property}' is invalid as per 'propertyNames'",
		"dependency":          "required property '{property}' not found in object as a dependency of '{dependent}'",
		"any_of":              "no subschema has succeeded, but one of them is required to validate",
		"one_of":              "{count} subschemas have succeeded, but exactly one of them is required to validate",
		"not":                 "the subschema has succeeded, but it is required to not validate",
	},
	"ja": {
		"false_schema":        "false スキーマにより拒否されました",
		"invalid_type":        "型が不正です ({got}、期待値: {expected})",
		"invalid_enum":        "enum に含まれない値です",
		"const":               "const と一致しません",
		"multiple_of":         "{multipleOf} の倍数ではありません",
		"maximum":             "最大値 {limit} を超えています",
		"exclusive_maximum":   "排他的最大値 {limit} 以上です",
		"minimum":             "最小値 {limit} を下回っています",
		"exclusive_minimum":   "排他的最小値 {limit} 以下です",
		"too_long":            "長すぎます (maxLength: {limit})",
		"too_short":           "短すぎます (minLength: {limit})",
		"pattern":             "正規表現 {pattern} に一致しません",
		"additional_items":    "インデックス {index} の追加要素は許可されていません",
		"too_many_items":      "要素が多すぎます (maxItems: {limit})",
		"too_few_items":       "要素が少なすぎます (minItems: {limit})",
		"unique_items":        "インデックス {first} と {second} の要素が重複しています",
		"contains":            "contains を満たす要素がありません",
		"too_many_properties": "プロパティが多すぎます (maxProperties: {limit})",
		"too_few_properties":  "プロパティが少なすぎます (minProperties: {limit})",
		"required":            "必須プロパティ '{property}' が不足しています",
		"additional_property": "未知のプロパティ '{property}' は許可されていません",
		"property_name":       "プロパティ名 '{property}' が propertyNames に適合しません",
		"dependency":          "'{dependent}' が依存する必須プロパティ '{property}' が不足しています",
		"any_of":              "いずれのサブスキーマにも適合しません",
		"one_of":              "{count} 個のサブスキーマに適合しました (ちょうど 1 個である必要があります)",
		"not":                 "not のサブスキーマに適合してはいけません",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		if msg, ok = catalogs["en"][code]; !ok {
			return code
		}
	}
	if len(data) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
