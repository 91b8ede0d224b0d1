package jsonvalidator

import (
	"github.com/reoring/jsonvalidator/schema"
	"github.com/reoring/jsonvalidator/validator"
	"github.com/reoring/jsonvalidator/value"
)

// ValidateOnce compiles schemaText and validates instanceText with it. On
// success it returns the instance text with defaults applied, or instanceText
// itself when no default applied.
func ValidateOnce(schemaText, instanceText []byte, opts ...Option) (out []byte, err error) {
	defer recoverError(&err)
	cfg := newConfig(opts)
	doc, err := value.Parse(schemaText, cfg.parse)
	if err != nil {
		return nil, parseError(KindInvalidSchema, err)
	}
	inst, err := value.Parse(instanceText, cfg.parse)
	if err != nil {
		return nil, parseError(KindInvalidJSON, err)
	}
	h, err := compile(doc, cfg)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.validateParsed(instanceText, inst)
}

// CheckSchema validates schemaText against the draft-07 meta-schema and
// reports every violation.
func CheckSchema(schemaText []byte) (err error) {
	defer recoverError(&err)
	doc, err := value.Parse(schemaText)
	if err != nil {
		return parseError(KindInvalidJSON, err)
	}
	res := validator.Validate(schema.MetaSchema(), doc, validator.Options{})
	if !res.Valid() {
		return validationError(res.Violations)
	}
	return nil
}
