// Package jsonvalidator validates JSON documents against draft-07 JSON
// Schemas and fills in schema defaults.
//
// The package exposes four operations:
//
//   - ValidateOnce compiles a schema and validates one instance with it.
//   - CheckSchema checks a schema document against the draft-07 meta-schema.
//   - New compiles a schema into a reusable Handle.
//   - Handle.Validate validates an instance with a compiled schema.
//
// A successful validation returns the instance text. When the schema
// declares defaults for absent properties or array positions the returned
// text has them inserted; otherwise it is the input, byte for byte.
//
// Design policy:
//   - Keep only public APIs in the root package; the JSON model lives in
//     value/, compilation in schema/, evaluation in validator/ and patching in
//     patch/.
//   - Every failure is a *Error with a Kind; no panic crosses the API.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	h, err := jsonvalidator.New(schemaText, jsonvalidator.WithBaseDir("schemas"))
//	if err != nil {
//		return err
//	}
//	defer h.Close()
//	out, err := h.Validate(body)
package jsonvalidator
