//go:build !gojson

package gojson

import (
	"github.com/reoring/jsonvalidator/internal/token"
	jsonsrc "github.com/reoring/jsonvalidator/source/json"
	"github.com/reoring/jsonvalidator/value"
)

// Driver returns a stub driver when the gojson tag is not enabled. It
// delegates to the encoding/json source.
func Driver() value.Driver { return stub{} }

type stub struct{}

func (stub) NewBytes(b []byte) token.Source { return jsonsrc.NewBytes(b) }
func (stub) Name() string                   { return "encoding/json (gojson stub)" }
