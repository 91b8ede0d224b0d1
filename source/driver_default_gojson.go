// Package source selects the process-wide JSON driver. Importing it for side
// effects installs the go-json driver when built with -tags gojson.
package source

import (
	drvgojson "github.com/reoring/jsonvalidator/source/gojson"
	"github.com/reoring/jsonvalidator/value"
)

// init lives in a separate package to avoid an import cycle with value.
func init() { value.SetDriver(drvgojson.Driver()) }
