package schema

import (
	_ "embed"
	"sync"

	"github.com/reoring/jsonvalidator/value"
)

// MetaSchemaURI identifies the draft-07 meta-schema. References to it are
// served from the embedded copy.
const MetaSchemaURI = "http://json-schema.org/draft-07/schema"

//go:embed draft-07.json
var metaSchemaText []byte

var (
	metaDocOnce sync.Once
	metaDoc     value.Value

	metaRootOnce sync.Once
	metaRoot     *Root
)

func metaDocument() value.Value {
	metaDocOnce.Do(func() {
		metaDoc = value.MustParse(string(metaSchemaText))
	})
	return metaDoc
}

// MetaSchemaText returns the embedded draft-07 meta-schema.
func MetaSchemaText() []byte {
	return append([]byte(nil), metaSchemaText...)
}

// MetaSchema returns the compiled draft-07 meta-schema. It is compiled once
// and shared; Roots are immutable.
func MetaSchema() *Root {
	metaRootOnce.Do(func() {
		r, err := Compile(metaDocument(), WithBaseURI(MetaSchemaURI))
		if err != nil {
			panic("schema: embedded meta-schema does not compile: " + err.Error())
		}
		metaRoot = r
	})
	return metaRoot
}
