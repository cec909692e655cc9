package docstore

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// DocumentSchema returns the JSON schema of the persisted document,
// with field descriptions taken from the struct tags. Useful for
// validating hand-edited store files with external tooling.
func DocumentSchema() ([]byte, error) {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	schema := r.Reflect(&Document{})
	return json.MarshalIndent(schema, "", "  ")
}
