// ABOUTME: JSON Schema generation for tool arguments
// ABOUTME: Reflects argument structs with invopop/jsonschema into inline, self-contained schemas

package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

var reflector = &jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
	Anonymous:      true,
}

// schemaFor reflects the input schema for argument type A. Types are
// package-internal, so a failure here is a programming error.
func schemaFor[A any]() json.RawMessage {
	var zero A
	s := reflector.Reflect(&zero)
	s.Version = ""
	s.ID = ""
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("tools: reflecting schema for %T: %v", zero, err))
	}
	return data
}
