package util

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
)

// SchemaFor reflects a JSON schema for T suitable for strict structured-output
// requests. Fields are required unless tagged otherwise and additional
// properties are disallowed, which is what the provider-side validators expect.
func SchemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	m, err := schemaToMap(schema)
	if err != nil {
		panic(fmt.Sprintf("schema reflection for %T: %v", v, err))
	}
	tightenObjectSchema(m)
	return m
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// tightenObjectSchema recursively marks every property required and forbids
// additional properties. Strict mode providers reject schemas that leave
// either unspecified.
func tightenObjectSchema(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				tightenObjectSchema(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		tightenObjectSchema(items)
	}
}
