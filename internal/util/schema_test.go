package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Relevant   bool    `json:"relevant"`
	Confidence float64 `json:"confidence"`
	Nested     struct {
		Note string `json:"note"`
	} `json:"nested"`
}

func TestSchemaFor_TightensObjects(t *testing.T) {
	schema := SchemaFor[verdict]()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"confidence", "nested", "relevant"}, required)

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	nested, ok := props["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, nested["additionalProperties"])
}
