package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate_Basic(t *testing.T) {
	got, err := RenderTemplate("Question: {{.Query}}", map[string]any{"Query": "why?"})
	require.NoError(t, err)
	assert.Equal(t, "Question: why?", got)
}

func TestRenderTemplate_FastPathWithoutMarkers(t *testing.T) {
	got, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
}

func TestRenderTemplate_Conditional(t *testing.T) {
	tmpl := "{{if .Prior}}prior: {{.Prior}}{{else}}fresh{{end}}"

	got, err := RenderTemplate(tmpl, map[string]any{"Prior": "facts"})
	require.NoError(t, err)
	assert.Equal(t, "prior: facts", got)

	got, err = RenderTemplate(tmpl, map[string]any{"Prior": ""})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestRenderTemplate_InvalidSyntax(t *testing.T) {
	_, err := RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
