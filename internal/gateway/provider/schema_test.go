package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaJSONSchema(t *testing.T) {
	s := Object(
		Prop("status", Enum("state", "CRITICAL", "STABLE")),
		Prop("tags", ArrayOf(String(""), "labels")),
		OptionalProp("note", String("")),
	)
	doc := s.JSONSchema()
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []any{"status", "tags"}, doc["required"])
	props := doc["properties"].(map[string]any)
	status := props["status"].(map[string]any)
	assert.Equal(t, []any{"CRITICAL", "STABLE"}, status["enum"])
	tags := props["tags"].(map[string]any)
	assert.Equal(t, "labels", tags["description"])
	assert.Equal(t, map[string]any{"type": "string"}, tags["items"])
	assert.Equal(t, []string{"status", "tags", "note"}, s.Order)
}

func TestSchemaValidateEnum(t *testing.T) {
	s := Object(Prop("status", Enum("", "CRITICAL", "STABLE")))
	require.NoError(t, s.Validate(map[string]any{"status": "STABLE"}))
	assert.Error(t, s.Validate(map[string]any{"status": "FINE"}))
	assert.Error(t, s.Validate(map[string]any{}))
}

func TestGenAISchemaConversion(t *testing.T) {
	s := Object(
		Prop("score", Number("0-100")),
		Prop("items", ArrayOf(String(""), "")),
	)
	g := toGenAISchema(s)
	require.NotNil(t, g)
	assert.Equal(t, []string{"score", "items"}, g.PropertyOrdering)
	assert.Equal(t, "0-100", g.Properties["score"].Description)
	require.NotNil(t, g.Properties["items"].Items)
	assert.Equal(t, genaiType(TypeString), g.Properties["items"].Items.Type)
}
