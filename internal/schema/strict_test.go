package schema

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"invoiceNumber": map[string]interface{}{"type": "string"},
			"amount":        map[string]interface{}{"type": "number"},
			"lineItems": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"sku": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}
}

func requiredKeys(t *testing.T, node map[string]interface{}) []string {
	t.Helper()
	raw, ok := node["required"].([]string)
	require.True(t, ok)
	sort.Strings(raw)
	return raw
}

func TestStrict_SetsAdditionalPropertiesFalseAndRequired(t *testing.T) {
	s := sampleSchema()
	out := Strict(s)

	assert.Equal(t, false, out["additionalProperties"])
	assert.ElementsMatch(t, []string{"invoiceNumber", "amount", "lineItems"}, requiredKeys(t, out))

	items := out["properties"].(map[string]interface{})["lineItems"].(map[string]interface{})["items"].(map[string]interface{})
	assert.Equal(t, false, items["additionalProperties"])
	assert.ElementsMatch(t, []string{"sku"}, requiredKeys(t, items))
}

func TestStrict_DoesNotMutateInput(t *testing.T) {
	s := sampleSchema()
	_ = Strict(s)

	_, hasAdditional := s["additionalProperties"]
	assert.False(t, hasAdditional)
	_, hasRequired := s["required"]
	assert.False(t, hasRequired)
}

func TestStrict_IsIdempotentUpToRequiredOrder(t *testing.T) {
	s := sampleSchema()
	once := Strict(s)
	twice := Strict(once)

	assert.Equal(t, once["additionalProperties"], twice["additionalProperties"])
	assert.ElementsMatch(t, requiredKeys(t, once), requiredKeys(t, twice))
}
