package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/natthapon/docflow/internal/docmodel"
)

func reqWithPrompt(prompt string, enforce bool) docmodel.Request {
	return docmodel.Request{
		DocType: docmodel.DocTypeInvoice,
		Schema:  map[string]interface{}{"type": "object"},
		Options: docmodel.Options{CustomPrompt: prompt, EnforceJSONSchema: enforce},
	}
}

func TestBuildInstructions_SubstitutesSchemaPlaceholder(t *testing.T) {
	req := reqWithPrompt("Extract per this shape: {{schema}}", false)
	out := buildInstructions(req)
	assert.NotContains(t, out, "{{schema}}")
	assert.Contains(t, out, `"type": "object"`)
}

func TestBuildInstructions_AppendsSchemaWhenEnforcementOffAndNoPlaceholder(t *testing.T) {
	req := reqWithPrompt("Extract the invoice rows.", false)
	out := buildInstructions(req)
	assert.True(t, strings.HasPrefix(out, "Extract the invoice rows."))
	assert.Contains(t, out, "Return JSON adhering to this schema:")
	assert.Contains(t, out, `"type": "object"`)
}

func TestBuildInstructions_LeavesPromptUntouchedWhenEnforcementOnAndNoPlaceholder(t *testing.T) {
	req := reqWithPrompt("Extract the invoice rows.", true)
	out := buildInstructions(req)
	assert.Equal(t, "Extract the invoice rows.", out)
}

func TestBuildInstructions_DefaultPromptWhenNoCustomPromptGiven(t *testing.T) {
	req := docmodel.Request{DocType: docmodel.DocTypeInvoice, Schema: map[string]interface{}{"type": "object"}}
	out := buildInstructions(req)
	assert.Contains(t, out, "Extract structured data from this invoice document")
	assert.Contains(t, out, `"type": "object"`)
}
