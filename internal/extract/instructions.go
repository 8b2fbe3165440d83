package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/natthapon/docflow/internal/docmodel"
)

// buildInstructions produces the extraction prompt for the image and
// native-PDF branches. A custom prompt may reference "{{schema}}",
// substituted with the pretty-printed JSON Schema (§4.4).
func buildInstructions(req docmodel.Request) string {
	schemaJSON := marshalSchema(req.Schema)

	if req.Options.CustomPrompt != "" {
		if strings.Contains(req.Options.CustomPrompt, "{{schema}}") {
			return strings.ReplaceAll(req.Options.CustomPrompt, "{{schema}}", schemaJSON)
		}
		if !req.Options.EnforceJSONSchema {
			return req.Options.CustomPrompt + "\n\nReturn JSON adhering to this schema:\n\n" + schemaJSON
		}
		return req.Options.CustomPrompt
	}

	return fmt.Sprintf(
		"Extract structured data from this %s document. Return JSON matching exactly this schema:\n\n%s",
		req.DocType, schemaJSON,
	)
}

// ocrEnhancedInstructions builds the per-page instructions for §4.4.2: the
// model is told to trust OCR text for character-exact fields and the image
// for layout.
func ocrEnhancedInstructions(req docmodel.Request, pageIndex int, ocrText string) string {
	return fmt.Sprintf(
		"Page %d OCR Text:\n%s\n\nNow extract structured data from this page. "+
			"Trust the OCR text above for character-exact fields (IBANs, invoice numbers, "+
			"account numbers); trust the image for layout and row grouping. "+
			"Return JSON matching exactly this schema:\n\n%s",
		pageIndex, ocrText, marshalSchema(req.Schema),
	)
}

// ocrOnlyInstructions builds the text-only payload for §4.4.3.
func ocrOnlyInstructions(req docmodel.Request, ocrText string) string {
	return fmt.Sprintf(
		"%s\n\nExtract the structured data from the text above. Return JSON matching "+
			"exactly this schema:\n\n%s",
		ocrText, marshalSchema(req.Schema),
	)
}

func marshalSchema(schema map[string]interface{}) string {
	if schema == nil {
		return "{}"
	}
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
