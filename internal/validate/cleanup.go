package validate

import "github.com/natthapon/docflow/internal/docmodel"

// Cleanup strips every internal tracking key (anything starting with "_":
// _tileIndex, _pageIndex, _sliceIndex, _sourceId, _ocrCorrected,
// _validationIssue, _validationDetails) from the final result, per §3
// invariant 4 ("no key beginning with _ remains in any emitted object").
// The Validate stage records each residual _validationIssue in
// ctx.Warnings; _validationDetails and _ocrCorrected are not recorded
// anywhere else and are dropped here.
func Cleanup(ctx *docmodel.ProcessingContext) {
	if ctx.Result == nil {
		return
	}
	ctx.Result = stripUnderscoreKeys(ctx.Result)
}

func stripUnderscoreKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if len(k) > 0 && k[0] == '_' {
				continue
			}
			out[k] = stripUnderscoreKeys(child)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(val))
		for i, row := range val {
			out[i], _ = stripUnderscoreKeys(row).(map[string]interface{})
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = stripUnderscoreKeys(item)
		}
		return out
	default:
		return v
	}
}
