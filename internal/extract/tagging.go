package extract

import "github.com/natthapon/docflow/internal/docmodel"

// tagInfo is what gets stamped onto every row of one model call's result
// (§4.4 "Row tagging"). Which fields are set varies by branch: the image
// branch stamps all three, OCR-enhanced stamps only pageIndex, OCR-only and
// native-PDF stamp none (there is exactly one call, no correlation needed).
type tagInfo struct {
	tileIndex  int
	hasTile    bool
	pageIndex  int
	hasPage    bool
	sliceIndex int
	hasSlice   bool
}

// normalizeRows coerces data[arrayField] — however json.Unmarshal produced
// it — into []map[string]interface{}, the shape every downstream stage
// (aggregate, dedup, validate) expects, and writes it back.
func normalizeRows(data map[string]interface{}, arrayField string) []map[string]interface{} {
	if data == nil || arrayField == "" {
		return nil
	}
	raw, ok := data[arrayField]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if row, ok := item.(map[string]interface{}); ok {
				out = append(out, row)
			}
		}
		data[arrayField] = out
		return out
	default:
		return nil
	}
}

func tagRows(data map[string]interface{}, arrayField string, tag tagInfo) {
	rows := normalizeRows(data, arrayField)
	for _, row := range rows {
		if tag.hasTile {
			row["_tileIndex"] = tag.tileIndex
		}
		if tag.hasPage {
			row["_pageIndex"] = tag.pageIndex
		}
		if tag.hasSlice {
			row["_sliceIndex"] = tag.sliceIndex
		}
	}
}

func arrayFieldOf(docType docmodel.DocType) string {
	field, _ := docType.ArrayField()
	return field
}
