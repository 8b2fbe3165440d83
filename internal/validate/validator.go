// Package validate implements the Validate stage (§4.6): pluggable
// per-doc-type field validators with an OCR-assisted repair loop, and the
// Cleanup stage (§2, §4.11) that strips internal tracking markers.
package validate

// Validator is the pluggable per-field contract (§4.6).
type Validator interface {
	// FieldName is the key field repairs are matched on, normalised to
	// trim+lower-case (default "invoiceNumber").
	FieldName() string

	// Validate reports whether one row's field passes validation.
	Validate(item map[string]interface{}) bool

	// FindInvalid returns the subset of items that fail Validate.
	FindInvalid(items []map[string]interface{}) []map[string]interface{}

	// Repair attempts to fix invalid rows using the OCR text captured on
	// the context; it returns only the rows it successfully repaired.
	Repair(invalid []map[string]interface{}, ocrText string) []map[string]interface{}

	// ApplyRepairs merges repaired rows back into result[arrayField],
	// matching on FieldName().
	ApplyRepairs(result map[string]interface{}, repaired []map[string]interface{}, arrayField string)

	// Annotate marks a still-invalid row with _validationIssue/
	// _validationDetails for the API consumer.
	Annotate(item map[string]interface{})
}

// Registry maps doc-types to the validators that apply to them (§4.6: "For
// drawdown the configured validator is iban").
var Registry = map[string][]Validator{
	"drawdown": {NewIBANValidator()},
}

func normalizeKey(s string) string {
	return trimLower(s)
}
