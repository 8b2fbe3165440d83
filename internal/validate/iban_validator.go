package validate

import (
	"fmt"
	"strings"

	"github.com/natthapon/docflow/internal/iban"
)

// IBANValidator is the one built-in validator (§4.6), implementing the
// MOD-97-with-diagnostics check and the OCR-based repair pass (§4.4.4
// step 3, reused here per §9's resolution that OCR-enhanced mode gets
// repair too, via this stage).
type IBANValidator struct{}

// NewIBANValidator builds the drawdown IBAN validator.
func NewIBANValidator() *IBANValidator { return &IBANValidator{} }

func (v *IBANValidator) FieldName() string { return "invoiceNumber" }

func (v *IBANValidator) Validate(item map[string]interface{}) bool {
	raw, _ := item["iban"].(string)
	return iban.Validate(raw).Valid
}

func (v *IBANValidator) FindInvalid(items []map[string]interface{}) []map[string]interface{} {
	var invalid []map[string]interface{}
	for _, item := range items {
		if !v.Validate(item) {
			invalid = append(invalid, item)
		}
	}
	return invalid
}

func (v *IBANValidator) Repair(invalid []map[string]interface{}, ocrText string) []map[string]interface{} {
	if ocrText == "" {
		return nil
	}
	candidates := iban.CandidatesFromText(ocrText)
	if len(candidates) == 0 {
		return nil
	}

	var repaired []map[string]interface{}
	for _, item := range invalid {
		raw, _ := item["iban"].(string)
		fixed, ok := iban.Repair(raw, candidates)
		if !ok {
			continue
		}
		out := make(map[string]interface{}, len(item)+1)
		for k, val := range item {
			out[k] = val
		}
		out["iban"] = fixed
		out["_ocrCorrected"] = true
		repaired = append(repaired, out)
	}
	return repaired
}

func (v *IBANValidator) ApplyRepairs(result map[string]interface{}, repaired []map[string]interface{}, arrayField string) {
	if len(repaired) == 0 {
		return
	}
	rows, _ := result[arrayField].([]map[string]interface{})

	byKey := make(map[string]map[string]interface{}, len(repaired))
	for _, r := range repaired {
		key := trimLower(fmt.Sprint(r[v.FieldName()]))
		byKey[key] = r
	}

	for i, row := range rows {
		key := trimLower(fmt.Sprint(row[v.FieldName()]))
		if fixed, ok := byKey[key]; ok {
			rows[i] = fixed
		}
	}
	result[arrayField] = rows
}

func (v *IBANValidator) Annotate(item map[string]interface{}) {
	raw, _ := item["iban"].(string)
	d := iban.Validate(raw)
	if d.Valid {
		return
	}

	issue := string(d.Issue)
	if issue == "" {
		issue = "invalid"
	}
	item["_validationIssue"] = issue

	switch d.Issue {
	case iban.IssueTooShort:
		item["_validationDetails"] = fmt.Sprintf("TOO SHORT: missing %d digits", d.Expected-d.Actual)
	case iban.IssueTooLong:
		item["_validationDetails"] = fmt.Sprintf("TOO LONG: %d extra", d.Actual-d.Expected)
	case iban.IssueChecksumFailed:
		item["_validationDetails"] = "CHECKSUM FAILED"
	case iban.IssueMissing:
		item["_validationDetails"] = "MISSING IBAN"
	default:
		item["_validationDetails"] = "INVALID IBAN"
	}
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
