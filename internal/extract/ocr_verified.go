package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/iban"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/pipectx"
	"github.com/natthapon/docflow/internal/retry"
)

// runOCRVerified implements §4.4.4, the drawdown specialisation: an
// initial whole-document pass, MOD-97 validation with diagnostics,
// OCR-text-based repair, and a final targeted model re-verification for
// rows that still don't validate.
func runOCRVerified(ctx context.Context, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, backend model.Backend) {
	req := pctx.Request
	arrayField := arrayFieldOf(req.DocType)

	// Step 1: initial pass.
	instructions := initialPassInstructions(req, pctx.OCRText)
	parts := make([]model.ContentPart, 0, len(pctx.Images)+1)
	parts = append(parts, model.TextPart(instructions))
	for _, page := range pctx.Images {
		parts = append(parts, model.ImagePart(page, "image/jpeg"))
	}

	s, enforce := schemaFor(req)
	callCtx, cancel := context.WithTimeout(ctx, wholeDocTimeout())
	res, err := backend.Extract(callCtx, parts, instructions, req.DocType, s, enforce, model.ExtractOptions{})
	cancel()
	if err != nil {
		pctx.Fail(err)
		return
	}

	rows := normalizeRows(res.Data, arrayField)

	// Step 2: validate, partition.
	var valid, invalid []map[string]interface{}
	for _, row := range rows {
		raw, _ := row["iban"].(string)
		if iban.Validate(raw).Valid {
			valid = append(valid, row)
		} else {
			invalid = append(invalid, row)
		}
	}

	// Step 3: OCR-based repair.
	var stillInvalid []map[string]interface{}
	var ocrRepaired []map[string]interface{}
	candidates := iban.CandidatesFromText(pctx.OCRText)
	for _, row := range invalid {
		raw, _ := row["iban"].(string)
		if fixed, ok := iban.Repair(raw, candidates); ok {
			row["iban"] = fixed
			row["_ocrCorrected"] = true
			ocrRepaired = append(ocrRepaired, row)
		} else {
			stillInvalid = append(stillInvalid, row)
		}
	}

	// Step 4: targeted model re-verification for rows OCR repair couldn't fix.
	var modelRepaired []map[string]interface{}
	if len(stillInvalid) > 0 {
		modelRepaired = reverify(ctx, backend, req, pctx.Images, valid, stillInvalid)
	}

	// Step 5: merge, dropping repaired rows whose invoiceNumber duplicates a valid one.
	merged := mergeDrawdownRows(valid, ocrRepaired, modelRepaired)

	res.Data[arrayField] = merged
	pctx.Extractions = []docmodel.ExtractionResult{{Data: res.Data, ResponseID: res.ResponseID}}
}

func initialPassInstructions(req docmodel.Request, ocrText string) string {
	return fmt.Sprintf(
		"OCR text of the document:\n%s\n\nExtract every drawdown row from the attached "+
			"pages. Character-exact rules: Slovak and Czech IBANs are always exactly 24 "+
			"characters; invoiceNumber and variableSymbol are distinct fields and must never "+
			"be confused; amounts use the decimal convention shown in the document, not a "+
			"thousands-separator heuristic. Return JSON matching exactly this schema:\n\n%s",
		ocrText, marshalSchema(req.Schema),
	)
}

// reverify composes the §4.4.4 step 4 prompt: valid rows as context, the
// still-invalid rows with their diagnostics, and the original pages;
// requests corrected versions of only the invalid rows.
func reverify(ctx context.Context, backend model.Backend, req docmodel.Request, pages [][]byte, valid, stillInvalid []map[string]interface{}) []map[string]interface{} {
	requested := make(map[string]bool, len(stillInvalid))
	var diagLines []string
	for _, row := range stillInvalid {
		invoiceNumber := fmt.Sprint(row["invoiceNumber"])
		requested[strings.ToLower(strings.TrimSpace(invoiceNumber))] = true

		raw, _ := row["iban"].(string)
		d := iban.Validate(raw)
		diagLines = append(diagLines, fmt.Sprintf("invoiceNumber=%s: %s", invoiceNumber, diagnosisLine(d)))
	}

	prompt := fmt.Sprintf(
		"The following rows were already confirmed valid (context, do not re-send them):\n%s\n\n"+
			"These rows have IBAN problems and need correction:\n%s\n\n"+
			"Return JSON with only the corrected rows for the invoiceNumbers listed above, "+
			"matching exactly this schema:\n\n%s",
		summarizeRows(valid), strings.Join(diagLines, "\n"), marshalSchema(req.Schema),
	)

	parts := make([]model.ContentPart, 0, len(pages)+1)
	parts = append(parts, model.TextPart(prompt))
	for _, page := range pages {
		parts = append(parts, model.ImagePart(page, "image/jpeg"))
	}

	s, enforce := schemaFor(req)
	cfg := retry.JitteredConfig(req.Options.RetryAttempts)

	result, err := retry.WithRetry(ctx, cfg, func(callCtx context.Context, attempt int) (model.Result, error) {
		tc, cancel := context.WithTimeout(callCtx, tileTimeout())
		defer cancel()
		return backend.Extract(tc, parts, prompt, req.DocType, s, enforce, model.ExtractOptions{})
	})
	if err != nil {
		return nil
	}

	arrayField := arrayFieldOf(req.DocType)
	rows := normalizeRows(result.Data, arrayField)

	var accepted []map[string]interface{}
	for _, row := range rows {
		invoiceNumber := strings.ToLower(strings.TrimSpace(fmt.Sprint(row["invoiceNumber"])))
		if !requested[invoiceNumber] {
			continue
		}
		raw, _ := row["iban"].(string)
		if !iban.Validate(raw).Valid {
			continue
		}
		accepted = append(accepted, row)
	}
	return accepted
}

func diagnosisLine(d iban.Diagnosis) string {
	switch d.Issue {
	case iban.IssueTooShort:
		return fmt.Sprintf("TOO SHORT: missing %d digits", d.Expected-d.Actual)
	case iban.IssueTooLong:
		return fmt.Sprintf("TOO LONG: %d extra", d.Actual-d.Expected)
	case iban.IssueChecksumFailed:
		return "CHECKSUM FAILED"
	case iban.IssueMissing:
		return "MISSING IBAN"
	default:
		return "INVALID IBAN"
	}
}

func summarizeRows(rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("invoiceNumber=%v iban=%v", row["invoiceNumber"], row["iban"]))
	}
	return strings.Join(lines, "\n")
}

// mergeDrawdownRows implements §4.4.4 step 5: concatenate valid + OCR-
// repaired + model-repaired, dropping repaired rows whose normalised
// invoiceNumber already appears among the valid rows.
func mergeDrawdownRows(valid, ocrRepaired, modelRepaired []map[string]interface{}) []map[string]interface{} {
	seen := make(map[string]bool, len(valid))
	for _, row := range valid {
		seen[strings.ToLower(strings.TrimSpace(fmt.Sprint(row["invoiceNumber"])))] = true
	}

	out := make([]map[string]interface{}, 0, len(valid)+len(ocrRepaired)+len(modelRepaired))
	out = append(out, valid...)

	for _, row := range append(append([]map[string]interface{}{}, ocrRepaired...), modelRepaired...) {
		key := strings.ToLower(strings.TrimSpace(fmt.Sprint(row["invoiceNumber"])))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}
