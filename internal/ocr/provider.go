// Package ocr implements the optional OCR pre-pass (§4.2): a bounded
// fan-out over page images through an external OCR collaborator.
package ocr

import "context"

// Provider is the external OCR collaborator contract, carried forward from
// the teacher's internal/ai.OCRProvider but narrowed to pure text
// extraction — this pipeline treats OCR as a genuinely separate
// collaborator from the multimodal model, per spec.md §1.
type Provider interface {
	// ProcessImage returns the recognised text, a 0..1 confidence score,
	// and the recognised word count for one page image.
	ProcessImage(ctx context.Context, image []byte, language string) (text string, confidence float64, wordCount int, err error)
	Name() string
}
