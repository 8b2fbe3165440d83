package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractProvider implements Provider via Tesseract bindings, grounded on
// _examples/adverant-Adverant-Nexus-Open-Core's go.mod, which imports
// otiai10/gosseract/v2 for the same file-processing OCR concern.
type TesseractProvider struct{}

// NewTesseractProvider builds a Tesseract-backed OCR provider.
func NewTesseractProvider() *TesseractProvider {
	return &TesseractProvider{}
}

func (t *TesseractProvider) Name() string { return "tesseract" }

func (t *TesseractProvider) ProcessImage(ctx context.Context, image []byte, language string) (string, float64, int, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return "", 0, 0, fmt.Errorf("set ocr language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", 0, 0, fmt.Errorf("load ocr image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, 0, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	confidence := 0.0
	if avg, cerr := client.GetMeanTextConf(); cerr == nil {
		confidence = float64(avg) / 100.0
	}

	wordCount := len(strings.Fields(text))
	return text, confidence, wordCount, nil
}
