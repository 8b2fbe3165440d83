// Package model defines the abstract ModelBackend contract (§4.10/§6.2)
// and its three concrete adapters. The pipeline never branches on backend
// identity except to choose image-vs-native payload and tiling-vs-whole
// document, per the interface contract.
package model

import (
	"context"

	"github.com/natthapon/docflow/internal/docmodel"
)

// ContentPart is one ordered element of a model call's payload: either
// text or an image.
type ContentPart struct {
	Text      string
	ImageData []byte
	MimeType  string
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart { return ContentPart{Text: text} }

// ImagePart builds an image content part.
func ImagePart(data []byte, mimeType string) ContentPart {
	return ContentPart{ImageData: data, MimeType: mimeType}
}

// ExtractOptions carries call-shape hints that don't belong in the payload.
type ExtractOptions struct {
	// UseTileTimeout marks a call made through the tile dispatch path (§5).
	// The adapters in this package do not read it: a call's timeout is the
	// deadline on the context the caller passes.
	UseTileTimeout bool
}

// Result is what a single model call contributes.
type Result struct {
	Data       map[string]interface{}
	ResponseID string
}

// Backend is the abstract ModelBackend interface (§6.2). Implementations
// must be safe for concurrent use — the Extract stage fans out many tile
// calls against a single backend instance.
type Backend interface {
	// Name identifies the backend for logging only.
	Name() string

	// Extract sends an ordered list of content parts (the image branch,
	// OCR-enhanced branch, and OCR-only branch all funnel through this).
	Extract(ctx context.Context, parts []ContentPart, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool, opts ExtractOptions) (Result, error)

	// SupportsNativeFile reports whether ExtractNative is implemented.
	SupportsNativeFile() bool

	// ExtractNative sends the original file bytes directly (the
	// native-PDF branch, §4.4.1). Backends that don't support this return
	// an UnsupportedScanned error; SupportsNativeFile should be checked
	// first.
	ExtractNative(ctx context.Context, fileBytes []byte, mimeType string, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool) (Result, error)
}
