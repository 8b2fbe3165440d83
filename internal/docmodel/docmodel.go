// Package docmodel holds the request/response shapes threaded through the
// extraction pipeline: the immutable Request, the mutable ProcessingContext,
// and the Tile/ExtractionResult records stages attach to it.
package docmodel

import "time"

// DocType is one of the four schemas the pipeline knows how to extract.
type DocType string

const (
	DocTypeInvoice       DocType = "invoice"
	DocTypeBankStatement DocType = "bankStatement"
	DocTypeLoanContract  DocType = "loanContract"
	DocTypeDrawdown      DocType = "drawdown"
)

// ArrayField returns the top-level array field the doc-type's rows live
// under, and false for loanContract which has no array field.
func (d DocType) ArrayField() (string, bool) {
	switch d {
	case DocTypeDrawdown:
		return "drawdowns", true
	case DocTypeInvoice:
		return "invoiceRows", true
	case DocTypeBankStatement:
		return "transactions", true
	case DocTypeLoanContract:
		return "", false
	default:
		return "", false
	}
}

// PipelineMode selects which Extract branch runs (§4.4 of the extraction design).
type PipelineMode string

const (
	ModeDefault     PipelineMode = "default"
	ModeOCREnhanced PipelineMode = "ocr-enhanced"
	ModeOCROnly     PipelineMode = "ocr-only"
	ModeOCRVerified PipelineMode = "ocr-verified"
)

// ModelProvider selects the concrete ModelBackend.
type ModelProvider string

const (
	ProviderGemini      ModelProvider = "gemini"
	ProviderOpenAI      ModelProvider = "openai"
	ProviderAzureOpenAI ModelProvider = "azure-openai"
)

// Options carries every per-request knob the pipeline consults (§6.1).
type Options struct {
	ModelProvider     ModelProvider
	EnforceJSONSchema bool
	CustomPrompt      string
	CustomSchema      map[string]interface{}
	EnableTiling      *bool // nil means "auto": true for drawdown, false otherwise
	SliceHeight       int
	Overlap           int
	HeaderHeight      int
	ParallelMode      bool
	MaxConcurrency    int
	RetryAttempts     int
	UseOCR            bool
	OCRLanguage       string
	OCRConcurrency    int
	PipelineMode      PipelineMode
	VerboseDebug      bool
	DebugOutputDir    string
}

// Defaults fills in the zero-value fields with the pipeline's defaults.
func (o Options) Defaults(docType DocType) Options {
	if o.ModelProvider == "" {
		o.ModelProvider = ProviderGemini
	}
	if o.PipelineMode == "" {
		o.PipelineMode = ModeDefault
	}
	if o.SliceHeight <= 0 {
		o.SliceHeight = 700
	}
	if o.Overlap <= 0 {
		o.Overlap = 100
	}
	if o.HeaderHeight <= 0 {
		o.HeaderHeight = 300
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 3
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 2
	}
	if o.OCRConcurrency <= 0 {
		o.OCRConcurrency = 3
	}
	if o.EnableTiling == nil {
		auto := docType == DocTypeDrawdown
		o.EnableTiling = &auto
	}
	return o
}

// Request is the immutable inbound document request (§6.1).
type Request struct {
	File     []byte
	MimeType string
	DocType  DocType
	Schema   map[string]interface{}
	Options  Options
}

// Tile is a model-call unit: either a whole page or a header+slice pair (§3).
type Tile struct {
	PageIndex   int
	SliceIndex  int
	GlobalIndex int
	Images      [][]byte // header first (if tiled), then the slice/page
	IsTiled     bool
	RawSlice    []byte // the un-header-prefixed slice/page, for debug dump
	RawHeader   []byte // nil when not tiled
}

// ExtractionResult is what one model call contributed (§3).
type ExtractionResult struct {
	Data       map[string]interface{}
	ResponseID string
	TileIndex  int
	HasTile    bool
}

// OCRResult is the per-image OCR artifact (§3).
type OCRResult struct {
	Text       string
	Confidence float64
	WordCount  int
}

// Metadata tracks stage timings and pipeline bookkeeping for the response.
type Metadata struct {
	StageTimings      map[string]time.Duration
	ReVerificationRan bool
	OCRAvailable      bool
}

// ProcessingContext is the single-owner mutable value threaded through the
// pipeline's stages (§3). It is never written from more than one goroutine
// at a time; intra-stage fan-out joins before returning control to the
// owning stage.
type ProcessingContext struct {
	Request Request

	Images      [][]byte
	OCRResults  []OCRResult
	OCRText     string
	Tiles       []Tile
	Extractions []ExtractionResult

	Result map[string]interface{}

	Metadata Metadata

	Error    error
	Errors   []error
	Warnings []string
}

// NewProcessingContext seeds a context from a request.
func NewProcessingContext(req Request) *ProcessingContext {
	return &ProcessingContext{
		Request: req,
		Metadata: Metadata{
			StageTimings: make(map[string]time.Duration),
		},
	}
}

// Fail records a fatal error; the pipeline skeleton checks this after every
// stage and stops if it is non-nil.
func (c *ProcessingContext) Fail(err error) {
	if c.Error == nil {
		c.Error = err
	}
	c.Errors = append(c.Errors, err)
}

// Warn records a non-fatal condition.
func (c *ProcessingContext) Warn(msg string) {
	c.Warnings = append(c.Warnings, msg)
}

// Failed reports whether a fatal error has been recorded.
func (c *ProcessingContext) Failed() bool {
	return c.Error != nil
}
