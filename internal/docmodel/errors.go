package docmodel

import "fmt"

// ErrorKind classifies pipeline failures (§7).
type ErrorKind string

const (
	KindBadRequest         ErrorKind = "BadRequest"
	KindUnsupportedScanned ErrorKind = "UnsupportedScanned"
	KindBackendUnconfigured ErrorKind = "BackendUnconfigured"
	KindBackendTransport   ErrorKind = "BackendTransport"
	KindBackendParse       ErrorKind = "BackendParse"
	KindTimeout            ErrorKind = "Timeout"
	KindValidationResidual ErrorKind = "ValidationResidual"
	KindOCRUnavailable     ErrorKind = "OCRUnavailable"
)

// PipelineError is the typed error every stage returns. Retryable mirrors
// the propagation policy of §7: BackendTransport/Timeout are retryable in
// parallel-tile contexts, fatal in single-call contexts — the retryable
// flag here describes the kind in isolation, and call sites decide whether
// that matters given their dispatch mode.
type PipelineError struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// IsRetryable satisfies internal/retry.Retryable.
func (e *PipelineError) IsRetryable() bool { return e.Retryable }

// NewError builds a PipelineError, inferring the default retryability for
// its kind.
func NewError(kind ErrorKind, message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:      kind,
		Message:   message,
		Retryable: kind == KindBackendTransport || kind == KindTimeout,
		Cause:     cause,
	}
}

// HTTPStatus maps an error kind to the response status category (§6.3/§7).
func (e *PipelineError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest, KindUnsupportedScanned, KindBackendUnconfigured, KindOCRUnavailable:
		return 400
	default:
		return 500
	}
}
