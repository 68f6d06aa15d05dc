// Package apperrors provides a unified error taxonomy shared across every
// component of the observatory, mirroring the kinds enumerated in the
// system's error-handling design: retried locally, skipped, surfaced, or
// fatal.
package apperrors

import "fmt"

// Kind classifies how the surrounding pipeline step should treat an error.
type Kind int

const (
	// KindUnknown is the zero value; treated like KindSurfaced.
	KindUnknown Kind = iota
	// KindRetryable marks transient failures worth a local retry/backoff.
	KindRetryable
	// KindSkipped marks conditions that are not errors: they are recorded
	// as counters and the pipeline continues without surfacing anything.
	KindSkipped
	// KindSurfaced marks non-fatal failures that end the current step but
	// let the pipeline continue with the next frame/segment/request.
	KindSurfaced
	// KindFatal marks failures that must stop the owning session/task.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindSkipped:
		return "skipped"
	case KindSurfaced:
		return "surfaced"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Code identifies a specific error condition within a Kind. Values are
// stable across the codebase so callers can branch on them with IsCode.
type Code int

const (
	CodeUnspecified Code = iota

	// Capture
	CodeCaptureUnavailable // no default display / permission denied
	CodeCaptureFailed      // transient backend error
	CodeStealthUnsupported

	// Audio
	CodeSystemCaptureUnavailable
	CodeDeviceReadFailed

	// OCR / Vision
	CodeOCRTimeout
	CodeOCRLowConfidence
	CodeVisionFailed

	// Speech-to-text
	CodeModelMissing
	CodeModelDownloadFailed
	CodeTranscriptionFailed

	// Storage / Timeline
	CodeSchemaCorrupt
	CodeIOFailure
	CodeDuplicateEventID

	// Query layer
	CodeQueryRejected
	CodeQueryTooLong
	CodeQueryInvalidChars
	CodeUnauthorizedTable
	CodeNonSelectOperation
	CodeExcessiveLimit

	// LLM / reactive
	CodeLLMUnavailable
	CodeLLMRateLimited
	CodeLLMInvalidResponse

	// Generic
	CodeTimeout
	CodeCancelled
	CodeInternal
)

// AppError is the base error type carrying a Kind, a stable Code, a
// human message, optional structured metadata, and an optional cause.
type AppError struct {
	Kind     Kind
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s/%s] %s", e.Kind, e.codeName(), e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// Retryable reports whether this error's Kind is KindRetryable.
func (e *AppError) Retryable() bool { return e.Kind == KindRetryable }

func (e *AppError) codeName() string {
	names := map[Code]string{
		CodeCaptureUnavailable:       "capture_unavailable",
		CodeCaptureFailed:            "capture_failed",
		CodeStealthUnsupported:       "stealth_unsupported",
		CodeSystemCaptureUnavailable: "system_capture_unavailable",
		CodeDeviceReadFailed:         "device_read_failed",
		CodeOCRTimeout:               "ocr_timeout",
		CodeOCRLowConfidence:         "ocr_low_confidence",
		CodeVisionFailed:             "vision_failed",
		CodeModelMissing:             "model_missing",
		CodeModelDownloadFailed:      "model_download_failed",
		CodeTranscriptionFailed:      "transcription_failed",
		CodeSchemaCorrupt:            "schema_corrupt",
		CodeIOFailure:                "io_failure",
		CodeDuplicateEventID:         "duplicate_event_id",
		CodeQueryRejected:            "query_rejected",
		CodeQueryTooLong:             "query_too_long",
		CodeQueryInvalidChars:        "query_invalid_chars",
		CodeUnauthorizedTable:        "unauthorized_table",
		CodeNonSelectOperation:       "non_select_operation",
		CodeExcessiveLimit:           "excessive_limit",
		CodeLLMUnavailable:           "llm_unavailable",
		CodeLLMRateLimited:           "llm_rate_limited",
		CodeLLMInvalidResponse:       "llm_invalid_response",
		CodeTimeout:                  "timeout",
		CodeCancelled:                "cancelled",
		CodeInternal:                 "internal",
	}
	if n, ok := names[e.Code]; ok {
		return n
	}
	return "unspecified"
}

// New creates a new AppError.
func New(kind Kind, code Code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg}
}

// Newf creates a new AppError with a formatted message.
func Newf(kind Kind, code Code, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, kind Kind, code Code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, code Code, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata attaches a metadata key/value and returns the receiver.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IsCode reports whether err is an *AppError with the given Code.
func IsCode(err error, code Code) bool {
	var ae *AppError
	if as(err, &ae) {
		return ae.Code == code
	}
	return false
}

// IsKind reports whether err is an *AppError with the given Kind.
func IsKind(err error, kind Kind) bool {
	var ae *AppError
	if as(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// IsRetryable reports whether err should be retried locally.
func IsRetryable(err error) bool {
	var ae *AppError
	if as(err, &ae) {
		return ae.Retryable()
	}
	// Unknown error shapes default to retryable, matching the teacher's
	// "non-gRPC error, retry" fallback in its own IsRetryableGRPC.
	return err != nil
}

// as is a tiny errors.As wrapper kept local to avoid importing errors
// twice across this small file set.
func as(err error, target **AppError) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok {
			*target = ae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
