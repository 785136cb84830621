package goadsym

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// Error kinds. Every error returned by this package that stems from a
// schema, path or value problem wraps exactly one of them; match with
// errors.Is.
var (
	ErrNotFound        = ads.ErrNotFound
	ErrMalformedSchema = ads.ErrMalformedSchema
	ErrOutOfBounds     = ads.ErrOutOfBounds
	ErrTypeMismatch    = ads.ErrTypeMismatch
	ErrInvalidArgument = ads.ErrInvalidArgument
	ErrUnsupported     = ads.ErrUnsupported
	ErrMalformedData   = ads.ErrMalformedData

	// ErrOffline is returned by I/O methods of a client built from a snapshot.
	ErrOffline = errors.New("client has no transport")
)

var errorKinds = []error{
	ErrNotFound,
	ErrMalformedSchema,
	ErrOutOfBounds,
	ErrTypeMismatch,
	ErrInvalidArgument,
	ErrUnsupported,
	ErrMalformedData,
}

// KindOf returns the error kind err wraps, or nil if it wraps none.
func KindOf(err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// ErrorCategory represents the type of error for better error handling.
type ErrorCategory int

const (
	// ErrorCategoryUnknown represents an unclassified error.
	ErrorCategoryUnknown ErrorCategory = iota

	// ErrorCategoryTransport represents failures reported by the transport
	// that are not device return codes.
	ErrorCategoryTransport

	// ErrorCategoryADS represents ADS device errors returned by the PLC.
	ErrorCategoryADS

	// ErrorCategorySchema represents a malformed symbol or data type upload.
	ErrorCategorySchema

	// ErrorCategoryPath represents unknown names and out of range accessors.
	ErrorCategoryPath

	// ErrorCategoryValidation represents values that do not fit their declaration.
	ErrorCategoryValidation

	// ErrorCategoryUnsupported represents types or operations that are not handled.
	ErrorCategoryUnsupported

	// ErrorCategoryTimeout represents timeout and cancellation errors.
	ErrorCategoryTimeout

	// ErrorCategoryState represents state-related errors (e.g., offline client).
	ErrorCategoryState
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryTransport:
		return "transport"
	case ErrorCategoryADS:
		return "ads"
	case ErrorCategorySchema:
		return "schema"
	case ErrorCategoryPath:
		return "path"
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryUnsupported:
		return "unsupported"
	case ErrorCategoryTimeout:
		return "timeout"
	case ErrorCategoryState:
		return "state"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with additional classification metadata.
type ClassifiedError struct {
	Category  ErrorCategory
	Operation string // The operation that failed (e.g., "get", "set", "upload")
	Err       error
	Retryable bool // Whether the operation can be retried
	ADSError  *ads.Error
	Path      string // Optional: the symbol path if relevant
}

func (e *ClassifiedError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s operation failed for %q: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %v", e.Operation, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// IsRetryable returns whether the error indicates a retryable condition.
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError sorts an error into a category. Schema, path and value
// errors are never retryable: they fail identically on every attempt.
func ClassifyError(err error, operation string) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	ce = &ClassifiedError{
		Category:  ErrorCategoryUnknown,
		Operation: operation,
		Err:       err,
	}

	var adsErr ads.Error
	switch {
	case errors.As(err, &adsErr):
		ce.Category = ErrorCategoryADS
		ce.ADSError = &adsErr
		ce.Retryable = isRetryableADSError(adsErr)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		ce.Category = ErrorCategoryTimeout
		ce.Retryable = true
	case errors.Is(err, ErrOffline):
		ce.Category = ErrorCategoryState
	case errors.Is(err, ErrMalformedSchema):
		ce.Category = ErrorCategorySchema
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOutOfBounds):
		ce.Category = ErrorCategoryPath
	case errors.Is(err, ErrTypeMismatch), errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrMalformedData):
		ce.Category = ErrorCategoryValidation
	case errors.Is(err, ErrUnsupported):
		ce.Category = ErrorCategoryUnsupported
	default:
		ce.Category = ErrorCategoryTransport
		ce.Retryable = true
	}

	return ce
}

func isRetryableADSError(err ads.Error) bool {
	switch err {
	case ads.ErrTargetPortNotFound, ads.ErrTargetMachineNotFound, ads.ErrDeviceBusy:
		return true
	default:
		return false
	}
}

// newPathError classifies err and attaches the path it concerns.
func newPathError(operation, path string, err error) *ClassifiedError {
	ce := ClassifyError(err, operation)
	return &ClassifiedError{
		Category:  ce.Category,
		Operation: operation,
		Err:       ce.Err,
		Retryable: ce.Retryable,
		ADSError:  ce.ADSError,
		Path:      path,
	}
}
