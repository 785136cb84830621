package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mrpasztoradam/goadsym"
)

// Error codes
const (
	ErrCodeSymbolNotFound    = "SYMBOL_NOT_FOUND"
	ErrCodeOutOfBounds       = "INDEX_OUT_OF_BOUNDS"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeTypeMismatch      = "TYPE_MISMATCH"
	ErrCodeInvalidValue      = "INVALID_VALUE"
	ErrCodeUnsupported       = "UNSUPPORTED"
	ErrCodeOffline           = "DEVICE_OFFLINE"
	ErrCodeDeviceError       = "DEVICE_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeSchemaError       = "SCHEMA_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeBatchSizeExceeded = "BATCH_SIZE_EXCEEDED"
)

// HTTPError represents an HTTP error with status code and error response
type HTTPError struct {
	StatusCode int
	Response   ErrorResponse
}

// Error implements the error interface
func (e HTTPError) Error() string {
	return e.Response.Error.Message
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, code, message string, details map[string]any) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Response: ErrorResponse{
			Error: ErrorDetail{
				Code:    code,
				Message: message,
				Details: details,
			},
		},
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrCodeInvalidRequest, message, nil)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, ErrCodeInternalError, message, nil)
}

// NewBatchSizeExceededError creates a batch size exceeded error
func NewBatchSizeExceededError(requested, max int) *HTTPError {
	return NewHTTPError(
		http.StatusBadRequest,
		ErrCodeBatchSizeExceeded,
		"Batch size exceeds maximum allowed",
		map[string]any{
			"requested": requested,
			"maximum":   max,
		},
	)
}

// FromError maps a client error onto a status code and error code by its
// category and kind.
func FromError(err error, symbol string) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	ce := goadsym.ClassifyError(err, "request")
	details := map[string]any{"category": ce.Category.String()}
	if symbol != "" {
		details["symbol"] = symbol
	}
	if ce.ADSError != nil {
		details["ads_error"] = uint32(*ce.ADSError)
	}
	if ce.Retryable {
		details["retryable"] = true
	}

	status, code := http.StatusInternalServerError, ErrCodeInternalError
	switch ce.Category {
	case goadsym.ErrorCategoryPath:
		status, code = http.StatusNotFound, ErrCodeSymbolNotFound
		if errors.Is(err, goadsym.ErrOutOfBounds) {
			status, code = http.StatusBadRequest, ErrCodeOutOfBounds
		}
	case goadsym.ErrorCategoryValidation:
		status, code = http.StatusBadRequest, ErrCodeInvalidValue
		if errors.Is(err, goadsym.ErrTypeMismatch) {
			code = ErrCodeTypeMismatch
		}
	case goadsym.ErrorCategoryUnsupported:
		status, code = http.StatusNotImplemented, ErrCodeUnsupported
	case goadsym.ErrorCategoryState:
		status, code = http.StatusConflict, ErrCodeOffline
	case goadsym.ErrorCategoryTimeout:
		status, code = http.StatusGatewayTimeout, ErrCodeTimeout
	case goadsym.ErrorCategoryADS, goadsym.ErrorCategoryTransport:
		status, code = http.StatusBadGateway, ErrCodeDeviceError
	case goadsym.ErrorCategorySchema:
		code = ErrCodeSchemaError
	}
	return NewHTTPError(status, code, err.Error(), details)
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error) {
	httpErr := FromError(err, "")
	writeHTTPError(w, httpErr)
}

func writeHTTPError(w http.ResponseWriter, httpErr *HTTPError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.StatusCode)
	json.NewEncoder(w).Encode(httpErr.Response)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
