package goadsym

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		retryable bool
	}{
		{"ads busy", ads.ErrDeviceBusy, ErrorCategoryADS, true},
		{"ads invalid group", fmt.Errorf("read: %w", ads.ErrDeviceInvalidIndexGroup), ErrorCategoryADS, false},
		{"deadline", context.DeadlineExceeded, ErrorCategoryTimeout, true},
		{"canceled", fmt.Errorf("x: %w", context.Canceled), ErrorCategoryTimeout, true},
		{"offline", ErrOffline, ErrorCategoryState, false},
		{"schema", fmt.Errorf("%w: bad", ErrMalformedSchema), ErrorCategorySchema, false},
		{"not found", ErrNotFound, ErrorCategoryPath, false},
		{"out of bounds", ErrOutOfBounds, ErrorCategoryPath, false},
		{"mismatch", ErrTypeMismatch, ErrorCategoryValidation, false},
		{"invalid", ErrInvalidArgument, ErrorCategoryValidation, false},
		{"malformed data", ErrMalformedData, ErrorCategoryValidation, false},
		{"unsupported", ErrUnsupported, ErrorCategoryUnsupported, false},
		{"other", errors.New("connection reset"), ErrorCategoryTransport, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := ClassifyError(tt.err, "get")
			assert.Equal(t, tt.category, ce.Category)
			assert.Equal(t, tt.retryable, ce.IsRetryable())
			assert.ErrorIs(t, ce, tt.err)
		})
	}

	assert.Nil(t, ClassifyError(nil, "get"))
}

func TestClassifiedErrorMessage(t *testing.T) {
	err := newPathError("set", "MAIN.x", ErrNotFound)
	assert.Equal(t, `set operation failed for "MAIN.x": not found`, err.Error())
	assert.Same(t, err, ClassifyError(fmt.Errorf("wrapped: %w", err), "get"))

	plain := ClassifyError(ErrUnsupported, "upload")
	assert.Equal(t, "upload operation failed: unsupported", plain.Error())
	assert.Equal(t, "validation", ErrorCategoryValidation.String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrOutOfBounds, KindOf(fmt.Errorf("resolve: %w", ErrOutOfBounds)))
	assert.Equal(t, ErrMalformedData, KindOf(newPathError("get", "a", ErrMalformedData)))
	assert.Nil(t, KindOf(errors.New("other")))
	assert.Nil(t, KindOf(ErrOffline))
}
