package ads

import (
	"errors"
	"fmt"
)

// Error is a device return code.
type Error uint32

const (
	ErrNoError                  Error = 0x0000
	ErrInternal                 Error = 0x0001
	ErrTargetPortNotFound       Error = 0x0006
	ErrTargetMachineNotFound    Error = 0x0007
	ErrDeviceServiceNotSupp     Error = 0x0701
	ErrDeviceInvalidIndexGroup  Error = 0x0702
	ErrDeviceInvalidIndexOffset Error = 0x0703
	ErrDeviceInvalidSize        Error = 0x0705
	ErrDeviceBusy               Error = 0x0707
	ErrDeviceSymbolNotFound     Error = 0x0710
)

func (e Error) Error() string {
	switch e {
	case ErrNoError:
		return "no error"
	case ErrInternal:
		return "internal error"
	case ErrTargetPortNotFound:
		return "target port not found"
	case ErrTargetMachineNotFound:
		return "target machine not found"
	case ErrDeviceServiceNotSupp:
		return "service not supported"
	case ErrDeviceInvalidIndexGroup:
		return "invalid index group"
	case ErrDeviceInvalidIndexOffset:
		return "invalid index offset"
	case ErrDeviceInvalidSize:
		return "invalid size"
	case ErrDeviceBusy:
		return "device busy"
	case ErrDeviceSymbolNotFound:
		return "symbol not found"
	default:
		return fmt.Sprintf("ADS error 0x%04X", uint32(e))
	}
}

func (e Error) IsError() bool {
	return e != ErrNoError
}

// Error kinds raised while parsing schemas, resolving paths and marshaling values.
// Callers match them with errors.Is; messages add context via %w wrapping.
var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedSchema = errors.New("malformed schema")
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupported     = errors.New("unsupported")
	ErrMalformedData   = errors.New("malformed data")
)
