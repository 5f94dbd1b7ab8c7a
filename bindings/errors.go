package bindings

import (
	"errors"
	"fmt"
)

var (
	// Validator failures.
	ErrOutOfOrderAccess = errors.New("out of order access")
	ErrInvalidRange     = errors.New("invalid memory range")
	ErrOutOfBounds      = errors.New("out of bounds")
	ErrMisalignedAccess = errors.New("misaligned access")
	ErrIllegalHandle    = errors.New("illegal handle index")

	// Decoder failures.
	ErrUnexpectedNullPointer   = errors.New("unexpected null pointer")
	ErrUnexpectedInvalidHandle = errors.New("unexpected invalid handle")
	ErrInvalidArrayHeader      = errors.New("array size does not fit its elements")
	ErrUnexpectedArrayLength   = errors.New("unexpected array length")
	ErrUnexpectedStructHeader  = errors.New("struct header does not match any known version")
	ErrInvalidMapData          = errors.New("invalid map data")
	ErrInvalidUTF8             = errors.New("invalid utf-8 string")
	ErrInvalidMessageHeader    = errors.New("invalid message header")

	// ErrDuplicateRequestID is the panic value of a router that would reuse
	// the id of a request that is still waiting for its response.
	ErrDuplicateRequestID = errors.New("request id already pending")
)

// DeserializationError aborts the decoding of a whole message.
type DeserializationError struct {
	// Op is the decoding step that failed.
	Op string
	// Offset is the absolute byte offset (or handle index) involved.
	Offset int64
	Err    error
}

// Error implements the error interface.
func (e *DeserializationError) Error() string {
	return fmt.Sprintf("bindings: %s at %d: %v", e.Op, e.Offset, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *DeserializationError) Unwrap() error {
	return e.Err
}

func deserializationErr(op string, offset int64, err error) error {
	return &DeserializationError{Op: op, Offset: offset, Err: err}
}
