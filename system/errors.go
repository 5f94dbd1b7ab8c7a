package system

import "errors"

var (
	// ErrShouldWait is returned by a read when no message is queued yet.
	ErrShouldWait = errors.New("system: should wait")
	// ErrResourceExhausted is returned by a read when the supplied buffers are
	// too small for the next message, or by a write when the queue is full.
	ErrResourceExhausted = errors.New("system: resource exhausted")
	// ErrFailedPrecondition is returned once the peer has closed and every
	// queued message has been read.
	ErrFailedPrecondition = errors.New("system: failed precondition")
	// ErrInvalidArgument is returned for handles a pipe cannot carry.
	ErrInvalidArgument = errors.New("system: invalid argument")
	// ErrClosed is returned by operations on a locally closed endpoint.
	ErrClosed = errors.New("system: handle closed")
)
