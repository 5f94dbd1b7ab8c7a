package bindings

// Validator enforces that one decoding session walks the message exactly once
// from front to back: every memory region and handle index may be claimed
// only at or after the end of the previous claim.
type Validator struct {
	minNextClaimedHandle int
	minNextMemory        int64
	maxMemory            int64
	numHandles           int
}

// NewValidator creates a validator for a message of maxMemory bytes carrying
// numHandles out-of-band handles.
func NewValidator(maxMemory int64, numHandles int) *Validator {
	return &Validator{
		maxMemory:  maxMemory,
		numHandles: numHandles,
	}
}

// ClaimHandle claims the handle at index.
func (v *Validator) ClaimHandle(index int) error {
	if index < v.minNextClaimedHandle {
		return deserializationErr("claim handle", int64(index), ErrOutOfOrderAccess)
	}
	if index >= v.numHandles {
		return deserializationErr("claim handle", int64(index), ErrIllegalHandle)
	}

	v.minNextClaimedHandle = index + 1
	return nil
}

// ClaimMemory claims the byte range [start, end).
func (v *Validator) ClaimMemory(start, end int64) error {
	if start < v.minNextMemory {
		return deserializationErr("claim memory", start, ErrOutOfOrderAccess)
	}
	if end < start {
		return deserializationErr("claim memory", start, ErrInvalidRange)
	}
	if end > v.maxMemory {
		return deserializationErr("claim memory", end, ErrOutOfBounds)
	}
	if start%Alignment != 0 {
		return deserializationErr("claim memory", start, ErrMisalignedAccess)
	}
	if end%Alignment != 0 {
		return deserializationErr("claim memory", end, ErrMisalignedAccess)
	}

	v.minNextMemory = end
	return nil
}

// MaxMemory returns the byte ceiling of the session.
func (v *Validator) MaxMemory() int64 {
	return v.maxMemory
}
