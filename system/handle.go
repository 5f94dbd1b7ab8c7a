package system

type (
	// Handle is a transport resource that travels out of band next to the
	// bytes of a message.
	Handle interface {
		// Close releases the resource.
		Close() error
		// IsValid reports whether the handle refers to a live resource.
		IsValid() bool
	}

	// Token is an opaque handle reference. Socket backed pipes cannot move
	// real resources between processes, so they carry tokens instead.
	Token uint32

	invalidHandle struct{}
)

// InvalidHandle stands for an explicitly absent handle.
var InvalidHandle Handle = invalidHandle{}

// Close implements Handle.
func (invalidHandle) Close() error { return nil }

// IsValid implements Handle.
func (invalidHandle) IsValid() bool { return false }

// Close implements Handle.
func (t Token) Close() error { return nil }

// IsValid implements Handle.
func (t Token) IsValid() bool { return true }

var (
	_ Handle = InvalidHandle
	_ Handle = Token(0)
)
