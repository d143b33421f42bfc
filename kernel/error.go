package kernel

// Error describes a kernel error. Errors are declared as package-level
// pointers to Error so that reporting a failure during early boot never needs
// the allocator; code compares against those pointers instead of matching
// messages.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// String returns the error prefixed with the module that raised it.
func (e *Error) String() string {
	if e.Module == "" {
		return e.Message
	}

	return "[" + e.Module + "] " + e.Message
}
