package errz

import "fmt"

// FormatError reports a malformed binary chunk. It is returned by the loader
// and never reaches running Lua code.
type FormatError struct {
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("bad binary chunk: %s", e.Message)
	}
	return fmt.Sprintf("bad binary chunk: %s (offset %d)", e.Message, e.Offset)
}

// NewFormatError creates a FormatError at the given byte offset. A negative
// offset means the position is unknown.
func NewFormatError(offset int, format string, args ...any) *FormatError {
	return &FormatError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}
