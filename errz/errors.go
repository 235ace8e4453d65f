// Package errz defines the errors raised while loading and running Lua chunks.
package errz

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fatih/color"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrRuntime indicates a general runtime error.
	ErrRuntime ErrorKind = iota
	// ErrType indicates an operation applied to a value of the wrong type.
	ErrType
	// ErrValue indicates an invalid value for an operation.
	ErrValue
	// ErrOverflow indicates the call stack depth limit was reached.
	ErrOverflow
	// ErrUser indicates a value raised by Lua code through error().
	ErrUser
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrRuntime:
		return "runtime error"
	case ErrType:
		return "type error"
	case ErrValue:
		return "value error"
	case ErrOverflow:
		return "stack overflow"
	case ErrUser:
		return "error"
	default:
		return "error"
	}
}

// Frame is the view of an execution context that an error keeps from its
// throw site.
type Frame interface {
	FunctionName() string
	Location() SourceLocation
}

// ExecutionError is the single error kind raised by running Lua code. Value
// holds the raised payload. Interpreter faults carry a Go string; values
// raised by error() carry whatever Lua value was passed.
type ExecutionError struct {
	Value    any
	Kind     ErrorKind
	Frame    Frame
	Location SourceLocation
	Stack    []StackFrame
	Cause    error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := e.Message()
	if e.Location.IsZero() {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Location.String(), msg)
}

// Message returns the payload rendered as text, without location.
func (e *ExecutionError) Message() string {
	switch v := e.Value.(type) {
	case nil:
		return "nil"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Unwrap returns the underlying cause of the error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Located reports whether a throw site has been attached.
func (e *ExecutionError) Located() bool {
	return e.Frame != nil
}

// WithCause wraps the error with a cause.
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	e.Cause = cause
	return e
}

// FriendlyErrorMessage returns a human-friendly error message with the stack
// trace appended.
func (e *ExecutionError) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	red := color.New(color.FgRed).SprintFunc()
	msg.WriteString(red(e.Kind.String()))
	msg.WriteString(": ")
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	if len(e.Stack) > 0 {
		msg.WriteString("\n")
		msg.WriteString(FormatStackTrace(e.Stack))
	}
	return msg.String()
}

// Errorf creates an ExecutionError whose payload is the formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *ExecutionError {
	return &ExecutionError{
		Value: fmt.Sprintf(format, args...),
		Kind:  kind,
	}
}

// Raise creates an ExecutionError carrying an arbitrary payload.
func Raise(value any) *ExecutionError {
	return &ExecutionError{Value: value, Kind: ErrUser}
}

// AsExecutionError returns the ExecutionError in err's chain. Other errors are
// wrapped as runtime errors carrying their message.
func AsExecutionError(err error) *ExecutionError {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}
	return &ExecutionError{Value: err.Error(), Kind: ErrRuntime, Cause: err}
}
