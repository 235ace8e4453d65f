package object

import "github.com/nuavm/nua/errz"

// TypeErrorf returns an execution error for an operation applied to a value
// of the wrong type.
func TypeErrorf(format string, args ...any) *errz.ExecutionError {
	return errz.Errorf(errz.ErrType, format, args...)
}

// Errorf returns a runtime execution error with a string payload.
func Errorf(format string, args ...any) *errz.ExecutionError {
	return errz.Errorf(errz.ErrRuntime, format, args...)
}

// Raise returns an execution error carrying v as its payload, as error(v)
// does.
func Raise(v Value) *errz.ExecutionError {
	return errz.Raise(OrNil(v))
}

// ErrorValue extracts the Lua value carried by err. String payloads become
// Lua strings.
func ErrorValue(err error) Value {
	execErr := errz.AsExecutionError(err)
	switch v := execErr.Value.(type) {
	case Value:
		return v
	case string:
		return String(v)
	case nil:
		return Nil
	default:
		val, convErr := FromGo(v)
		if convErr != nil {
			return String(execErr.Message())
		}
		return val
	}
}
