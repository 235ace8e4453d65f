package object

import "fmt"

// NativeFunc is the signature of functions implemented in Go. The context
// may be nil when the function is invoked outside of a running chunk.
type NativeFunc func(ctx CallContext, args []Value) ([]Value, error)

// Function is a callable value: either a Lua closure or a native function.
type Function struct {
	name    string
	native  NativeFunc
	closure *Closure
}

// NewNativeFunction wraps a Go function as a Lua value.
func NewNativeFunction(name string, fn NativeFunc) *Function {
	return &Function{name: name, native: fn}
}

// NewClosureFunction wraps a closure as a Lua value.
func NewClosureFunction(c *Closure) *Function {
	return &Function{closure: c}
}

func (f *Function) Type() Type { return FUNCTION }

func (f *Function) String() string {
	if f.native != nil {
		return fmt.Sprintf("function: builtin: %p", f)
	}
	return fmt.Sprintf("function: %p", f)
}

func (f *Function) Interface() any { return f }

func (*Function) value() {}

// Name returns the registered name of a native function, or "" for
// closures.
func (f *Function) Name() string { return f.name }

// IsNative reports whether the function is implemented in Go.
func (f *Function) IsNative() bool { return f.native != nil }

// Native returns the Go implementation, or nil for closures.
func (f *Function) Native() NativeFunc { return f.native }

// Closure returns the Lua closure, or nil for native functions.
func (f *Function) Closure() *Closure { return f.closure }

// Equals reports function equality: identity for native functions and
// prototype plus captured cells for closures.
func (f *Function) Equals(other *Function) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil || f.closure == nil || other.closure == nil {
		return false
	}
	return f.closure.Equals(other.closure)
}
