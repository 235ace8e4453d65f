// Package object provides the runtime values manipulated by the nua virtual
// machine.
//
// Value is a closed sum type. A type switch over its variants is exhaustive:
//
//	switch v := v.(type) {
//	case object.NilType:
//	case object.Bool:
//	case object.Number:
//	case object.String:
//	case *object.Function:
//	case *object.Table:
//	case *object.Userdata:
//	}
//
// The Type() method of each value returns the Lua type name, such as
// "string" or "table".
package object

import (
	"fmt"
	"io"
)

// Type of a value as a string.
type Type string

// Type constants
const (
	NIL      Type = "nil"
	BOOLEAN  Type = "boolean"
	NUMBER   Type = "number"
	STRING   Type = "string"
	FUNCTION Type = "function"
	TABLE    Type = "table"
	USERDATA Type = "userdata"
)

var (
	Nil   = NilType{}
	True  = Bool(true)
	False = Bool(false)
)

// Value is the interface implemented by every Lua runtime value.
type Value interface {
	// Type of the value.
	Type() Type

	// String returns the value as tostring() would render it.
	String() string

	// Interface converts the value to a native Go value.
	Interface() any

	value()
}

// CallContext is the calling context handed to native functions and to
// table operations that may trigger metamethods. It may be nil.
type CallContext interface {
	// Call invokes a callable value with the given arguments.
	Call(fn Value, args ...Value) ([]Value, error)

	// Where returns the "source:line:" position of the function at the given
	// level of the call stack, or "" when unknown. Level 1 is the function
	// that called the native.
	Where(level int) string

	// Stdout returns the writer used by print.
	Stdout() io.Writer
}

// NilType is the type of the nil value.
type NilType struct{}

func (NilType) Type() Type { return NIL }
func (NilType) String() string { return "nil" }
func (NilType) Interface() any { return nil }
func (NilType) value() {}

// Bool is a boolean value.
type Bool bool

func (b Bool) Type() Type { return BOOLEAN }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (b Bool) Interface() any { return bool(b) }
func (Bool) value() {}

// IsNil reports whether v is nil. A Go nil interface is treated as Lua nil.
// Function values are never nil.
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NilType)
	return ok
}

// IsTruthy reports whether v counts as true in a condition. Only nil and
// false are falsy.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case nil, NilType:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// TypeOf returns the type name of v, treating a Go nil as Lua nil.
func TypeOf(v Value) Type {
	if v == nil {
		return NIL
	}
	return v.Type()
}

// OrNil returns v, or Nil when v is a Go nil.
func OrNil(v Value) Value {
	if v == nil {
		return Nil
	}
	return v
}

// Equals compares two values the way the EQ instruction does. Nil, booleans,
// numbers and strings compare by value; tables and userdata by identity.
// Closures are equal when they share a prototype and the same captured
// cells; native functions only equal themselves.
func Equals(a, b Value) bool {
	a, b = OrNil(a), OrNil(b)
	if fa, ok := a.(*Function); ok {
		fb, ok := b.(*Function)
		return ok && fa.Equals(fb)
	}
	return a == b
}

// FromGo converts a Go value to a Lua value. Unsupported types yield an
// error.
func FromGo(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Nil, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Number(v), nil
	case int64:
		return Number(v), nil
	case float64:
		return Number(v), nil
	case string:
		return String(v), nil
	case map[string]any:
		t := NewTable()
		for k, item := range v {
			val, err := FromGo(item)
			if err != nil {
				return nil, err
			}
			if err := t.RawSet(String(k), val); err != nil {
				return nil, err
			}
		}
		return t, nil
	case []any:
		t := NewTable()
		for i, item := range v {
			val, err := FromGo(item)
			if err != nil {
				return nil, err
			}
			if err := t.RawSet(Number(i+1), val); err != nil {
				return nil, err
			}
		}
		return t, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to a Lua value", v)
	}
}
