// Package stdlib defines the default global functions and the string library
// made available to chunks.
package stdlib

import (
	"fmt"
	"math"

	"github.com/nuavm/nua/object"
)

// Libraries returns fresh library tables keyed by library name.
func Libraries() map[string]*object.Table {
	return map[string]*object.Table{
		"string": StringLibrary(),
	}
}

// Globals returns the default global functions.
func Globals() map[string]object.Value {
	return map[string]object.Value{
		"assert":       object.NewNativeFunction("assert", Assert),
		"error":        object.NewNativeFunction("error", Error),
		"getmetatable": object.NewNativeFunction("getmetatable", GetMetatable),
		"ipairs":       object.NewNativeFunction("ipairs", IPairs),
		"next":         object.NewNativeFunction("next", Next),
		"pairs":        object.NewNativeFunction("pairs", Pairs),
		"pcall":        object.NewNativeFunction("pcall", Pcall),
		"print":        object.NewNativeFunction("print", Print),
		"rawequal":     object.NewNativeFunction("rawequal", RawEqual),
		"rawget":       object.NewNativeFunction("rawget", RawGet),
		"rawlen":       object.NewNativeFunction("rawlen", RawLen),
		"rawset":       object.NewNativeFunction("rawset", RawSet),
		"select":       object.NewNativeFunction("select", Select),
		"setmetatable": object.NewNativeFunction("setmetatable", SetMetatable),
		"tonumber":     object.NewNativeFunction("tonumber", ToNumber),
		"tostring":     object.NewNativeFunction("tostring", ToString),
		"type":         object.NewNativeFunction("type", Type),
		"unpack":       object.NewNativeFunction("unpack", Unpack),
	}
}

func argError(n int, fname, msg string) error {
	return object.Errorf("bad argument #%d to '%s' (%s)", n, fname, msg)
}

func typeName(args []object.Value, i int) string {
	if i >= len(args) {
		return "no value"
	}
	return string(object.TypeOf(args[i]))
}

func expected(args []object.Value, i int, fname string, what object.Type) error {
	return argError(i+1, fname, fmt.Sprintf("%s expected, got %s", what, typeName(args, i)))
}

func arg(args []object.Value, i int) object.Value {
	if i < len(args) {
		return object.OrNil(args[i])
	}
	return object.Nil
}

func checkAny(args []object.Value, i int, fname string) (object.Value, error) {
	if i >= len(args) {
		return nil, argError(i+1, fname, "value expected")
	}
	return object.OrNil(args[i]), nil
}

func checkTable(args []object.Value, i int, fname string) (*object.Table, error) {
	if t, ok := arg(args, i).(*object.Table); ok {
		return t, nil
	}
	return nil, expected(args, i, fname, object.TABLE)
}

func checkString(args []object.Value, i int, fname string) (string, error) {
	if s, ok := object.ToString(arg(args, i)); ok {
		return string(s), nil
	}
	return "", expected(args, i, fname, object.STRING)
}

func checkInt(args []object.Value, i int, fname string) (int, error) {
	if n, ok := object.ToNumber(arg(args, i)); ok {
		switch f := float64(n); {
		case math.IsNaN(f):
			return 0, nil
		case f >= math.MaxInt:
			return math.MaxInt, nil
		case f <= math.MinInt:
			return math.MinInt, nil
		default:
			return int(f), nil
		}
	}
	return 0, expected(args, i, fname, object.NUMBER)
}

func optInt(args []object.Value, i int, fname string, def int) (int, error) {
	if object.IsNil(arg(args, i)) {
		return def, nil
	}
	return checkInt(args, i, fname)
}
