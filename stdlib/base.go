package stdlib

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/object"
)

type conventionalPcaller interface {
	ConventionalPcall() bool
}

// Pcall calls its first argument in protected mode. On success it returns
// (false, false), or (true, results...) when the calling context asks for
// the conventional contract. A caught error yields (false, payload).
func Pcall(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	fn, ok := arg(args, 0).(*object.Function)
	if !ok {
		return nil, argError(1, "pcall", "function expected")
	}
	results, err := ctx.Call(fn, args[1:]...)
	if err != nil {
		var execErr *errz.ExecutionError
		if !errors.As(err, &execErr) {
			return nil, err
		}
		return []object.Value{object.False, object.ErrorValue(execErr)}, nil
	}
	if c, ok := ctx.(conventionalPcaller); ok && c.ConventionalPcall() {
		return append([]object.Value{object.True}, results...), nil
	}
	return []object.Value{object.False, object.False}, nil
}

// Error raises its first argument. With a string message and a positive
// level, the position of the function at that level is prepended.
func Error(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	if len(args) == 0 {
		return nil, object.Raise(object.String(""))
	}
	value := object.OrNil(args[0])
	level, err := optInt(args, 1, "error", 0)
	if err != nil {
		return nil, err
	}
	if s, ok := value.(object.String); ok && level > 0 {
		if where := ctx.Where(level); where != "" {
			value = object.String(where + " " + string(s))
		}
	}
	return nil, object.Raise(value)
}

func Assert(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	v, err := checkAny(args, 0, "assert")
	if err != nil {
		return nil, err
	}
	if object.IsTruthy(v) {
		return args, nil
	}
	if len(args) > 1 {
		return nil, object.Raise(args[1])
	}
	return nil, object.Errorf("assertion failed!")
}

func SetMetatable(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "setmetatable")
	if err != nil {
		return nil, err
	}
	var mt *object.Table
	switch v := arg(args, 1).(type) {
	case object.NilType:
	case *object.Table:
		mt = v
	default:
		return nil, argError(2, "setmetatable", "nil or table expected")
	}
	if current := t.Metatable(); current != nil && !object.IsNil(current.GetString("__metatable")) {
		return nil, object.Errorf("cannot change a protected metatable")
	}
	t.SetMetatable(mt)
	return []object.Value{t}, nil
}

func GetMetatable(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, ok := arg(args, 0).(*object.Table)
	if !ok || t.Metatable() == nil {
		return []object.Value{object.Nil}, nil
	}
	mt := t.Metatable()
	if protected := mt.GetString("__metatable"); !object.IsNil(protected) {
		return []object.Value{protected}, nil
	}
	return []object.Value{mt}, nil
}

func Type(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	v, err := checkAny(args, 0, "type")
	if err != nil {
		return nil, err
	}
	return []object.Value{object.String(object.TypeOf(v))}, nil
}

// tostring renders v, honoring a __tostring metamethod.
func tostring(ctx object.CallContext, v object.Value) (object.String, error) {
	if t, ok := v.(*object.Table); ok && t.Metatable() != nil {
		if fn := t.Metatable().GetString("__tostring"); !object.IsNil(fn) {
			results, err := ctx.Call(fn, t)
			if err != nil {
				return "", err
			}
			s, ok := object.ToString(arg(results, 0))
			if !ok {
				return "", object.Errorf("'__tostring' must return a string")
			}
			return s, nil
		}
	}
	return object.String(object.OrNil(v).String()), nil
}

func ToString(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	v, err := checkAny(args, 0, "tostring")
	if err != nil {
		return nil, err
	}
	s, err := tostring(ctx, v)
	if err != nil {
		return nil, err
	}
	return []object.Value{s}, nil
}

func ToNumber(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	v, err := checkAny(args, 0, "tonumber")
	if err != nil {
		return nil, err
	}
	if object.IsNil(arg(args, 1)) {
		if n, ok := object.ToNumber(v); ok {
			return []object.Value{n}, nil
		}
		return []object.Value{object.Nil}, nil
	}
	base, err := checkInt(args, 1, "tonumber")
	if err != nil {
		return nil, err
	}
	if base < 2 || base > 36 {
		return nil, argError(2, "tonumber", "base out of range")
	}
	s, err := checkString(args, 0, "tonumber")
	if err != nil {
		return nil, err
	}
	n, parseErr := strconv.ParseInt(strings.ToLower(strings.TrimSpace(s)), base, 64)
	if parseErr != nil {
		return []object.Value{object.Nil}, nil
	}
	return []object.Value{object.Number(n)}, nil
}

// Print writes its arguments to the context's stdout, separated by tabs.
func Print(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	var sb strings.Builder
	for i, v := range args {
		if i > 0 {
			sb.WriteByte('\t')
		}
		s, err := tostring(ctx, v)
		if err != nil {
			return nil, err
		}
		sb.WriteString(string(s))
	}
	sb.WriteByte('\n')
	if _, err := ctx.Stdout().Write([]byte(sb.String())); err != nil {
		return nil, err
	}
	return nil, nil
}

func RawGet(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "rawget")
	if err != nil {
		return nil, err
	}
	return []object.Value{t.RawGet(arg(args, 1))}, nil
}

func RawSet(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "rawset")
	if err != nil {
		return nil, err
	}
	if err := t.RawSet(arg(args, 1), arg(args, 2)); err != nil {
		return nil, err
	}
	return []object.Value{t}, nil
}

func RawEqual(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	if len(args) < 2 {
		return nil, argError(len(args)+1, "rawequal", "value expected")
	}
	return []object.Value{object.Bool(object.Equals(args[0], args[1]))}, nil
}

func RawLen(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	switch v := arg(args, 0).(type) {
	case *object.Table:
		return []object.Value{object.Number(v.Len())}, nil
	case object.String:
		return []object.Value{object.Number(v.Len())}, nil
	}
	return nil, argError(1, "rawlen", "table or string expected")
}

// Select returns its arguments after index n, or their count when n is "#".
func Select(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	if s, ok := arg(args, 0).(object.String); ok && s == "#" {
		return []object.Value{object.Number(len(args) - 1)}, nil
	}
	n, err := checkInt(args, 0, "select")
	if err != nil {
		return nil, err
	}
	rest := args[1:]
	switch {
	case n < 0:
		n = len(rest) + n
		if n < 0 {
			return nil, argError(1, "select", "index out of range")
		}
	case n == 0:
		return nil, argError(1, "select", "index out of range")
	default:
		n--
	}
	if n >= len(rest) {
		return nil, nil
	}
	return rest[n:], nil
}

func Next(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "next")
	if err != nil {
		return nil, err
	}
	k, v, ok, err := t.Next(arg(args, 1))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []object.Value{object.Nil}, nil
	}
	return []object.Value{k, v}, nil
}

var nextFunction = object.NewNativeFunction("next", Next)

// Pairs returns the next function, the table and nil, unless the table's
// metatable provides __pairs.
func Pairs(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "pairs")
	if err != nil {
		return nil, err
	}
	if mt := t.Metatable(); mt != nil {
		if h := mt.GetString("__pairs"); !object.IsNil(h) {
			results, err := ctx.Call(h, t)
			if err != nil {
				return nil, err
			}
			return []object.Value{arg(results, 0), arg(results, 1), arg(results, 2)}, nil
		}
	}
	return []object.Value{nextFunction, t, object.Nil}, nil
}

var ipairsIterator = object.NewNativeFunction("ipairs_iterator", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "ipairs")
	if err != nil {
		return nil, err
	}
	i, err := checkInt(args, 1, "ipairs")
	if err != nil {
		return nil, err
	}
	i++
	v := t.RawGet(object.Number(i))
	if object.IsNil(v) {
		return []object.Value{object.Nil}, nil
	}
	return []object.Value{object.Number(i), v}, nil
})

// IPairs iterates the array part of a table, stopping at the first nil.
func IPairs(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "ipairs")
	if err != nil {
		return nil, err
	}
	return []object.Value{ipairsIterator, t, object.Number(0)}, nil
}

// Unpack returns t[i], ..., t[j]. By default i is 1 and j is #t.
func Unpack(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	t, err := checkTable(args, 0, "unpack")
	if err != nil {
		return nil, err
	}
	i, err := optInt(args, 1, "unpack", 1)
	if err != nil {
		return nil, err
	}
	j, err := optInt(args, 2, "unpack", t.Len())
	if err != nil {
		return nil, err
	}
	if i > j {
		return nil, nil
	}
	// j >= i, so the unsigned difference cannot wrap
	n := uint64(j) - uint64(i)
	if n >= 1<<20 {
		return nil, object.Errorf("too many results to unpack")
	}
	results := make([]object.Value, 0, n+1)
	for k := uint64(0); k <= n; k++ {
		results = append(results, t.RawGet(object.Number(i+int(k))))
	}
	return results, nil
}
