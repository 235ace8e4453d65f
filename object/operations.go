package object

import (
	"math"
)

// ArithOp identifies an arithmetic operation.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpUnm
)

// Arith applies op to a and b after arithmetic coercion. For OpUnm b is
// ignored. The error names the first operand that is not coercible.
func Arith(op ArithOp, a, b Value) (Value, error) {
	x, ok := ToNumber(a)
	if !ok {
		return nil, TypeErrorf("attempt to perform arithmetic on a %s value", TypeOf(a))
	}
	if op == OpUnm {
		return -x, nil
	}
	y, ok := ToNumber(b)
	if !ok {
		return nil, TypeErrorf("attempt to perform arithmetic on a %s value", TypeOf(b))
	}
	return Number(arith(op, float64(x), float64(y))), nil
}

func arith(op ArithOp, x, y float64) float64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	case OpMod:
		return x - math.Floor(x/y)*y
	case OpPow:
		return math.Pow(x, y)
	}
	return math.NaN()
}

// LessThan implements the < operator.
func LessThan(a, b Value) (bool, error) {
	return compare(a, b, func(c int) bool { return c < 0 })
}

// LessEqual implements the <= operator.
func LessEqual(a, b Value) (bool, error) {
	return compare(a, b, func(c int) bool { return c <= 0 })
}

// compare orders two values of the same type. Numbers compare numerically.
// Strings compare numerically when both are numerals. Any other pair is an
// error, strings included.
func compare(a, b Value, test func(int) bool) (bool, error) {
	ta, tb := TypeOf(a), TypeOf(b)
	if ta != tb {
		return false, TypeErrorf("attempt to compare %s with %s", ta, tb)
	}
	switch x := a.(type) {
	case Number:
		y := b.(Number)
		// NaN is unordered
		if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
			return false, nil
		}
		return test(cmpFloat(float64(x), float64(y))), nil
	case String:
		y := b.(String)
		fx, okx := ParseNumber(string(x))
		fy, oky := ParseNumber(string(y))
		if okx && oky {
			if math.IsNaN(fx) || math.IsNaN(fy) {
				return false, nil
			}
			return test(cmpFloat(fx, fy)), nil
		}
	}
	return false, TypeErrorf("attempt to compare two %s values", ta)
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Len returns the length of v as the # operator sees it: bytes for strings,
// entry count for tables and the host-defined length for userdata. Other
// values have no length.
func Len(v Value) (int, error) {
	switch v := v.(type) {
	case String:
		return len(v), nil
	case *Table:
		return v.Len(), nil
	case *Userdata:
		return v.Len(), nil
	}
	return 0, TypeErrorf("attempt to get length of a %s value", TypeOf(v))
}

// RawLen returns the length of any value. Nil, booleans and numbers have
// length 0; functions have none.
func RawLen(v Value) (int, error) {
	switch v.(type) {
	case nil, NilType, Bool, Number:
		return 0, nil
	}
	return Len(v)
}
