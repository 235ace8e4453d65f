package object

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/errz"
	"github.com/stretchr/testify/require"
)

// nativeCaller is a CallContext that can only call native functions.
type nativeCaller struct {
	out bytes.Buffer
}

func (c *nativeCaller) Call(fn Value, args ...Value) ([]Value, error) {
	f, ok := fn.(*Function)
	if !ok || !f.IsNative() {
		return nil, Errorf("not callable")
	}
	return f.Native()(c, args)
}

func (c *nativeCaller) Where(level int) string { return "" }

func (c *nativeCaller) Stdout() io.Writer { return &c.out }

func TestTypes(t *testing.T) {
	tests := []struct {
		v    Value
		typ  Type
		text string
	}{
		{Nil, NIL, "nil"},
		{True, BOOLEAN, "true"},
		{False, BOOLEAN, "false"},
		{Number(3), NUMBER, "3"},
		{Number(0.1), NUMBER, "0.1"},
		{Number(1e100), NUMBER, "1e+100"},
		{Number(math.Inf(-1)), NUMBER, "-inf"},
		{String("hi"), STRING, "hi"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.typ, tt.v.Type())
		require.Equal(t, tt.text, tt.v.String())
	}
	require.Equal(t, TABLE, NewTable().Type())
	require.Equal(t, NIL, TypeOf(nil))
}

func TestTruthiness(t *testing.T) {
	require.False(t, IsTruthy(Nil))
	require.False(t, IsTruthy(nil))
	require.False(t, IsTruthy(False))
	require.True(t, IsTruthy(Number(0)))
	require.True(t, IsTruthy(String("")))
	require.True(t, IsTruthy(NewTable()))
}

func TestFunctionsAreNeverNil(t *testing.T) {
	fn := NewNativeFunction("f", nil)
	require.False(t, IsNil(fn))
	require.True(t, IsNil(Nil))
	require.True(t, IsNil(nil))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{"  10  ", 10, true},
		{"-2.5", -2.5, true},
		{"1e3", 1000, true},
		{".5", 0.5, true},
		{"0x10", 16, true},
		{"0xA.8", 10.5, true},
		{"0x1p4", 16, true},
		{"-0x1", -1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"inf", 0, false},
		{"nan", 0, false},
		{"1_000", 0, false},
		{"0x", 0, false},
		{"1e", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestArithCoercion(t *testing.T) {
	v, err := Arith(OpAdd, String("10"), Number(5))
	require.NoError(t, err)
	require.Equal(t, Number(15), v)

	_, err = Arith(OpAdd, NewTable(), Number(5))
	require.EqualError(t, err, "attempt to perform arithmetic on a table value")
	var execErr *errz.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, errz.ErrType, execErr.Kind)

	_, err = Arith(OpMul, Number(2), True)
	require.EqualError(t, err, "attempt to perform arithmetic on a boolean value")

	v, err = Arith(OpMod, Number(-5), Number(3))
	require.NoError(t, err)
	require.Equal(t, Number(1), v)

	v, err = Arith(OpPow, Number(2), String("10"))
	require.NoError(t, err)
	require.Equal(t, Number(1024), v)

	v, err = Arith(OpUnm, String("3"), nil)
	require.NoError(t, err)
	require.Equal(t, Number(-3), v)
}

func TestComparison(t *testing.T) {
	lt, err := LessThan(Number(1), Number(2))
	require.NoError(t, err)
	require.True(t, lt)

	_, err = LessThan(Number(1), String("2"))
	require.EqualError(t, err, "attempt to compare number with string")

	_, err = LessThan(NewTable(), NewTable())
	require.EqualError(t, err, "attempt to compare two table values")

	_, err = LessEqual(Nil, Nil)
	require.EqualError(t, err, "attempt to compare two nil values")

	lt, err = LessThan(String("10"), String("9"))
	require.NoError(t, err)
	require.False(t, lt)

	_, err = LessThan(String("a"), String("b"))
	require.EqualError(t, err, "attempt to compare two string values")

	_, err = LessEqual(String("1"), String("x"))
	require.EqualError(t, err, "attempt to compare two string values")

	le, err := LessEqual(Number(3), Number(3))
	require.NoError(t, err)
	require.True(t, le)
}

func TestEquals(t *testing.T) {
	require.True(t, Equals(Number(1), Number(1)))
	require.False(t, Equals(Number(1), String("1")))
	require.True(t, Equals(nil, Nil))
	require.False(t, Equals(NewTable(), NewTable()))

	native := NewNativeFunction("f", nil)
	require.True(t, Equals(native, native))
	require.False(t, Equals(native, NewNativeFunction("f", nil)))

	proto := bytecode.NewPrototype(bytecode.PrototypeParams{})
	cell := NewCell(Number(1))
	a := NewClosureFunction(NewClosure(proto, []*Cell{cell}))
	b := NewClosureFunction(NewClosure(proto, []*Cell{cell}))
	c := NewClosureFunction(NewClosure(proto, []*Cell{NewCell(Number(1))}))
	require.True(t, Equals(a, b))
	require.False(t, Equals(a, c))
}

func TestLen(t *testing.T) {
	n, err := Len(String("héllo"))
	require.NoError(t, err)
	require.Equal(t, 6, n)

	tbl := NewTable()
	require.NoError(t, tbl.RawSet(Number(1), True))
	require.NoError(t, tbl.RawSet(String("x"), True))
	n, err = Len(tbl)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = Len(Number(1))
	require.EqualError(t, err, "attempt to get length of a number value")

	n, err = RawLen(Number(1))
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = RawLen(NewNativeFunction("f", nil))
	require.Error(t, err)

	ud := NewUserdata(NewMapUserdata(map[string]Value{"a": True}, true))
	n, err = Len(ud)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestErrorValue(t *testing.T) {
	require.Equal(t, String("boom"), ErrorValue(Errorf("boom")))
	tbl := NewTable()
	require.Equal(t, Value(tbl), ErrorValue(Raise(tbl)))
	require.Equal(t, Value(Nil), ErrorValue(Raise(nil)))
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{"a": 1, "b": []any{"x", true}})
	require.NoError(t, err)
	tbl := v.(*Table)
	require.Equal(t, Number(1), tbl.GetString("a"))
	list := tbl.GetString("b").(*Table)
	require.Equal(t, String("x"), list.RawGet(Number(1)))
	require.Equal(t, True, list.RawGet(Number(2)))

	_, err = FromGo(struct{}{})
	require.Error(t, err)
}

func TestCell(t *testing.T) {
	var c Cell
	require.Equal(t, Value(Nil), c.Get())
	c.Set(Number(4))
	require.Equal(t, Value(Number(4)), c.Get())
}
