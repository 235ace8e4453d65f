package stdlib_test

import (
	"math"
	"strings"
	"testing"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/object"
	"github.com/nuavm/nua/op"
	"github.com/stretchr/testify/require"
)

func TestStringFunctions(t *testing.T) {
	machine := newMachine(t)
	tests := []struct {
		name string
		args []any
		want []any
	}{
		{"string.sub", []any{"hello", 2, 4}, []any{"ell"}},
		{"string.sub", []any{"hello", 2}, []any{"ello"}},
		{"string.sub", []any{"hello", -3}, []any{"llo"}},
		{"string.sub", []any{"hello", 0, 100}, []any{"hello"}},
		{"string.sub", []any{"hello", 4, 2}, []any{""}},
		{"string.byte", []any{"ABC"}, []any{65}},
		{"string.byte", []any{"ABC", 2, 3}, []any{66, 67}},
		{"string.byte", []any{"ABC", -1}, []any{67}},
		{"string.char", []any{72, 105}, []any{"Hi"}},
		{"string.char", []any{}, []any{""}},
		{"string.rep", []any{"ab", 3}, []any{"ababab"}},
		{"string.rep", []any{"ab", 3, ","}, []any{"ab,ab,ab"}},
		{"string.rep", []any{"ab", 0}, []any{""}},
		{"string.len", []any{"héllo"}, []any{6}},
		{"string.len", []any{12}, []any{2}},
		{"string.rep", []any{"", 3, ""}, []any{""}},
		{"string.upper", []any{"abc"}, []any{"ABC"}},
		{"string.upper", []any{"héllo\xff"}, []any{"HéLLO\xff"}},
		{"string.lower", []any{"ABC"}, []any{"abc"}},
		{"string.lower", []any{"ÀB\xc3"}, []any{"Àb\xc3"}},
		{"string.reverse", []any{"abc"}, []any{"cba"}},
		{"string.gsub", []any{"hello world", "o", "0"}, []any{"hell0 w0rld", 2}},
		{"string.gsub", []any{"hello world", "o", "0", 1}, []any{"hell0 world", 1}},
		{"string.gsub", []any{"hello world", "(\\w+)", "<%1>"}, []any{"<hello> <world>", 2}},
		{"string.gsub", []any{"abc", "x", "y"}, []any{"abc", 0}},
		{"string.gsub", []any{"50%", "%", "%%%%"}, []any{"50%%", 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := mustCall(t, machine, tt.name, values(tt.args...)...)
			require.Equal(t, values(tt.want...), results)
		})
	}
}

func TestStringErrors(t *testing.T) {
	machine := newMachine(t)
	_, err := call(t, machine, "string.sub", object.NewTable(), object.Number(1))
	require.EqualError(t, err, "bad argument #1 to 'sub' (string expected, got table)")
	_, err = call(t, machine, "string.sub", object.String("x"))
	require.EqualError(t, err, "bad argument #2 to 'sub' (number expected, got no value)")
	_, err = call(t, machine, "string.char", object.Number(256))
	require.EqualError(t, err, "bad argument #1 to 'char' (value out of range)")
	_, err = call(t, machine, "string.gsub", object.String("x"), object.String("("), object.String(""))
	require.EqualError(t, err, "bad argument #2 to 'gsub' (invalid pattern)")
	_, err = call(t, machine, "string.gsub", object.String("x"), object.String("x"), object.True)
	require.EqualError(t, err, "bad argument #3 to 'gsub' (string/function/table expected, got boolean)")
	_, err = call(t, machine, "string.gsub", object.String("x"), object.String("x"), object.String("%9"))
	require.EqualError(t, err, "invalid capture index %9")
}

func TestRepLimits(t *testing.T) {
	machine := newMachine(t)
	results := mustCall(t, machine, "string.rep", object.String(""), object.Number(math.Ldexp(1, 50)))
	require.Equal(t, values(""), results)

	_, err := call(t, machine, "string.rep", object.String("ab"), object.Number(math.Ldexp(1, 62)))
	require.EqualError(t, err, "resulting string too large")
	_, err = call(t, machine, "string.rep", object.String("a"), object.Number(math.Inf(1)), object.String(","))
	require.EqualError(t, err, "resulting string too large")

	results = mustCall(t, machine, "string.rep", object.String("xy"), object.Number(1000))
	require.Equal(t, values(strings.Repeat("xy", 1000)), results)
}

func TestGSubWithTableAndFunction(t *testing.T) {
	machine := newMachine(t)
	lookupTable := object.NewTableFromMap(map[string]object.Value{
		"name": object.String("nua"),
	})
	results := mustCall(t, machine, "string.gsub", object.String("$name is $unknown"), object.String(`\$(\w+)`), lookupTable)
	require.Equal(t, values("nua is $unknown", 2), results)

	upper := object.NewNativeFunction("upper", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
		return values(strings.ToUpper(args[0].String())), nil
	})
	results = mustCall(t, machine, "string.gsub", object.String("a-b"), object.String(`\w`), upper)
	require.Equal(t, values("A-B", 2), results)

	bad := object.NewNativeFunction("bad", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
		return []object.Value{object.NewTable()}, nil
	})
	_, err := call(t, machine, "string.gsub", object.String("a"), object.String("a"), bad)
	require.EqualError(t, err, "invalid replacement value (a table)")
}

func TestStringMethodThroughVM(t *testing.T) {
	// return ("x"):rep(3)
	proto := chunk([]bytecode.Instruction{
		bytecode.ABx(op.LoadK, 0, 0),
		bytecode.ABC(op.Self, 0, 0, bytecode.RK(1)),
		bytecode.ABx(op.LoadK, 2, 2),
		bytecode.ABC(op.Call, 0, 3, 2),
		bytecode.AB(op.Return, 0, 2),
	}, []any{"x", "rep", 3})
	results, err := newMachine(t).Run(proto)
	require.NoError(t, err)
	require.Equal(t, values("xxx"), results)

	// return ("x").sub
	proto = chunk([]bytecode.Instruction{
		bytecode.ABx(op.LoadK, 0, 0),
		bytecode.ABC(op.GetTable, 0, 0, bytecode.RK(1)),
		bytecode.AB(op.Return, 0, 2),
	}, []any{"x", "sub"})
	machine := newMachine(t)
	results, err = machine.Run(proto)
	require.NoError(t, err)
	require.Same(t, lookup(t, machine, "string.sub"), results[0])
}
