package stdlib_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/object"
	"github.com/nuavm/nua/op"
	"github.com/nuavm/nua/stdlib"
	"github.com/nuavm/nua/vm"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T, opts ...vm.Option) *vm.VirtualMachine {
	t.Helper()
	globals := map[string]any{}
	for name, fn := range stdlib.Globals() {
		globals[name] = fn
	}
	all := []vm.Option{vm.WithGlobals(globals)}
	for name, lib := range stdlib.Libraries() {
		all = append(all, vm.WithLibrary(name, lib))
	}
	machine, err := vm.New(append(all, opts...)...)
	require.NoError(t, err)
	return machine
}

// lookup resolves "name" or "lib.name" in the machine's globals.
func lookup(t *testing.T, machine *vm.VirtualMachine, name string) object.Value {
	t.Helper()
	if lib, fn, ok := strings.Cut(name, "."); ok {
		table, found := machine.Library(lib)
		require.True(t, found, "library %s", lib)
		return table.GetString(fn)
	}
	return machine.Get(name)
}

func call(t *testing.T, machine *vm.VirtualMachine, name string, args ...object.Value) ([]object.Value, error) {
	t.Helper()
	return machine.Call(lookup(t, machine, name), args...)
}

func mustCall(t *testing.T, machine *vm.VirtualMachine, name string, args ...object.Value) []object.Value {
	t.Helper()
	results, err := call(t, machine, name, args...)
	require.NoError(t, err)
	return results
}

func values(vs ...any) []object.Value {
	result := make([]object.Value, len(vs))
	for i, v := range vs {
		val, err := object.FromGo(v)
		if err != nil {
			panic(err)
		}
		result[i] = val
	}
	return result
}

func chunk(code []bytecode.Instruction, constants []any, children ...*bytecode.Prototype) *bytecode.Prototype {
	lines := make([]int, len(code))
	for i := range lines {
		lines[i] = i + 1
	}
	return bytecode.NewPrototype(bytecode.PrototypeParams{
		Source:       "@test.lua",
		IsVararg:     true,
		MaxStackSize: 8,
		Code:         code,
		Constants:    constants,
		Children:     children,
		Upvalues:     []bytecode.UpvalueDesc{{InStack: true, Index: 0}},
		UpvalueNames: []string{"_ENV"},
		LineInfo:     lines,
	})
}

// function(...) <name>(<message>, <level>) end
func raiser(name string, message any, level int) *bytecode.Prototype {
	return bytecode.NewPrototype(bytecode.PrototypeParams{
		Source:       "@test.lua",
		LineDefined:  1,
		MaxStackSize: 4,
		Code: []bytecode.Instruction{
			bytecode.ABC(op.GetTabUp, 0, 0, bytecode.RK(0)),
			bytecode.ABx(op.LoadK, 1, 1),
			bytecode.ABx(op.LoadK, 2, 2),
			bytecode.ABC(op.Call, 0, 3, 1),
			bytecode.AB(op.Return, 0, 1),
		},
		Constants:    []any{name, message, level},
		Upvalues:     []bytecode.UpvalueDesc{{InStack: false, Index: 0}},
		UpvalueNames: []string{"_ENV"},
		LineInfo:     []int{2, 2, 2, 3, 4},
	})
}

// return pcall(fn)
func pcallChunk(fn *bytecode.Prototype) *bytecode.Prototype {
	return chunk([]bytecode.Instruction{
		bytecode.ABC(op.GetTabUp, 0, 0, bytecode.RK(0)),
		bytecode.ABx(op.Closure, 1, 0),
		bytecode.ABC(op.TailCall, 0, 2, 0),
		bytecode.AB(op.Return, 0, 0),
	}, []any{"pcall"}, fn)
}

func TestPcallCapturesError(t *testing.T) {
	results, err := newMachine(t).Run(pcallChunk(raiser("error", "boom", 0)))
	require.NoError(t, err)
	require.Equal(t, values(false, "boom"), results)
}

func TestPcallCapturesRaisedTable(t *testing.T) {
	payload := object.NewTable()
	machine := newMachine(t)
	fail := object.NewNativeFunction("fail", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
		return nil, object.Raise(payload)
	})
	results := mustCall(t, machine, "pcall", fail)
	require.Equal(t, object.Value(object.False), results[0])
	require.Same(t, payload, results[1])
}

func TestPcallErrorLevel(t *testing.T) {
	results, err := newMachine(t).Run(pcallChunk(raiser("error", "boom", 1)))
	require.NoError(t, err)
	require.Equal(t, values(false, "test.lua:3: boom"), results)
}

func TestPcallRuntimeError(t *testing.T) {
	// pcall(function() undefined() end)
	results, err := newMachine(t).Run(pcallChunk(raiser("undefined", "x", 0)))
	require.NoError(t, err)
	require.Equal(t, values(false, "attempt to call a nil value (global 'undefined')"), results)
}

func TestPcallSuccess(t *testing.T) {
	ok := object.NewNativeFunction("ok", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
		return values(1, 2), nil
	})
	results := mustCall(t, newMachine(t), "pcall", ok)
	require.Equal(t, values(false, false), results)

	results = mustCall(t, newMachine(t, vm.WithConventionalPcall()), "pcall", ok)
	require.Equal(t, values(true, 1, 2), results)
}

func TestPcallRequiresFunction(t *testing.T) {
	_, err := call(t, newMachine(t), "pcall", object.Number(1))
	require.EqualError(t, err, "bad argument #1 to 'pcall' (function expected)")
	_, err = call(t, newMachine(t), "pcall")
	require.EqualError(t, err, "bad argument #1 to 'pcall' (function expected)")
}

func TestPcallCatchesStackOverflow(t *testing.T) {
	machine := newMachine(t, vm.WithMaxCallDepth(3))
	var recurse *object.Function
	recurse = object.NewNativeFunction("recurse", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
		return ctx.Call(recurse)
	})
	results := mustCall(t, machine, "pcall", recurse)
	require.Equal(t, values(false, "stack overflow"), results)
}

func TestErrorWithoutArguments(t *testing.T) {
	_, err := call(t, newMachine(t), "error")
	require.Error(t, err)
	require.Equal(t, object.Value(object.String("")), object.ErrorValue(err))
}

func TestMetatables(t *testing.T) {
	machine := newMachine(t)
	tbl, mt := object.NewTable(), object.NewTable()
	require.Equal(t, []object.Value{tbl}, mustCall(t, machine, "setmetatable", tbl, mt))
	require.Same(t, mt, mustCall(t, machine, "getmetatable", tbl)[0])
	require.Equal(t, values(nil), mustCall(t, machine, "getmetatable", object.String("x")))

	_, err := call(t, machine, "setmetatable", object.Number(1), mt)
	require.EqualError(t, err, "bad argument #1 to 'setmetatable' (table expected, got number)")
	_, err = call(t, machine, "setmetatable", tbl, object.Number(1))
	require.EqualError(t, err, "bad argument #2 to 'setmetatable' (nil or table expected)")

	require.NoError(t, mt.RawSet(object.String("__metatable"), object.String("locked")))
	require.Equal(t, values("locked"), mustCall(t, machine, "getmetatable", tbl))
	_, err = call(t, machine, "setmetatable", tbl, object.Nil)
	require.EqualError(t, err, "cannot change a protected metatable")
}

func TestTypeAndConversions(t *testing.T) {
	machine := newMachine(t)
	require.Equal(t, values("number"), mustCall(t, machine, "type", object.Number(1)))
	require.Equal(t, values("nil"), mustCall(t, machine, "type", object.Nil))
	require.Equal(t, values("function"), mustCall(t, machine, "type", lookup(t, machine, "type")))
	_, err := call(t, machine, "type")
	require.EqualError(t, err, "bad argument #1 to 'type' (value expected)")

	require.Equal(t, values("1.5"), mustCall(t, machine, "tostring", object.Number(1.5)))
	require.Equal(t, values("nil"), mustCall(t, machine, "tostring", object.Nil))
	require.Equal(t, values(16), mustCall(t, machine, "tonumber", object.String("0x10")))
	require.Equal(t, values(nil), mustCall(t, machine, "tonumber", object.String("abc")))
	require.Equal(t, values(255), mustCall(t, machine, "tonumber", object.String("ff"), object.Number(16)))
	require.Equal(t, values(5), mustCall(t, machine, "tonumber", object.String("101"), object.Number(2)))
	_, err = call(t, machine, "tonumber", object.String("1"), object.Number(99))
	require.EqualError(t, err, "bad argument #2 to 'tonumber' (base out of range)")
}

func TestToStringMetamethod(t *testing.T) {
	machine := newMachine(t)
	tbl, mt := object.NewTable(), object.NewTable()
	require.NoError(t, mt.RawSet(object.String("__tostring"), object.NewNativeFunction("ts", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
		return values("custom"), nil
	})))
	tbl.SetMetatable(mt)
	require.Equal(t, values("custom"), mustCall(t, machine, "tostring", tbl))
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	machine := newMachine(t, vm.WithStdout(&out))
	mustCall(t, machine, "print", object.String("a"), object.Number(1), object.Nil, object.True)
	mustCall(t, machine, "print")
	require.Equal(t, "a\t1\tnil\ttrue\n\n", out.String())
}

func TestRawAccess(t *testing.T) {
	machine := newMachine(t)
	tbl := object.NewTable()
	mustCall(t, machine, "rawset", tbl, object.String("k"), object.Number(1))
	require.Equal(t, values(1), mustCall(t, machine, "rawget", tbl, object.String("k")))
	require.Equal(t, values(1), mustCall(t, machine, "rawlen", tbl))
	require.Equal(t, values(3), mustCall(t, machine, "rawlen", object.String("abc")))
	require.Equal(t, values(true), mustCall(t, machine, "rawequal", tbl, tbl))
	require.Equal(t, values(false), mustCall(t, machine, "rawequal", tbl, object.NewTable()))
	_, err := call(t, machine, "rawlen", object.Number(1))
	require.EqualError(t, err, "bad argument #1 to 'rawlen' (table or string expected)")
}

func TestSelect(t *testing.T) {
	machine := newMachine(t)
	args := values("#", "a", "b", "c")
	require.Equal(t, values(3), mustCall(t, machine, "select", args...))
	args[0] = object.Number(2)
	require.Equal(t, values("b", "c"), mustCall(t, machine, "select", args...))
	args[0] = object.Number(-1)
	require.Equal(t, values("c"), mustCall(t, machine, "select", args...))
	args[0] = object.Number(5)
	require.Empty(t, mustCall(t, machine, "select", args...))
	args[0] = object.Number(-5)
	_, err := call(t, machine, "select", args...)
	require.EqualError(t, err, "bad argument #1 to 'select' (index out of range)")
}

func TestAssert(t *testing.T) {
	machine := newMachine(t)
	require.Equal(t, values(1, "msg"), mustCall(t, machine, "assert", object.Number(1), object.String("msg")))
	_, err := call(t, machine, "assert", object.False)
	require.EqualError(t, err, "assertion failed!")
	_, err = call(t, machine, "assert", object.Nil, object.String("custom"))
	require.EqualError(t, err, "custom")
}

func TestIteration(t *testing.T) {
	machine := newMachine(t)
	v, err := object.FromGo([]any{"a", "b", "c"})
	require.NoError(t, err)
	list := v.(*object.Table)

	results := mustCall(t, machine, "pairs", list)
	require.Len(t, results, 3)
	require.Same(t, list, results[1])
	require.Equal(t, object.Value(object.Nil), results[2])
	require.Equal(t, values(1, "a"), mustCall(t, machine, "next", list))
	require.Equal(t, values(2, "b"), mustCall(t, machine, "next", list, object.Number(1)))
	require.Equal(t, values(nil), mustCall(t, machine, "next", list, object.Number(3)))

	results = mustCall(t, machine, "ipairs", list)
	iter := results[0]
	step, err := machine.Call(iter, list, object.Number(0))
	require.NoError(t, err)
	require.Equal(t, values(1, "a"), step)
	step, err = machine.Call(iter, list, object.Number(3))
	require.NoError(t, err)
	require.Equal(t, values(nil), step)

	require.Equal(t, values("a", "b", "c"), mustCall(t, machine, "unpack", list))
	require.Equal(t, values("b", "c"), mustCall(t, machine, "unpack", list, object.Number(2)))
	require.Equal(t, values("a", "b", "c", nil), mustCall(t, machine, "unpack", list, object.Number(1), object.Number(4)))
}

func TestUnpackLimits(t *testing.T) {
	machine := newMachine(t)
	huge := math.Ldexp(1, 62)
	_, err := call(t, machine, "unpack", object.NewTable(), object.Number(-huge), object.Number(huge))
	require.EqualError(t, err, "too many results to unpack")
	_, err = call(t, machine, "unpack", object.NewTable(), object.Number(0), object.Number(math.Inf(1)))
	require.EqualError(t, err, "too many results to unpack")

	// both bounds clamp to the largest int without wrapping around
	results := mustCall(t, machine, "unpack", object.NewTable(), object.Number(math.Ldexp(1, 63)), object.Number(math.Inf(1)))
	require.Equal(t, values(nil), results)
}

func TestPairsMetamethod(t *testing.T) {
	machine := newMachine(t)
	tbl, mt := object.NewTable(), object.NewTable()
	custom := object.NewNativeFunction("custom", func(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
		return values("iter", "state", 0), nil
	})
	require.NoError(t, mt.RawSet(object.String("__pairs"), custom))
	tbl.SetMetatable(mt)
	require.Equal(t, values("iter", "state", 0), mustCall(t, machine, "pairs", tbl))
}

func TestGenericForWithPairs(t *testing.T) {
	// local s = 0; for k, v in pairs(t) do s = s + v end; return s
	proto := chunk([]bytecode.Instruction{
		bytecode.ABx(op.LoadK, 0, 0),
		bytecode.ABC(op.GetTabUp, 1, 0, bytecode.RK(1)),
		bytecode.ABC(op.GetTabUp, 2, 0, bytecode.RK(2)),
		bytecode.ABC(op.Call, 1, 2, 4),
		bytecode.AsBx(op.Jmp, 0, 1),
		bytecode.ABC(op.Add, 0, 0, 5),
		bytecode.AC(op.TForCall, 1, 2),
		bytecode.AsBx(op.TForLoop, 3, -3),
		bytecode.AB(op.Return, 0, 2),
	}, []any{0, "pairs", "t"})
	machine := newMachine(t, vm.WithGlobals(map[string]any{
		"t": map[string]any{"a": 1, "b": 2, "c": 3},
	}))
	results, err := machine.Run(proto)
	require.NoError(t, err)
	require.Equal(t, values(6), results)
}
