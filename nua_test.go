package nua

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/op"
	"github.com/nuavm/nua/vm"
	"github.com/stretchr/testify/require"
)

func mainChunk(code []bytecode.Instruction, constants []any, children ...*bytecode.Prototype) *bytecode.Prototype {
	lines := make([]int, len(code))
	for i := range lines {
		lines[i] = i + 1
	}
	return bytecode.NewPrototype(bytecode.PrototypeParams{
		Source:       "@main.lua",
		IsVararg:     true,
		MaxStackSize: 4,
		Code:         code,
		Constants:    constants,
		Children:     children,
		Upvalues:     []bytecode.UpvalueDesc{{InStack: true, Index: 0}},
		UpvalueNames: []string{"_ENV"},
		LineInfo:     lines,
	})
}

func encode(t *testing.T, p *bytecode.Prototype) []byte {
	t.Helper()
	data, err := bytecode.Encode(bytecode.DefaultHeader(), p)
	require.NoError(t, err)
	return data
}

// return <name>
func returnGlobal(name string) *bytecode.Prototype {
	return mainChunk([]bytecode.Instruction{
		bytecode.ABC(op.GetTabUp, 0, 0, bytecode.RK(0)),
		bytecode.AB(op.Return, 0, 2),
	}, []any{name})
}

func TestExecHelloWorld(t *testing.T) {
	// print("hi")
	chunk := encode(t, mainChunk([]bytecode.Instruction{
		bytecode.ABC(op.GetTabUp, 0, 0, bytecode.RK(0)),
		bytecode.ABx(op.LoadK, 1, 1),
		bytecode.ABC(op.Call, 0, 2, 1),
		bytecode.AB(op.Return, 0, 1),
	}, []any{"print", "hi"}))

	var out bytes.Buffer
	results, err := Exec(chunk, WithVMOptions(vm.WithStdout(&out)))
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, "hi\n", out.String())
}

func TestExecPcall(t *testing.T) {
	// return pcall(function() error("boom") end)
	raiser := bytecode.NewPrototype(bytecode.PrototypeParams{
		Source:       "@main.lua",
		LineDefined:  1,
		MaxStackSize: 2,
		Code: []bytecode.Instruction{
			bytecode.ABC(op.GetTabUp, 0, 0, bytecode.RK(0)),
			bytecode.ABx(op.LoadK, 1, 1),
			bytecode.ABC(op.Call, 0, 2, 1),
			bytecode.AB(op.Return, 0, 1),
		},
		Constants: []any{"error", "boom"},
		Upvalues:  []bytecode.UpvalueDesc{{InStack: false, Index: 0}},
		LineInfo:  []int{1, 1, 1, 1},
	})
	chunk := encode(t, mainChunk([]bytecode.Instruction{
		bytecode.ABC(op.GetTabUp, 0, 0, bytecode.RK(0)),
		bytecode.ABx(op.Closure, 1, 0),
		bytecode.ABC(op.Call, 0, 2, 0),
		bytecode.AB(op.Return, 0, 0),
	}, []any{"pcall"}, raiser))

	results, err := Exec(chunk)
	require.NoError(t, err)
	require.Equal(t, []any{false, "boom"}, results)
}

func TestExecWithGlobals(t *testing.T) {
	results, err := Exec(encode(t, returnGlobal("answer")), WithGlobal("answer", 42))
	require.NoError(t, err)
	require.Equal(t, []any{42.0}, results)

	results, err = Exec(encode(t, returnGlobal("answer")),
		WithGlobals(map[string]any{"answer": 1}),
		WithGlobals(map[string]any{"answer": "two"}))
	require.NoError(t, err)
	require.Equal(t, []any{"two"}, results)
}

func TestExecWithEnv(t *testing.T) {
	chunk := encode(t, returnGlobal("x"))
	results, err := Exec(chunk, WithEnv(map[string]any{"x": "local"}), WithGlobal("x", "global"))
	require.NoError(t, err)
	require.Equal(t, []any{"local"}, results)

	// Missing names fall back to the globals.
	results, err = Exec(encode(t, returnGlobal("y")), WithEnv(map[string]any{"x": 1}), WithGlobal("y", true))
	require.NoError(t, err)
	require.Equal(t, []any{true}, results)
}

func TestExecWithArgs(t *testing.T) {
	// return ...
	chunk := encode(t, mainChunk([]bytecode.Instruction{
		bytecode.AB(op.VarArg, 0, 0),
		bytecode.AB(op.Return, 0, 0),
	}, nil))
	results, err := Exec(chunk, WithArgs(1, "a", nil))
	require.NoError(t, err)
	require.Equal(t, []any{1.0, "a", nil}, results)
}

func TestWithoutDefaultLibraries(t *testing.T) {
	results, err := Exec(encode(t, returnGlobal("type")))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0])

	results, err = Exec(encode(t, returnGlobal("type")), WithoutDefaultLibraries())
	require.NoError(t, err)
	require.Equal(t, []any{nil}, results)
}

func TestStrictHeader(t *testing.T) {
	chunk := encode(t, returnGlobal("x"))
	chunk[4] = 0x51

	results, err := Exec(chunk, WithGlobal("x", 1))
	require.NoError(t, err)
	require.Equal(t, []any{1.0}, results)

	_, err = Exec(chunk, WithStrictHeader())
	require.Error(t, err)
	require.Contains(t, err.Error(), "version mismatch: got 0x51, want 0x52")
}

func TestExecBadChunk(t *testing.T) {
	_, err := Exec([]byte("print('hi')"))
	var formatErr *errz.FormatError
	require.True(t, errors.As(err, &formatErr))
	require.Equal(t, "bad binary chunk: not a precompiled chunk (offset 0)", err.Error())
}

func TestExecRuntimeError(t *testing.T) {
	// missing()
	chunk := encode(t, mainChunk([]bytecode.Instruction{
		bytecode.ABC(op.GetTabUp, 0, 0, bytecode.RK(0)),
		bytecode.ABC(op.Call, 0, 1, 1),
		bytecode.AB(op.Return, 0, 1),
	}, []any{"missing"}))
	_, err := Exec(chunk)
	require.Error(t, err)
	require.True(t, vm.IsExecutionError(err))
	require.Equal(t, "main.lua:2: attempt to call a nil value (global 'missing')", err.Error())
}

func TestRunReusesPrototype(t *testing.T) {
	proto, err := Decode(encode(t, returnGlobal("n")))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		results, err := Run(proto, WithGlobal("n", i))
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, float64(i), results[0].Interface())
	}
}

func TestBuiltins(t *testing.T) {
	builtins := Builtins()
	require.Contains(t, builtins, "pcall")
	require.Contains(t, builtins, "string")
	require.Contains(t, builtins, "unpack")
}

func TestNewVM(t *testing.T) {
	machine, err := NewVM(WithGlobal("x", 1), WithVMOptions(vm.WithMaxCallDepth(0)))
	require.Error(t, err)
	require.Nil(t, machine)

	machine, err = NewVM(WithGlobal("x", 1))
	require.NoError(t, err)
	_, ok := machine.Library("string")
	require.True(t, ok)
	require.Equal(t, 1.0, machine.Get("x").Interface())
}
