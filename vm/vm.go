// Package vm executes precompiled Lua 5.2 prototypes.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/uuid"
	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/object"
	"github.com/rs/zerolog"
)

// DefaultMaxCallDepth is the call stack depth at which calls fail with a
// stack overflow error.
const DefaultMaxCallDepth = 1024

// VirtualMachine owns the global table, the library registry and the hooks
// used by one logical execution. It is not safe for concurrent use, but
// independent instances share no state.
type VirtualMachine struct {
	id           string
	globals      *object.Table
	libraries    map[string]*object.Table
	maxCallDepth int
	stdout       io.Writer
	log          zerolog.Logger

	callHook     CallHook
	dispatchHook DispatchHook
	errorHook    ErrorHook

	conventionalPcall bool
}

// New creates a new Virtual Machine.
func New(options ...Option) (*VirtualMachine, error) {
	vm := &VirtualMachine{
		globals:      object.NewTable(),
		libraries:    map[string]*object.Table{},
		maxCallDepth: DefaultMaxCallDepth,
		stdout:       os.Stdout,
		log:          zerolog.Nop(),
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate vm id: %w", err)
	}
	vm.id = id.String()
	for _, opt := range options {
		if err := opt(vm); err != nil {
			return nil, err
		}
	}
	if vm.maxCallDepth < 1 {
		return nil, fmt.Errorf("invalid max call depth %d", vm.maxCallDepth)
	}
	vm.log = vm.log.With().Str("vm_id", vm.id).Logger()
	for name := range vm.libraries {
		vm.log.Debug().Str("library", name).Msg("library registered")
	}
	vm.log.Debug().Int("libraries", len(vm.libraries)).Int("max_call_depth", vm.maxCallDepth).Msg("vm created")
	return vm, nil
}

// ID returns the instance identifier attached to log events.
func (vm *VirtualMachine) ID() string {
	return vm.id
}

// Globals returns the global table.
func (vm *VirtualMachine) Globals() *object.Table {
	return vm.globals
}

// Library returns the registered library table with the given name.
func (vm *VirtualMachine) Library(name string) (*object.Table, bool) {
	lib, ok := vm.libraries[name]
	return lib, ok
}

// ConventionalPcall reports whether pcall should return (true, results...)
// on success instead of (false, false).
func (vm *VirtualMachine) ConventionalPcall() bool {
	return vm.conventionalPcall
}

// Get returns the global with the given name.
func (vm *VirtualMachine) Get(name string) object.Value {
	return vm.globals.GetString(name)
}

// Set assigns a global.
func (vm *VirtualMachine) Set(name string, value object.Value) error {
	return vm.globals.RawSet(object.String(name), value)
}

// Load instantiates the top-level closure of a chunk. The closure's single
// upvalue is its _ENV. A nil env runs the chunk directly against the global
// table; otherwise env falls back to the globals for missing names.
func (vm *VirtualMachine) Load(proto *bytecode.Prototype, env *object.Table) *object.Function {
	if env == nil {
		env = vm.globals
	} else if env != vm.globals && env.Metatable() == nil {
		mt := object.NewTable()
		mt.RawSet(object.String("__index"), vm.globals)
		env.SetMetatable(mt)
	}
	upvalues := make([]*object.Cell, proto.UpvalueCount())
	for i := range upvalues {
		upvalues[i] = object.NewCell(object.Nil)
	}
	if len(upvalues) > 0 {
		upvalues[0].Set(env)
	}
	vm.log.Debug().Str("source", proto.Source()).Int("instructions", proto.InstructionCount()).Msg("chunk loaded")
	return object.NewClosureFunction(object.NewClosure(proto, upvalues))
}

// Run loads proto against the global table and calls it with args.
func (vm *VirtualMachine) Run(proto *bytecode.Prototype, args ...object.Value) ([]object.Value, error) {
	return vm.Call(vm.Load(proto, nil), args...)
}

// Call invokes a callable value from outside any running chunk, on a fresh
// call stack.
func (vm *VirtualMachine) Call(fn object.Value, args ...object.Value) ([]object.Value, error) {
	results, err := vm.call(nil, fn, args)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// captureStack builds a stack trace from the frames on f's call stack,
// innermost first.
func captureStack(f *Frame) []errz.StackFrame {
	var frames []errz.StackFrame
	for cur := f; cur != nil; cur = cur.caller {
		frames = append(frames, errz.StackFrame{
			Function: cur.FunctionName(),
			Location: cur.Location(),
		})
	}
	return frames
}

// locate attaches the throw site to err unless a deeper frame already did.
// Values raised by error() keep their message untouched; error() adds the
// position itself when asked to.
func locate(f *Frame, err error) *errz.ExecutionError {
	execErr := errz.AsExecutionError(err)
	if execErr.Located() {
		return execErr
	}
	execErr.Frame = f
	if execErr.Kind != errz.ErrUser {
		execErr.Location = f.Location()
	}
	execErr.Stack = captureStack(f)
	return execErr
}

// IsExecutionError reports whether err was raised by running Lua code.
func IsExecutionError(err error) bool {
	var execErr *errz.ExecutionError
	return errors.As(err, &execErr)
}
