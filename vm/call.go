package vm

import (
	"fmt"

	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/object"
)

// notCallableError is the cause attached to failed calls so the CALL
// handler can name the offending variable.
type notCallableError struct {
	value object.Value
}

func (e *notCallableError) Error() string {
	return fmt.Sprintf("attempt to call a %s value", object.TypeOf(e.value))
}

func notCallable(v object.Value) *errz.ExecutionError {
	cause := &notCallableError{value: v}
	return errz.Errorf(errz.ErrType, "%s", cause.Error()).WithCause(cause)
}

// resolveCallable returns the function to run for fn. Tables are callable
// through their __call metamethod, which receives the table as its first
// argument.
func resolveCallable(fn object.Value, args []object.Value) (*object.Function, []object.Value, error) {
	switch fn := fn.(type) {
	case *object.Function:
		return fn, args, nil
	case *object.Table:
		mt := fn.Metatable()
		if mt == nil {
			return nil, nil, object.TypeErrorf("attempt to call a table with no metatable")
		}
		handler, ok := mt.GetString("__call").(*object.Function)
		if !ok {
			return nil, nil, object.TypeErrorf("attempt to call a table with no valid '__call' metamethod")
		}
		callArgs := make([]object.Value, 0, len(args)+1)
		callArgs = append(callArgs, fn)
		callArgs = append(callArgs, args...)
		return handler, callArgs, nil
	default:
		return nil, nil, notCallable(object.OrNil(fn))
	}
}

// call is the single path through which every function invocation runs,
// whether it comes from a CALL instruction, a native function or the host.
// A nil caller starts a fresh call stack.
func (vm *VirtualMachine) call(caller *Frame, fn object.Value, args []object.Value) ([]object.Value, error) {
	if vm.callHook != nil {
		event := &CallEvent{Caller: caller, Callee: fn, Args: args}
		vm.callHook(event)
		caller, fn, args = event.Caller, event.Callee, event.Args
	}
	callee, args, err := resolveCallable(fn, args)
	if err != nil {
		return nil, err
	}
	if caller != nil && caller.depth >= vm.maxCallDepth {
		return nil, errz.Errorf(errz.ErrOverflow, "stack overflow")
	}

	f := newFrame(vm, callee, caller)
	vm.log.Trace().Str("function", f.FunctionName()).Int("depth", f.depth).Int("args", len(args)).Msg("call")

	var results []object.Value
	if callee.IsNative() {
		results, err = callee.Native()(f, args)
	} else {
		f.bindArgs(args)
		results, err = f.execute()
	}
	if err != nil {
		return nil, err
	}
	vm.log.Trace().Str("function", f.FunctionName()).Int("depth", f.depth).Int("results", len(results)).Msg("return")
	return results, nil
}

// bindArgs copies the fixed parameters into the first registers. Extra
// arguments of a vararg function are kept for VARARG.
func (f *Frame) bindArgs(args []object.Value) {
	numParams := f.proto.NumParams()
	for i := 0; i < numParams; i++ {
		f.regs.set(i, argAt(args, i))
	}
	if f.proto.IsVararg() && len(args) > numParams {
		f.varargs = append([]object.Value(nil), args[numParams:]...)
	}
}

func argAt(values []object.Value, i int) object.Value {
	if i < len(values) {
		return object.OrNil(values[i])
	}
	return object.Nil
}
