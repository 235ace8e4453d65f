package vm

import (
	"fmt"
	"io"

	"github.com/nuavm/nua/object"
	"github.com/rs/zerolog"
)

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine) error

// WithGlobals provides global variables with the given names. Values are
// converted with object.FromGo.
func WithGlobals(globals map[string]any) Option {
	return func(vm *VirtualMachine) error {
		for name, value := range globals {
			v, err := object.FromGo(value)
			if err != nil {
				return fmt.Errorf("invalid global %q: %w", name, err)
			}
			if err := vm.globals.RawSet(object.String(name), v); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithLibrary registers a library table under name and exposes it as a
// global. The "string" library is also consulted when strings are indexed.
func WithLibrary(name string, lib *object.Table) Option {
	return func(vm *VirtualMachine) error {
		vm.libraries[name] = lib
		return vm.globals.RawSet(object.String(name), lib)
	}
}

// WithMaxCallDepth sets the call stack depth at which calls fail with a
// stack overflow error. The default is DefaultMaxCallDepth.
func WithMaxCallDepth(depth int) Option {
	return func(vm *VirtualMachine) error {
		vm.maxCallDepth = depth
		return nil
	}
}

// WithStdout sets the writer used by print.
func WithStdout(w io.Writer) Option {
	return func(vm *VirtualMachine) error {
		vm.stdout = w
		return nil
	}
}

// WithLogger sets the logger for VM events. The default discards all
// events.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VirtualMachine) error {
		vm.log = logger
		return nil
	}
}

// WithCallHook installs a hook invoked before every call.
func WithCallHook(hook CallHook) Option {
	return func(vm *VirtualMachine) error {
		vm.callHook = hook
		return nil
	}
}

// WithDispatchHook installs a hook invoked before every instruction
// dispatch. It may substitute the handler.
func WithDispatchHook(hook DispatchHook) Option {
	return func(vm *VirtualMachine) error {
		vm.dispatchHook = hook
		return nil
	}
}

// WithErrorHook installs a hook asked whether to suppress each execution
// error raised inside a frame.
func WithErrorHook(hook ErrorHook) Option {
	return func(vm *VirtualMachine) error {
		vm.errorHook = hook
		return nil
	}
}

// WithConventionalPcall makes pcall return (true, results...) on success.
// By default it returns (false, false).
func WithConventionalPcall() Option {
	return func(vm *VirtualMachine) error {
		vm.conventionalPcall = true
		return nil
	}
}
