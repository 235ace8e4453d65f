// Package nua loads and runs precompiled Lua 5.2 chunks.
//
// The simplest entry point is Exec, which decodes a binary chunk, creates a
// virtual machine with the default libraries and runs the chunk:
//
//	results, err := nua.Exec(chunk, nua.WithGlobal("name", "world"))
//
// Decode and Run split the same work in two steps so that a decoded
// prototype can be run many times.
package nua

import (
	"fmt"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/object"
	"github.com/nuavm/nua/stdlib"
	"github.com/nuavm/nua/vm"
)

// Builtins returns the default global functions and library tables, keyed
// by the global name they are installed under.
func Builtins() map[string]any {
	env := map[string]any{}
	for name, fn := range stdlib.Globals() {
		env[name] = fn
	}
	for name, lib := range stdlib.Libraries() {
		env[name] = lib
	}
	return env
}

// Decode parses a binary chunk and returns its top-level prototype. With
// WithStrictHeader every header field is validated as well.
func Decode(chunk []byte, opts ...Option) (*bytecode.Prototype, error) {
	cfg := newConfig(opts...)
	header, proto, err := bytecode.Decode(chunk)
	if err != nil {
		return nil, err
	}
	if cfg.strictHeader {
		if err := header.Validate(); err != nil {
			return nil, fmt.Errorf("invalid chunk header: %w", err)
		}
	}
	return proto, nil
}

// NewVM creates a virtual machine configured by opts.
func NewVM(opts ...Option) (*vm.VirtualMachine, error) {
	return newConfig(opts...).newVM()
}

// Run executes a decoded prototype on a new virtual machine.
func Run(proto *bytecode.Prototype, opts ...Option) ([]object.Value, error) {
	cfg := newConfig(opts...)
	machine, err := cfg.newVM()
	if err != nil {
		return nil, err
	}
	env, err := cfg.envTable()
	if err != nil {
		return nil, err
	}
	args := make([]object.Value, 0, len(cfg.args))
	for i, a := range cfg.args {
		v, err := object.FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %d: %w", i+1, err)
		}
		args = append(args, v)
	}
	return machine.Call(machine.Load(proto, env), args...)
}

// Exec decodes and runs a binary chunk, returning its results as Go values.
func Exec(chunk []byte, opts ...Option) ([]any, error) {
	proto, err := Decode(chunk, opts...)
	if err != nil {
		return nil, err
	}
	results, err := Run(proto, opts...)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(results))
	for i, r := range results {
		values[i] = object.OrNil(r).Interface()
	}
	return values, nil
}
