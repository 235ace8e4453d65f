package vm

import (
	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/object"
)

// CallEvent describes a call about to happen. A CallHook may rewrite any
// field; the call proceeds with the rewritten values.
type CallEvent struct {
	// Caller is the calling frame, nil for calls made from the host.
	Caller *Frame

	// Callee is the value being called.
	Callee object.Value

	// Args are the call arguments.
	Args []object.Value
}

// CallHook is invoked before every call.
type CallHook func(event *CallEvent)

// Handler executes one instruction in a frame. The frame's pc already
// points at the following instruction.
type Handler func(f *Frame, ins bytecode.Instruction) error

// DispatchHook is invoked before each instruction is dispatched and returns
// the handler to run, which may be the default one.
type DispatchHook func(f *Frame, ins bytecode.Instruction, handler Handler) Handler

// ErrorHook is asked about each execution error raised inside a frame.
// Returning true suppresses the error and execution continues with the next
// instruction.
type ErrorHook func(f *Frame, err *errz.ExecutionError) bool

// DefaultHandler returns the built-in handler for an opcode.
func DefaultHandler(ins bytecode.Instruction) Handler {
	if !ins.Op.Valid() {
		return nil
	}
	return handlers[ins.Op]
}
