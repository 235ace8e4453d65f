package vm

import (
	"fmt"
	"io"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/object"
)

// Frame is the execution context of one active call. Lua functions get a
// register file and a program counter; native functions get a frame too so
// they can call back into the VM and report their caller's position.
type Frame struct {
	vm      *VirtualMachine
	fn      *object.Function
	closure *object.Closure
	proto   *bytecode.Prototype
	caller  *Frame
	depth   int

	pc      int
	regs    *registers
	varargs []object.Value

	// top is one past the last register written by the most recent
	// multi-value producer (CALL with C=0 or VARARG with B=0).
	top int

	results []object.Value
	done    bool
}

func newFrame(vm *VirtualMachine, fn *object.Function, caller *Frame) *Frame {
	f := &Frame{vm: vm, fn: fn, caller: caller, depth: 1}
	if caller != nil {
		f.depth = caller.depth + 1
	}
	if cl := fn.Closure(); cl != nil {
		f.closure = cl
		f.proto = cl.Prototype()
		f.regs = newRegisters(f.proto.MaxStackSize())
	}
	return f
}

// VM returns the virtual machine running this frame.
func (f *Frame) VM() *VirtualMachine { return f.vm }

// Function returns the function being executed.
func (f *Frame) Function() *object.Function { return f.fn }

// Prototype returns the running prototype, or nil for a native frame.
func (f *Frame) Prototype() *bytecode.Prototype { return f.proto }

// Caller returns the calling frame, or nil at the bottom of the stack.
func (f *Frame) Caller() *Frame { return f.caller }

// Depth returns the number of frames on the call stack, this one included.
func (f *Frame) Depth() int { return f.depth }

// PC returns the index of the next instruction to execute.
func (f *Frame) PC() int { return f.pc }

// IsNative reports whether the frame runs a native function.
func (f *Frame) IsNative() bool { return f.proto == nil }

// Register returns the value held in register i.
func (f *Frame) Register(i int) object.Value {
	if f.regs == nil {
		return object.Nil
	}
	return f.regs.get(i)
}

// SetRegister writes register i.
func (f *Frame) SetRegister(i int, v object.Value) {
	if f.regs != nil {
		f.regs.set(i, object.OrNil(v))
	}
}

// Varargs returns the extra arguments of a vararg function.
func (f *Frame) Varargs() []object.Value { return f.varargs }

// Call calls fn from this frame.
func (f *Frame) Call(fn object.Value, args ...object.Value) ([]object.Value, error) {
	return f.vm.call(f, fn, args)
}

// Stdout returns the writer used for program output.
func (f *Frame) Stdout() io.Writer { return f.vm.stdout }

// ConventionalPcall reports whether pcall forwards the callee's results.
func (f *Frame) ConventionalPcall() bool { return f.vm.conventionalPcall }

// Library returns a registered library table.
func (f *Frame) Library(name string) (*object.Table, bool) { return f.vm.Library(name) }

// Where returns the "source:line:" position of the frame level callers
// above this one, or "" when that frame has no line information.
func (f *Frame) Where(level int) string {
	cur := f
	for i := 0; i < level && cur != nil; i++ {
		cur = cur.caller
	}
	if cur == nil || cur.proto == nil {
		return ""
	}
	loc := cur.Location()
	if loc.Line <= 0 {
		return ""
	}
	return loc.String() + ":"
}

// FunctionName returns a short description of the running function.
func (f *Frame) FunctionName() string {
	if f.proto == nil {
		return f.fn.Name()
	}
	return f.proto.Name()
}

// Location returns the source position of the instruction being executed.
func (f *Frame) Location() errz.SourceLocation {
	if f.proto == nil {
		return errz.SourceLocation{Source: "=[Go]"}
	}
	return errz.SourceLocation{
		Source: f.proto.Source(),
		Line:   f.proto.LineAt(f.pc - 1),
	}
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame(%s, depth=%d, pc=%d)", f.FunctionName(), f.depth, f.pc)
}

// constant converts constant index of the running prototype to a value.
func (f *Frame) constant(index int) object.Value {
	return constantValue(f.proto.ConstantAt(index))
}

func constantValue(k any) object.Value {
	switch k := k.(type) {
	case bool:
		return object.Bool(k)
	case float64:
		return object.Number(k)
	case string:
		return object.String(k)
	default:
		return object.Nil
	}
}

// rk resolves an RK operand to a register or constant value.
func (f *Frame) rk(field int) object.Value {
	if bytecode.IsConstant(field) {
		return f.constant(bytecode.ConstantIndex(field))
	}
	return f.regs.get(field)
}

func (f *Frame) upvalue(i int) *object.Cell {
	return f.closure.Upvalue(i)
}

// createUpvalue resolves an upvalue descriptor of a child prototype against
// this frame.
func (f *Frame) createUpvalue(desc bytecode.UpvalueDesc) *object.Cell {
	if desc.InStack {
		return f.regs.capture(desc.Index)
	}
	return f.closure.Upvalue(desc.Index)
}

var _ object.CallContext = (*Frame)(nil)
var _ errz.Frame = (*Frame)(nil)
