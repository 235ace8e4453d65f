package vm

import (
	"fmt"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/op"
)

// varInfo describes the variable held in register reg at the current
// instruction, e.g. " (global 'print')". It returns "" when the debug
// information cannot name it.
func (f *Frame) varInfo(reg int) string {
	if f.proto == nil {
		return ""
	}
	kind, name := objectName(f.proto, f.pc-1, reg)
	if kind == "" {
		return ""
	}
	return fmt.Sprintf(" (%s '%s')", kind, name)
}

func (f *Frame) upvalueInfo(index int) string {
	name := f.proto.UpvalueName(index)
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" (upvalue '%s')", name)
}

// objectName works out how register reg got its value at instruction
// lastpc, by symbolic execution of the code before it.
func objectName(p *bytecode.Prototype, lastpc, reg int) (kind, name string) {
	if name := p.LocalName(reg+1, lastpc); name != "" {
		return "local", name
	}
	pc := findSetReg(p, lastpc, reg)
	if pc < 0 {
		return "", ""
	}
	ins := p.InstructionAt(pc)
	switch ins.Op {
	case op.Move:
		if ins.B < ins.A {
			return objectName(p, pc, ins.B)
		}
	case op.GetTabUp, op.GetTable:
		var table string
		if ins.Op == op.GetTable {
			table = p.LocalName(ins.B+1, pc)
		} else {
			table = p.UpvalueName(ins.B)
		}
		key := constantName(p, pc, ins.C)
		if table == "_ENV" {
			return "global", key
		}
		return "field", key
	case op.GetUpval:
		return "upvalue", p.UpvalueName(ins.B)
	case op.LoadK, op.LoadKX:
		index := ins.Bx
		if ins.Op == op.LoadKX && pc+1 < p.InstructionCount() {
			index = p.InstructionAt(pc + 1).Ax
		}
		if s, ok := p.ConstantAt(index).(string); ok {
			return "constant", s
		}
	case op.Self:
		return "method", constantName(p, pc, ins.C)
	}
	return "", ""
}

// constantName names an RK key operand.
func constantName(p *bytecode.Prototype, pc, field int) string {
	if bytecode.IsConstant(field) {
		if s, ok := p.ConstantAt(bytecode.ConstantIndex(field)).(string); ok {
			return s
		}
		return "?"
	}
	if kind, name := objectName(p, pc, field); kind == "constant" {
		return name
	}
	return "?"
}

// findSetReg returns the last instruction before lastpc that wrote reg, or
// -1 when a jump makes the writer ambiguous.
func findSetReg(p *bytecode.Prototype, lastpc, reg int) int {
	setreg := -1
	jmptarget := 0
	for pc := 0; pc < lastpc; pc++ {
		ins := p.InstructionAt(pc)
		a := ins.A
		change := false
		switch ins.Op {
		case op.LoadNil:
			change = a <= reg && reg <= a+ins.B
		case op.TForCall:
			change = reg >= a+2
		case op.Call, op.TailCall:
			change = reg >= a
		case op.Jmp:
			dest := pc + 1 + ins.SBx
			if pc < dest && dest <= lastpc && dest > jmptarget {
				jmptarget = dest
			}
		default:
			change = setsA(ins.Op) && reg == a
		}
		if change {
			if pc < jmptarget {
				setreg = -1
			} else {
				setreg = pc
			}
		}
	}
	return setreg
}

// setsA reports whether an opcode writes register A.
func setsA(code op.Code) bool {
	switch code {
	case op.SetTabUp, op.SetUpval, op.SetTable, op.Jmp, op.Eq, op.Lt, op.Le,
		op.Test, op.Return, op.TForCall, op.SetList, op.ExtraArg:
		return false
	}
	return true
}
