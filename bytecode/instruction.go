package bytecode

import (
	"fmt"
	"strings"

	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/op"
)

// Field limits of the Lua 5.2 instruction layout.
const (
	MaxA   = 1<<8 - 1
	MaxBC  = 1<<9 - 1
	MaxBx  = 1<<18 - 1
	MaxSBx = MaxBx >> 1
	MaxAx  = 1<<26 - 1

	// FieldsPerFlush is the number of list items SETLIST stores per page.
	FieldsPerFlush = 50
)

const (
	posA  = 6
	posC  = 14
	posB  = 23
	posBx = 14
	posAx = 6

	maskOp = 1<<6 - 1
)

// Instruction is one decoded instruction. Only the fields declared by the
// opcode's shape are meaningful; the rest are zero. RK fields (B or C of an
// opcode whose argument kind is op.ArgK) hold a register index when
// non-negative and -1-k when referring to constant k.
type Instruction struct {
	Op  op.Code
	A   int
	B   int
	C   int
	Bx  int
	SBx int
	Ax  int
}

// A builds an instruction that only declares the A field.
func A(code op.Code, a int) Instruction {
	return Instruction{Op: code, A: a}
}

// AB builds an instruction declaring the A and B fields.
func AB(code op.Code, a, b int) Instruction {
	return Instruction{Op: code, A: a, B: b}
}

// AC builds an instruction declaring the A and C fields.
func AC(code op.Code, a, c int) Instruction {
	return Instruction{Op: code, A: a, C: c}
}

// ABC builds an instruction declaring the A, B and C fields.
func ABC(code op.Code, a, b, c int) Instruction {
	return Instruction{Op: code, A: a, B: b, C: c}
}

// ABx builds an instruction declaring the A and unsigned Bx fields.
func ABx(code op.Code, a, bx int) Instruction {
	return Instruction{Op: code, A: a, Bx: bx}
}

// AsBx builds an instruction declaring the A and signed sBx fields.
func AsBx(code op.Code, a, sbx int) Instruction {
	return Instruction{Op: code, A: a, SBx: sbx}
}

// Ax builds an instruction declaring only the Ax field.
func Ax(code op.Code, ax int) Instruction {
	return Instruction{Op: code, Ax: ax}
}

// RK returns the RK operand value referring to constant k.
func RK(k int) int {
	return -1 - k
}

// IsConstant reports whether an RK operand refers to a constant.
func IsConstant(field int) bool {
	return field < 0
}

// ConstantIndex returns the constant index an RK operand refers to.
func ConstantIndex(field int) int {
	return -1 - field
}

// DecodeInstruction unpacks a raw 32-bit instruction.
func DecodeInstruction(raw uint32) (Instruction, error) {
	code := op.Code(raw & maskOp)
	if !code.Valid() {
		return Instruction{}, errz.NewFormatError(-1, "invalid opcode %d", code)
	}
	info := op.GetInfo(code)
	ins := Instruction{Op: code}
	a := int(raw>>posA) & MaxA
	switch info.Mode {
	case op.ModeA:
		ins.A = a
	case op.ModeAB:
		ins.A = a
		ins.B = decodeArg(info.B, int(raw>>posB)&MaxBC)
	case op.ModeAC:
		ins.A = a
		ins.C = decodeArg(info.C, int(raw>>posC)&MaxBC)
	case op.ModeABC:
		ins.A = a
		ins.B = decodeArg(info.B, int(raw>>posB)&MaxBC)
		ins.C = decodeArg(info.C, int(raw>>posC)&MaxBC)
	case op.ModeABx:
		ins.A = a
		ins.Bx = int(raw>>posBx) & MaxBx
	case op.ModeAsBx:
		ins.A = a
		ins.SBx = int(raw>>posBx)&MaxBx - MaxSBx
	case op.ModeAx:
		ins.Ax = int(raw>>posAx) & MaxAx
	}
	return ins, nil
}

func decodeArg(kind op.Arg, raw int) int {
	if kind == op.ArgK && raw > MaxA {
		return -(raw & MaxA) - 1
	}
	return raw
}

func encodeArg(v int) uint32 {
	if v < 0 {
		return uint32(MaxA-v) & MaxBC
	}
	return uint32(v) & MaxBC
}

// Encode packs the instruction into its 32-bit form. Fields not declared by
// the opcode's shape are ignored.
func (ins Instruction) Encode() uint32 {
	info := op.GetInfo(ins.Op)
	raw := uint32(ins.Op) & maskOp
	a := uint32(ins.A) & MaxA << posA
	switch info.Mode {
	case op.ModeA:
		raw |= a
	case op.ModeAB:
		raw |= a | encodeArg(ins.B)<<posB
	case op.ModeAC:
		raw |= a | encodeArg(ins.C)<<posC
	case op.ModeABC:
		raw |= a | encodeArg(ins.B)<<posB | encodeArg(ins.C)<<posC
	case op.ModeABx:
		raw |= a | (uint32(ins.Bx)&MaxBx)<<posBx
	case op.ModeAsBx:
		raw |= a | (uint32(ins.SBx+MaxSBx)&MaxBx)<<posBx
	case op.ModeAx:
		raw |= (uint32(ins.Ax) & MaxAx) << posAx
	}
	return raw
}

// EncodeInstruction packs ins into its 32-bit form.
func EncodeInstruction(ins Instruction) uint32 {
	return ins.Encode()
}

// Operands returns the declared operand values in A, B/Bx/sBx, C order.
func (ins Instruction) Operands() []int {
	switch op.GetInfo(ins.Op).Mode {
	case op.ModeA:
		return []int{ins.A}
	case op.ModeAB:
		return []int{ins.A, ins.B}
	case op.ModeAC:
		return []int{ins.A, ins.C}
	case op.ModeABC:
		return []int{ins.A, ins.B, ins.C}
	case op.ModeABx:
		return []int{ins.A, ins.Bx}
	case op.ModeAsBx:
		return []int{ins.A, ins.SBx}
	case op.ModeAx:
		return []int{ins.Ax}
	}
	return nil
}

// String returns the instruction in "OPNAME a b c" form.
func (ins Instruction) String() string {
	operands := ins.Operands()
	parts := make([]string, 0, len(operands)+1)
	parts = append(parts, ins.Op.String())
	for _, v := range operands {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " ")
}
