// Package dis renders prototypes as human-readable instruction listings.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/internal/table"
	"github.com/nuavm/nua/object"
	"github.com/nuavm/nua/op"
)

// Instruction is one disassembled instruction.
type Instruction struct {
	Offset   int    `json:"offset"`
	Line     int    `json:"line,omitempty"`
	Name     string `json:"name"`
	Operands []int  `json:"operands"`
	Info     string `json:"info,omitempty"`
}

// Function is the disassembly of one prototype.
type Function struct {
	Name         string        `json:"name"`
	Source       string        `json:"source"`
	NumParams    int           `json:"params"`
	IsVararg     bool          `json:"vararg"`
	MaxStackSize int           `json:"registers"`
	Upvalues     int           `json:"upvalues"`
	Constants    []string      `json:"constants"`
	Instructions []Instruction `json:"instructions"`
}

// Disassemble lists the instructions of a single prototype.
func Disassemble(p *bytecode.Prototype) ([]Instruction, error) {
	count := p.InstructionCount()
	instructions := make([]Instruction, 0, count)
	for pc := 0; pc < count; pc++ {
		ins := p.InstructionAt(pc)
		if !ins.Op.Valid() {
			return nil, fmt.Errorf("invalid opcode %d at offset %d", ins.Op, pc)
		}
		instructions = append(instructions, Instruction{
			Offset:   pc,
			Line:     p.LineAt(pc),
			Name:     ins.Op.String(),
			Operands: ins.Operands(),
			Info:     describe(p, pc, ins),
		})
	}
	return instructions, nil
}

// DisassembleAll disassembles p and every nested prototype, depth first.
func DisassembleAll(p *bytecode.Prototype) ([]Function, error) {
	var functions []Function
	for _, proto := range p.Flatten() {
		instructions, err := Disassemble(proto)
		if err != nil {
			return nil, err
		}
		constants := make([]string, proto.ConstantCount())
		for i := range constants {
			constants[i] = constantString(proto, i)
		}
		functions = append(functions, Function{
			Name:         proto.Name(),
			Source:       proto.Source(),
			NumParams:    proto.NumParams(),
			IsVararg:     proto.IsVararg(),
			MaxStackSize: proto.MaxStackSize(),
			Upvalues:     proto.UpvalueCount(),
			Constants:    constants,
			Instructions: instructions,
		})
	}
	return functions, nil
}

func constantString(p *bytecode.Prototype, index int) string {
	if index < 0 || index >= p.ConstantCount() {
		return "?"
	}
	switch k := p.ConstantAt(index).(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(k)
	case float64:
		return object.FormatNumber(k)
	default:
		return fmt.Sprint(k)
	}
}

func upvalueString(p *bytecode.Prototype, index int) string {
	if name := p.UpvalueName(index); name != "" {
		return name
	}
	return fmt.Sprintf("upvalue %d", index)
}

// rkString renders an RK operand: constants by value, registers as R(n).
func rkString(p *bytecode.Prototype, field int) string {
	if bytecode.IsConstant(field) {
		return constantString(p, bytecode.ConstantIndex(field))
	}
	return fmt.Sprintf("R%d", field)
}

func describe(p *bytecode.Prototype, pc int, ins bytecode.Instruction) string {
	switch ins.Op {
	case op.LoadK:
		return constantString(p, ins.Bx)
	case op.LoadKX:
		if pc+1 < p.InstructionCount() {
			return constantString(p, p.InstructionAt(pc+1).Ax)
		}
	case op.GetUpval, op.SetUpval:
		return upvalueString(p, ins.B)
	case op.GetTabUp:
		return fmt.Sprintf("%s %s", upvalueString(p, ins.B), rkString(p, ins.C))
	case op.SetTabUp:
		return fmt.Sprintf("%s %s", upvalueString(p, ins.A), rkString(p, ins.B))
	case op.GetTable, op.Self:
		return rkString(p, ins.C)
	case op.SetTable, op.Add, op.Sub, op.Mul, op.Div, op.Mod, op.Pow, op.Eq, op.Lt, op.Le:
		return fmt.Sprintf("%s %s", rkString(p, ins.B), rkString(p, ins.C))
	case op.Jmp, op.ForLoop, op.ForPrep, op.TForLoop:
		return fmt.Sprintf("to %d", pc+1+ins.SBx)
	case op.Closure:
		if ins.Bx < p.ChildCount() {
			return p.ChildAt(ins.Bx).Name()
		}
	}
	return ""
}

// Print writes a table of instructions to w.
func Print(instructions []Instruction, w io.Writer) error {
	name := color.New(color.FgYellow).SprintFunc()
	rows := make([][]string, 0, len(instructions))
	for _, ins := range instructions {
		operands := make([]string, len(ins.Operands))
		for i, v := range ins.Operands {
			operands[i] = strconv.Itoa(v)
		}
		line := ""
		if ins.Line > 0 {
			line = strconv.Itoa(ins.Line)
		}
		rows = append(rows, []string{
			strconv.Itoa(ins.Offset),
			line,
			name(ins.Name),
			strings.Join(operands, " "),
			ins.Info,
		})
	}
	return table.NewTable(w).
		WithHeader([]string{"OFFSET", "LINE", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(rows).
		Render()
}

// Fprint writes the listing of p and every nested prototype to w.
func Fprint(w io.Writer, p *bytecode.Prototype) error {
	functions, err := DisassembleAll(p)
	if err != nil {
		return err
	}
	title := color.New(color.Bold).SprintFunc()
	for i, fn := range functions {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		vararg := ""
		if fn.IsVararg {
			vararg = "+"
		}
		header := fmt.Sprintf("%s (%s) params=%d%s registers=%d upvalues=%d constants=%d",
			fn.Name, fn.Source, fn.NumParams, vararg, fn.MaxStackSize, fn.Upvalues, len(fn.Constants))
		if _, err := fmt.Fprintln(w, title(header)); err != nil {
			return err
		}
		if err := Print(fn.Instructions, w); err != nil {
			return err
		}
	}
	return nil
}
