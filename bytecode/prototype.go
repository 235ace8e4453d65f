package bytecode

import "fmt"

// UpvalueDesc describes where a closure finds one of its upvalues when it is
// instantiated: a register of the enclosing frame (InStack) or an upvalue of
// the enclosing closure.
type UpvalueDesc struct {
	InStack bool
	Index   int
}

// LocVar is a local variable scope from the debug tables. The variable is
// live for instructions StartPC <= pc < EndPC.
type LocVar struct {
	Name    string
	StartPC int
	EndPC   int
}

// Prototype is an immutable function blueprint. It is shared read-only by
// every closure instantiated from it.
type Prototype struct {
	source          string
	lineDefined     int
	lastLineDefined int
	numParams       int
	varargFlag      uint8
	maxStackSize    int

	code      []Instruction
	constants []any
	children  []*Prototype
	upvalues  []UpvalueDesc

	lineInfo     []int
	locVars      []LocVar
	upvalueNames []string
}

// PrototypeParams contains parameters for creating a new Prototype.
type PrototypeParams struct {
	Source          string
	LineDefined     int
	LastLineDefined int
	NumParams       int
	IsVararg        bool
	// VarargFlag is the raw flag byte. When zero, IsVararg decides it.
	VarargFlag   uint8
	MaxStackSize int

	Code      []Instruction
	Constants []any
	Children  []*Prototype
	Upvalues  []UpvalueDesc

	LineInfo     []int
	LocVars      []LocVar
	UpvalueNames []string
}

// NewPrototype creates a new immutable Prototype. Input slices are copied.
// Constants must be nil, bool, float64 or string; ints are accepted and
// stored as float64.
func NewPrototype(params PrototypeParams) *Prototype {
	flag := params.VarargFlag
	if flag == 0 && params.IsVararg {
		flag = 1
	}
	constants := make([]any, len(params.Constants))
	for i, c := range params.Constants {
		switch v := c.(type) {
		case int:
			constants[i] = float64(v)
		default:
			constants[i] = v
		}
	}
	return &Prototype{
		source:          params.Source,
		lineDefined:     params.LineDefined,
		lastLineDefined: params.LastLineDefined,
		numParams:       params.NumParams,
		varargFlag:      flag,
		maxStackSize:    params.MaxStackSize,
		code:            append([]Instruction(nil), params.Code...),
		constants:       constants,
		children:        append([]*Prototype(nil), params.Children...),
		upvalues:        append([]UpvalueDesc(nil), params.Upvalues...),
		lineInfo:        append([]int(nil), params.LineInfo...),
		locVars:         append([]LocVar(nil), params.LocVars...),
		upvalueNames:    append([]string(nil), params.UpvalueNames...),
	}
}

// Source returns the chunk name, e.g. "@main.lua".
func (p *Prototype) Source() string { return p.source }

// LineDefined returns the source line where the function starts.
func (p *Prototype) LineDefined() int { return p.lineDefined }

// LastLineDefined returns the source line where the function ends.
func (p *Prototype) LastLineDefined() int { return p.lastLineDefined }

// NumParams returns the number of fixed parameters.
func (p *Prototype) NumParams() int { return p.numParams }

// IsVararg reports whether the function accepts extra arguments.
func (p *Prototype) IsVararg() bool { return p.varargFlag != 0 }

// VarargFlag returns the raw vararg flag byte.
func (p *Prototype) VarargFlag() uint8 { return p.varargFlag }

// MaxStackSize returns the number of registers the function needs.
func (p *Prototype) MaxStackSize() int { return p.maxStackSize }

// InstructionCount returns the number of instructions.
func (p *Prototype) InstructionCount() int { return len(p.code) }

// InstructionAt returns the instruction at the given index.
func (p *Prototype) InstructionAt(index int) Instruction { return p.code[index] }

// ConstantCount returns the number of constants.
func (p *Prototype) ConstantCount() int { return len(p.constants) }

// ConstantAt returns the constant at the given index.
func (p *Prototype) ConstantAt(index int) any { return p.constants[index] }

// ChildCount returns the number of nested prototypes.
func (p *Prototype) ChildCount() int { return len(p.children) }

// ChildAt returns the nested prototype at the given index.
func (p *Prototype) ChildAt(index int) *Prototype { return p.children[index] }

// UpvalueCount returns the number of upvalue descriptors.
func (p *Prototype) UpvalueCount() int { return len(p.upvalues) }

// UpvalueAt returns the upvalue descriptor at the given index.
func (p *Prototype) UpvalueAt(index int) UpvalueDesc { return p.upvalues[index] }

// LineInfoCount returns the number of entries in the line table.
func (p *Prototype) LineInfoCount() int { return len(p.lineInfo) }

// LineAt returns the source line of instruction pc, or 0 when the line
// table does not cover it.
func (p *Prototype) LineAt(pc int) int {
	if pc < 0 || pc >= len(p.lineInfo) {
		return 0
	}
	return p.lineInfo[pc]
}

// LocVarCount returns the number of local variable entries.
func (p *Prototype) LocVarCount() int { return len(p.locVars) }

// LocVarAt returns the local variable entry at the given index.
func (p *Prototype) LocVarAt(index int) LocVar { return p.locVars[index] }

// LocalName returns the name of the n-th (1-based) local variable active at
// pc, or "" if there is none.
func (p *Prototype) LocalName(n, pc int) string {
	for _, lv := range p.locVars {
		if lv.StartPC > pc {
			break
		}
		if pc < lv.EndPC {
			n--
			if n == 0 {
				return lv.Name
			}
		}
	}
	return ""
}

// UpvalueNameCount returns the number of upvalue names.
func (p *Prototype) UpvalueNameCount() int { return len(p.upvalueNames) }

// UpvalueName returns the name of upvalue index, or "" without debug info.
func (p *Prototype) UpvalueName(index int) string {
	if index < 0 || index >= len(p.upvalueNames) {
		return ""
	}
	return p.upvalueNames[index]
}

// Name returns a short description used in stack traces.
func (p *Prototype) Name() string {
	if p.lineDefined == 0 {
		return "main chunk"
	}
	return fmt.Sprintf("function <%d>", p.lineDefined)
}

// Flatten returns this prototype followed by all nested prototypes in
// depth-first order.
func (p *Prototype) Flatten() []*Prototype {
	result := []*Prototype{p}
	for _, child := range p.children {
		result = append(result, child.Flatten()...)
	}
	return result
}
