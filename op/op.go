// Package op defines the Lua 5.2 opcodes executed by the nua virtual machine.
package op

// Code is a 6-bit opcode that indicates an operation to execute.
type Code uint8

const (
	// Loads and moves
	Move     Code = 0
	LoadK    Code = 1
	LoadKX   Code = 2
	LoadBool Code = 3
	LoadNil  Code = 4
	GetUpval Code = 5

	// Table and upvalue access
	GetTabUp Code = 6
	GetTable Code = 7
	SetTabUp Code = 8
	SetUpval Code = 9
	SetTable Code = 10
	NewTable Code = 11
	Self     Code = 12

	// Arithmetic
	Add Code = 13
	Sub Code = 14
	Mul Code = 15
	Div Code = 16
	Mod Code = 17
	Pow Code = 18
	Unm Code = 19
	Not Code = 20
	Len Code = 21

	Concat Code = 22

	// Control flow
	Jmp     Code = 23
	Eq      Code = 24
	Lt      Code = 25
	Le      Code = 26
	Test    Code = 27
	TestSet Code = 28

	// Calls
	Call     Code = 29
	TailCall Code = 30
	Return   Code = 31

	// Loops
	ForLoop  Code = 32
	ForPrep  Code = 33
	TForCall Code = 34
	TForLoop Code = 35

	SetList  Code = 36
	Closure  Code = 37
	VarArg   Code = 38
	ExtraArg Code = 39
)

// Count is the number of defined opcodes. Valid codes are 0 through Count-1.
const Count = 40

// Mode describes which operand fields an opcode declares.
type Mode uint8

const (
	ModeA Mode = iota
	ModeAB
	ModeABx
	ModeABC
	ModeAsBx
	ModeAx
	ModeAC
)

// String returns the name of the operand shape, for example "ABC".
func (m Mode) String() string {
	switch m {
	case ModeA:
		return "A"
	case ModeAB:
		return "AB"
	case ModeABx:
		return "ABx"
	case ModeABC:
		return "ABC"
	case ModeAsBx:
		return "AsBx"
	case ModeAx:
		return "Ax"
	case ModeAC:
		return "AC"
	default:
		return ""
	}
}

// HasA reports whether the shape declares the A field.
func (m Mode) HasA() bool { return m != ModeAx }

// HasB reports whether the shape declares the B field.
func (m Mode) HasB() bool { return m == ModeAB || m == ModeABC }

// HasC reports whether the shape declares the C field.
func (m Mode) HasC() bool { return m == ModeABC || m == ModeAC }

// Arg describes how an opcode interprets its B or C field.
type Arg uint8

const (
	// ArgN marks an unused field.
	ArgN Arg = iota
	// ArgU marks a plain unsigned value such as a count or an index.
	ArgU
	// ArgR marks a register index or a jump offset.
	ArgR
	// ArgK marks a register or constant (RK) field.
	ArgK
)

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	Mode Mode
	B    Arg
	C    Arg
	// OperandCount is the number of operand fields the shape declares.
	OperandCount int
}

var infos [Count]Info

func init() {
	type opInfo struct {
		op   Code
		name string
		mode Mode
		b, c Arg
	}
	ops := []opInfo{
		{Move, "MOVE", ModeAB, ArgR, ArgN},
		{LoadK, "LOADK", ModeABx, ArgK, ArgN},
		{LoadKX, "LOADKX", ModeA, ArgN, ArgN},
		{LoadBool, "LOADBOOL", ModeABC, ArgU, ArgU},
		{LoadNil, "LOADNIL", ModeAB, ArgU, ArgN},
		{GetUpval, "GETUPVAL", ModeAB, ArgU, ArgN},
		{GetTabUp, "GETTABUP", ModeABC, ArgU, ArgK},
		{GetTable, "GETTABLE", ModeABC, ArgR, ArgK},
		{SetTabUp, "SETTABUP", ModeABC, ArgK, ArgK},
		{SetUpval, "SETUPVAL", ModeAB, ArgU, ArgN},
		{SetTable, "SETTABLE", ModeABC, ArgK, ArgK},
		{NewTable, "NEWTABLE", ModeABC, ArgU, ArgU},
		{Self, "SELF", ModeABC, ArgR, ArgK},
		{Add, "ADD", ModeABC, ArgK, ArgK},
		{Sub, "SUB", ModeABC, ArgK, ArgK},
		{Mul, "MUL", ModeABC, ArgK, ArgK},
		{Div, "DIV", ModeABC, ArgK, ArgK},
		{Mod, "MOD", ModeABC, ArgK, ArgK},
		{Pow, "POW", ModeABC, ArgK, ArgK},
		{Unm, "UNM", ModeAB, ArgR, ArgN},
		{Not, "NOT", ModeAB, ArgR, ArgN},
		{Len, "LEN", ModeAB, ArgR, ArgN},
		{Concat, "CONCAT", ModeABC, ArgR, ArgR},
		{Jmp, "JMP", ModeAsBx, ArgR, ArgN},
		{Eq, "EQ", ModeABC, ArgK, ArgK},
		{Lt, "LT", ModeABC, ArgK, ArgK},
		{Le, "LE", ModeABC, ArgK, ArgK},
		{Test, "TEST", ModeAC, ArgN, ArgU},
		{TestSet, "TESTSET", ModeABC, ArgR, ArgU},
		{Call, "CALL", ModeABC, ArgU, ArgU},
		{TailCall, "TAILCALL", ModeABC, ArgU, ArgU},
		{Return, "RETURN", ModeAB, ArgU, ArgN},
		{ForLoop, "FORLOOP", ModeAsBx, ArgR, ArgN},
		{ForPrep, "FORPREP", ModeAsBx, ArgR, ArgN},
		{TForCall, "TFORCALL", ModeAC, ArgN, ArgU},
		{TForLoop, "TFORLOOP", ModeAsBx, ArgR, ArgN},
		{SetList, "SETLIST", ModeABC, ArgU, ArgU},
		{Closure, "CLOSURE", ModeABx, ArgU, ArgN},
		{VarArg, "VARARG", ModeAB, ArgU, ArgN},
		{ExtraArg, "EXTRAARG", ModeAx, ArgU, ArgU},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:         o.op,
			Name:         o.name,
			Mode:         o.mode,
			B:            o.b,
			C:            o.c,
			OperandCount: operandCount(o.mode),
		}
	}
}

func operandCount(m Mode) int {
	switch m {
	case ModeA, ModeAx:
		return 1
	case ModeABC:
		return 3
	default:
		return 2
	}
}

// Valid reports whether the code is a defined opcode.
func (c Code) Valid() bool {
	return c < Count
}

// String returns the opcode's mnemonic, for example "GETTABUP".
func (c Code) String() string {
	if !c.Valid() {
		return "UNKNOWN"
	}
	return infos[c].Name
}

// GetInfo returns information about the given opcode. The zero Info is
// returned for undefined codes.
func GetInfo(op Code) Info {
	if !op.Valid() {
		return Info{}
	}
	return infos[op]
}
