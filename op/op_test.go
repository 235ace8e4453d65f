package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(GetTabUp)
	require.Equal(t, "GETTABUP", info.Name)
	require.Equal(t, ModeABC, info.Mode)
	require.Equal(t, 3, info.OperandCount)
	require.Equal(t, GetTabUp, info.Code)
}

func TestGetInfoAllOpcodes(t *testing.T) {
	tests := []struct {
		code Code
		name string
		mode Mode
	}{
		{Move, "MOVE", ModeAB},
		{LoadK, "LOADK", ModeABx},
		{LoadKX, "LOADKX", ModeA},
		{LoadBool, "LOADBOOL", ModeABC},
		{LoadNil, "LOADNIL", ModeAB},
		{GetUpval, "GETUPVAL", ModeAB},
		{GetTabUp, "GETTABUP", ModeABC},
		{GetTable, "GETTABLE", ModeABC},
		{SetTabUp, "SETTABUP", ModeABC},
		{SetUpval, "SETUPVAL", ModeAB},
		{SetTable, "SETTABLE", ModeABC},
		{NewTable, "NEWTABLE", ModeABC},
		{Self, "SELF", ModeABC},
		{Add, "ADD", ModeABC},
		{Sub, "SUB", ModeABC},
		{Mul, "MUL", ModeABC},
		{Div, "DIV", ModeABC},
		{Mod, "MOD", ModeABC},
		{Pow, "POW", ModeABC},
		{Unm, "UNM", ModeAB},
		{Not, "NOT", ModeAB},
		{Len, "LEN", ModeAB},
		{Concat, "CONCAT", ModeABC},
		{Jmp, "JMP", ModeAsBx},
		{Eq, "EQ", ModeABC},
		{Lt, "LT", ModeABC},
		{Le, "LE", ModeABC},
		{Test, "TEST", ModeAC},
		{TestSet, "TESTSET", ModeABC},
		{Call, "CALL", ModeABC},
		{TailCall, "TAILCALL", ModeABC},
		{Return, "RETURN", ModeAB},
		{ForLoop, "FORLOOP", ModeAsBx},
		{ForPrep, "FORPREP", ModeAsBx},
		{TForCall, "TFORCALL", ModeAC},
		{TForLoop, "TFORLOOP", ModeAsBx},
		{SetList, "SETLIST", ModeABC},
		{Closure, "CLOSURE", ModeABx},
		{VarArg, "VARARG", ModeAB},
		{ExtraArg, "EXTRAARG", ModeAx},
	}
	require.Len(t, tests, Count)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			require.Equal(t, tt.code, info.Code)
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.mode, info.Mode)
			require.Equal(t, tt.name, tt.code.String())
		})
	}
}

func TestInvalidCode(t *testing.T) {
	require.False(t, Code(40).Valid())
	require.Equal(t, "UNKNOWN", Code(63).String())
	require.Equal(t, Info{}, GetInfo(Code(50)))
}

func TestModeFields(t *testing.T) {
	require.True(t, ModeABC.HasB())
	require.True(t, ModeABC.HasC())
	require.False(t, ModeAC.HasB())
	require.True(t, ModeAC.HasC())
	require.False(t, ModeAx.HasA())
	require.True(t, ModeAsBx.HasA())
	require.Equal(t, "AsBx", ModeAsBx.String())
}
