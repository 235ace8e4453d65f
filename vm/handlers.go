package vm

import (
	"errors"
	"strings"

	"github.com/nuavm/nua/bytecode"
	"github.com/nuavm/nua/errz"
	"github.com/nuavm/nua/object"
	"github.com/nuavm/nua/op"
)

var handlers [op.Count]Handler

func init() {
	handlers = [op.Count]Handler{
		op.Move:     opMove,
		op.LoadK:    opLoadK,
		op.LoadKX:   opLoadKX,
		op.LoadBool: opLoadBool,
		op.LoadNil:  opLoadNil,
		op.GetUpval: opGetUpval,
		op.GetTabUp: opGetTabUp,
		op.GetTable: opGetTable,
		op.SetTabUp: opSetTabUp,
		op.SetUpval: opSetUpval,
		op.SetTable: opSetTable,
		op.NewTable: opNewTable,
		op.Self:     opSelf,
		op.Add:      arithHandler(object.OpAdd),
		op.Sub:      arithHandler(object.OpSub),
		op.Mul:      arithHandler(object.OpMul),
		op.Div:      arithHandler(object.OpDiv),
		op.Mod:      arithHandler(object.OpMod),
		op.Pow:      arithHandler(object.OpPow),
		op.Unm:      arithHandler(object.OpUnm),
		op.Not:      opNot,
		op.Len:      opLen,
		op.Concat:   opConcat,
		op.Jmp:      opJmp,
		op.Eq:       opEq,
		op.Lt:       compareHandler(object.LessThan),
		op.Le:       compareHandler(object.LessEqual),
		op.Test:     opTest,
		op.TestSet:  opTestSet,
		op.Call:     opCall,
		op.TailCall: opTailCall,
		op.Return:   opReturn,
		op.ForLoop:  opForLoop,
		op.ForPrep:  opForPrep,
		op.TForCall: opTForCall,
		op.TForLoop: opTForLoop,
		op.SetList:  opSetList,
		op.Closure:  opClosure,
		op.VarArg:   opVarArg,
		op.ExtraArg: opExtraArg,
	}
}

func opMove(f *Frame, ins bytecode.Instruction) error {
	f.regs.set(ins.A, f.regs.get(ins.B))
	return nil
}

func opLoadK(f *Frame, ins bytecode.Instruction) error {
	f.regs.set(ins.A, f.constant(ins.Bx))
	return nil
}

func opLoadKX(f *Frame, ins bytecode.Instruction) error {
	extra, err := f.extraArg()
	if err != nil {
		return err
	}
	f.regs.set(ins.A, f.constant(extra))
	return nil
}

// extraArg consumes the EXTRAARG instruction that follows the current one.
func (f *Frame) extraArg() (int, error) {
	if f.pc >= f.proto.InstructionCount() {
		return 0, object.Errorf("missing EXTRAARG instruction")
	}
	next := f.proto.InstructionAt(f.pc)
	if next.Op != op.ExtraArg {
		return 0, object.Errorf("expected EXTRAARG, got %s", next.Op)
	}
	f.pc++
	return next.Ax, nil
}

func opLoadBool(f *Frame, ins bytecode.Instruction) error {
	f.regs.set(ins.A, object.Bool(ins.B != 0))
	if ins.C != 0 {
		f.pc++
	}
	return nil
}

func opLoadNil(f *Frame, ins bytecode.Instruction) error {
	for i := ins.A; i <= ins.A+ins.B; i++ {
		f.regs.set(i, object.Nil)
	}
	return nil
}

func opGetUpval(f *Frame, ins bytecode.Instruction) error {
	f.regs.set(ins.A, f.upvalue(ins.B).Get())
	return nil
}

func opSetUpval(f *Frame, ins bytecode.Instruction) error {
	f.upvalue(ins.B).Set(f.regs.get(ins.A))
	return nil
}

func opGetTabUp(f *Frame, ins bytecode.Instruction) error {
	v, err := f.index(f.upvalue(ins.B).Get(), f.rk(ins.C), func() string {
		return f.upvalueInfo(ins.B)
	})
	if err != nil {
		return err
	}
	f.regs.set(ins.A, v)
	return nil
}

func opGetTable(f *Frame, ins bytecode.Instruction) error {
	v, err := f.index(f.regs.get(ins.B), f.rk(ins.C), func() string {
		return f.varInfo(ins.B)
	})
	if err != nil {
		return err
	}
	f.regs.set(ins.A, v)
	return nil
}

func opSetTabUp(f *Frame, ins bytecode.Instruction) error {
	return f.setIndex(f.upvalue(ins.A).Get(), f.rk(ins.B), f.rk(ins.C), func() string {
		return f.upvalueInfo(ins.A)
	})
}

func opSetTable(f *Frame, ins bytecode.Instruction) error {
	return f.setIndex(f.regs.get(ins.A), f.rk(ins.B), f.rk(ins.C), func() string {
		return f.varInfo(ins.A)
	})
}

func opNewTable(f *Frame, ins bytecode.Instruction) error {
	f.regs.set(ins.A, object.NewTable())
	return nil
}

func opSelf(f *Frame, ins bytecode.Instruction) error {
	obj := f.regs.get(ins.B)
	key := f.rk(ins.C)
	f.regs.set(ins.A+1, obj)
	v, err := f.index(obj, key, func() string {
		return f.varInfo(ins.B)
	})
	if err != nil {
		return err
	}
	f.regs.set(ins.A, v)
	return nil
}

// index reads key from v. Strings are indexed through the "string" library
// so that methods like s:upper() resolve.
func (f *Frame) index(v, key object.Value, info func() string) (object.Value, error) {
	switch v := v.(type) {
	case *object.Table:
		return v.Get(f, key)
	case object.String:
		lib, ok := f.vm.libraries["string"]
		if !ok {
			return nil, object.Errorf("could not load lib string")
		}
		return lib.Get(f, key)
	case *object.Userdata:
		return v.Get(f, key)
	}
	return nil, object.TypeErrorf("attempt to index a %s value%s", object.TypeOf(v), info())
}

func (f *Frame) setIndex(v, key, value object.Value, info func() string) error {
	switch v := v.(type) {
	case *object.Table:
		return v.Set(f, key, value)
	case *object.Userdata:
		return v.Set(f, key, value)
	}
	return object.TypeErrorf("attempt to index a %s value%s", object.TypeOf(v), info())
}

func arithHandler(opr object.ArithOp) Handler {
	return func(f *Frame, ins bytecode.Instruction) error {
		b, c := f.rk(ins.B), f.rk(ins.C)
		if opr == object.OpUnm {
			c = b
		}
		v, err := object.Arith(opr, b, c)
		if err != nil {
			field := ins.C
			if _, ok := object.ToNumber(b); !ok {
				field = ins.B
			}
			return f.annotate(err, field)
		}
		f.regs.set(ins.A, v)
		return nil
	}
}

// annotate appends the name of the variable held in an RK operand to a type
// error, when debug information can name it.
func (f *Frame) annotate(err error, field int) error {
	if bytecode.IsConstant(field) {
		return err
	}
	info := f.varInfo(field)
	if info == "" {
		return err
	}
	execErr := errz.AsExecutionError(err)
	return errz.Errorf(execErr.Kind, "%s%s", execErr.Message(), info)
}

func opNot(f *Frame, ins bytecode.Instruction) error {
	f.regs.set(ins.A, object.Bool(!object.IsTruthy(f.regs.get(ins.B))))
	return nil
}

func opLen(f *Frame, ins bytecode.Instruction) error {
	n, err := object.Len(f.regs.get(ins.B))
	if err != nil {
		return f.annotate(err, ins.B)
	}
	f.regs.set(ins.A, object.Number(n))
	return nil
}

func opConcat(f *Frame, ins bytecode.Instruction) error {
	var sb strings.Builder
	for i := ins.B; i <= ins.C; i++ {
		v := f.regs.get(i)
		s, ok := object.ToString(v)
		if !ok {
			return f.annotate(object.TypeErrorf("attempt to concatenate a %s value", object.TypeOf(v)), i)
		}
		sb.WriteString(string(s))
	}
	f.regs.set(ins.A, object.String(sb.String()))
	return nil
}

func opJmp(f *Frame, ins bytecode.Instruction) error {
	if ins.A > 0 {
		f.regs.closeFrom(ins.A - 1)
	}
	f.pc += ins.SBx
	return nil
}

func opEq(f *Frame, ins bytecode.Instruction) error {
	if object.Equals(f.rk(ins.B), f.rk(ins.C)) != (ins.A != 0) {
		f.pc++
	}
	return nil
}

func compareHandler(cmp func(a, b object.Value) (bool, error)) Handler {
	return func(f *Frame, ins bytecode.Instruction) error {
		ok, err := cmp(f.rk(ins.B), f.rk(ins.C))
		if err != nil {
			return err
		}
		if ok != (ins.A != 0) {
			f.pc++
		}
		return nil
	}
}

func opTest(f *Frame, ins bytecode.Instruction) error {
	if object.IsTruthy(f.regs.get(ins.A)) != (ins.C != 0) {
		f.pc++
	}
	return nil
}

func opTestSet(f *Frame, ins bytecode.Instruction) error {
	v := f.regs.get(ins.B)
	if object.IsTruthy(v) == (ins.C != 0) {
		f.regs.set(ins.A, v)
	} else {
		f.pc++
	}
	return nil
}

// callArgs collects the arguments of a CALL or TAILCALL. B=0 passes every
// register up to the top left by the previous multi-value instruction.
func (f *Frame) callArgs(ins bytecode.Instruction) []object.Value {
	if ins.B == 0 {
		return f.regs.slice(ins.A+1, f.top)
	}
	return f.regs.slice(ins.A+1, ins.A+ins.B)
}

// storeResults writes call results starting at register a. A negative want
// stores all of them and moves the top.
func (f *Frame) storeResults(a, want int, results []object.Value) {
	if want < 0 {
		for i, v := range results {
			f.regs.set(a+i, object.OrNil(v))
		}
		f.top = a + len(results)
		return
	}
	for i := 0; i < want; i++ {
		f.regs.set(a+i, argAt(results, i))
	}
}

// callError names the variable that held a value that could not be called.
func (f *Frame) callError(err error, fn object.Value, reg int) error {
	var nc *notCallableError
	if !errors.As(err, &nc) || nc.value != object.OrNil(fn) || errz.AsExecutionError(err).Located() {
		return err
	}
	info := f.varInfo(reg)
	if info == "" {
		return err
	}
	return errz.Errorf(errz.ErrType, "%s%s", nc.Error(), info).WithCause(nc)
}

func opCall(f *Frame, ins bytecode.Instruction) error {
	fn := f.regs.get(ins.A)
	results, err := f.vm.call(f, fn, f.callArgs(ins))
	if err != nil {
		return f.callError(err, fn, ins.A)
	}
	f.storeResults(ins.A, ins.C-1, results)
	return nil
}

func opTailCall(f *Frame, ins bytecode.Instruction) error {
	fn := f.regs.get(ins.A)
	results, err := f.vm.call(f, fn, f.callArgs(ins))
	if err != nil {
		return f.callError(err, fn, ins.A)
	}
	f.results = results
	f.done = true
	return nil
}

func opReturn(f *Frame, ins bytecode.Instruction) error {
	if ins.B == 0 {
		f.results = f.regs.slice(ins.A, f.top)
	} else {
		f.results = f.regs.slice(ins.A, ins.A+ins.B-1)
	}
	f.done = true
	return nil
}

func forNumber(v object.Value, what string) (object.Number, error) {
	n, ok := object.ToNumber(v)
	if !ok {
		return 0, object.Errorf("'for' %s must be a number", what)
	}
	return n, nil
}

func opForPrep(f *Frame, ins bytecode.Instruction) error {
	a := ins.A
	init, err := forNumber(f.regs.get(a), "initial value")
	if err != nil {
		return err
	}
	limit, err := forNumber(f.regs.get(a+1), "limit")
	if err != nil {
		return err
	}
	step, err := forNumber(f.regs.get(a+2), "step")
	if err != nil {
		return err
	}
	f.regs.set(a, init-step)
	f.regs.set(a+1, limit)
	f.regs.set(a+2, step)
	f.pc += ins.SBx
	return nil
}

func opForLoop(f *Frame, ins bytecode.Instruction) error {
	a := ins.A
	idx, _ := object.ToNumber(f.regs.get(a))
	limit, _ := object.ToNumber(f.regs.get(a + 1))
	step, _ := object.ToNumber(f.regs.get(a + 2))
	idx += step
	var more bool
	if step > 0 {
		more = idx <= limit
	} else {
		more = limit <= idx
	}
	if more {
		f.pc += ins.SBx
		f.regs.set(a, idx)
		f.regs.set(a+3, idx)
	}
	return nil
}

func opTForCall(f *Frame, ins bytecode.Instruction) error {
	a := ins.A
	fn := f.regs.get(a)
	results, err := f.vm.call(f, fn, []object.Value{f.regs.get(a + 1), f.regs.get(a + 2)})
	if err != nil {
		return f.callError(err, fn, a)
	}
	f.storeResults(a+3, ins.C, results)
	return nil
}

func opTForLoop(f *Frame, ins bytecode.Instruction) error {
	a := ins.A
	if v := f.regs.get(a + 1); !object.IsNil(v) {
		f.regs.set(a, v)
		f.pc += ins.SBx
	}
	return nil
}

func opSetList(f *Frame, ins bytecode.Instruction) error {
	a := ins.A
	n := ins.B
	if n == 0 {
		n = f.top - a - 1
	}
	page := ins.C
	if page == 0 {
		extra, err := f.extraArg()
		if err != nil {
			return err
		}
		page = extra
	}
	t, ok := f.regs.get(a).(*object.Table)
	if !ok {
		return object.TypeErrorf("attempt to set list items on a %s value", object.TypeOf(f.regs.get(a)))
	}
	offset := (page - 1) * bytecode.FieldsPerFlush
	for i := 1; i <= n; i++ {
		if err := t.RawSet(object.Number(offset+i), f.regs.get(a+i)); err != nil {
			return err
		}
	}
	return nil
}

func opClosure(f *Frame, ins bytecode.Instruction) error {
	proto := f.proto.ChildAt(ins.Bx)
	cells := make([]*object.Cell, proto.UpvalueCount())
	for i := range cells {
		cells[i] = f.createUpvalue(proto.UpvalueAt(i))
	}
	f.regs.set(ins.A, object.NewClosureFunction(object.NewClosure(proto, cells)))
	return nil
}

func opVarArg(f *Frame, ins bytecode.Instruction) error {
	want := ins.B - 1
	if want < 0 {
		for i, v := range f.varargs {
			f.regs.set(ins.A+i, v)
		}
		f.top = ins.A + len(f.varargs)
		return nil
	}
	for i := 0; i < want; i++ {
		f.regs.set(ins.A+i, argAt(f.varargs, i))
	}
	return nil
}

func opExtraArg(f *Frame, ins bytecode.Instruction) error {
	return nil
}
