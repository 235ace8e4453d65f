package vm

import (
	"github.com/nuavm/nua/object"
)

// execute runs the frame's instructions until RETURN, a tail call or the end
// of the code. Errors are located at the faulting instruction and offered to
// the error hook before they unwind the frame.
func (f *Frame) execute() ([]object.Value, error) {
	vm := f.vm
	count := f.proto.InstructionCount()
	for !f.done {
		if f.pc >= count {
			return nil, nil
		}
		ins := f.proto.InstructionAt(f.pc)
		f.pc++

		handler := DefaultHandler(ins)
		if vm.dispatchHook != nil {
			handler = vm.dispatchHook(f, ins, handler)
		}
		var err error
		if handler == nil {
			err = object.Errorf("unsupported instruction %s", ins.Op)
		} else {
			err = handler(f, ins)
		}
		if err == nil {
			continue
		}
		execErr := locate(f, err)
		if vm.errorHook != nil && vm.errorHook(f, execErr) {
			vm.log.Warn().
				Str("function", f.FunctionName()).
				Int("pc", f.pc-1).
				Str("error", execErr.Error()).
				Msg("error suppressed by hook")
			continue
		}
		return nil, execErr
	}
	return f.results, nil
}
