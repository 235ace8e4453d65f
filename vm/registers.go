package vm

import "github.com/nuavm/nua/object"

// registers is the register file of one frame. Every slot is a cell so a
// closure can capture a slot and observe later writes to it. Closing a slot
// swaps in a fresh cell holding the same value, which detaches the frame
// from the closures that captured the old one.
type registers struct {
	cells    []*object.Cell
	captured []bool
}

func newRegisters(size int) *registers {
	return &registers{
		cells:    make([]*object.Cell, size),
		captured: make([]bool, size),
	}
}

func (r *registers) grow(n int) {
	if n <= len(r.cells) {
		return
	}
	if n <= cap(r.cells) {
		r.cells = r.cells[:n]
		r.captured = r.captured[:n]
		return
	}
	size := 2 * cap(r.cells)
	if size < n {
		size = n
	}
	cells := make([]*object.Cell, n, size)
	copy(cells, r.cells)
	captured := make([]bool, n, size)
	copy(captured, r.captured)
	r.cells = cells
	r.captured = captured
}

func (r *registers) size() int {
	return len(r.cells)
}

func (r *registers) get(i int) object.Value {
	if i < 0 || i >= len(r.cells) || r.cells[i] == nil {
		return object.Nil
	}
	return r.cells[i].Get()
}

func (r *registers) set(i int, v object.Value) {
	r.grow(i + 1)
	if c := r.cells[i]; c != nil {
		c.Set(v)
		return
	}
	r.cells[i] = object.NewCell(v)
}

// slice copies the values of registers [from, to).
func (r *registers) slice(from, to int) []object.Value {
	if to <= from {
		return nil
	}
	values := make([]object.Value, to-from)
	for i := range values {
		values[i] = r.get(from + i)
	}
	return values
}

// capture returns the cell backing register i, marking it as shared.
func (r *registers) capture(i int) *object.Cell {
	r.grow(i + 1)
	if r.cells[i] == nil {
		r.cells[i] = object.NewCell(object.Nil)
	}
	r.captured[i] = true
	return r.cells[i]
}

// closeFrom detaches every captured register at or above index from.
func (r *registers) closeFrom(from int) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(r.cells); i++ {
		if !r.captured[i] {
			continue
		}
		r.cells[i] = object.NewCell(r.cells[i].Get())
		r.captured[i] = false
	}
}
