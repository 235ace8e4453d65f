package object

import "fmt"

// Cell is a mutable slot holding one value. Registers are cells and upvalues
// are references to cells, so a closure that captures a register shares the
// cell with the frame until the register is closed.
type Cell struct {
	value Value
}

// NewCell creates a cell holding v.
func NewCell(v Value) *Cell {
	return &Cell{value: v}
}

// Get returns the cell's value. An empty cell holds nil.
func (c *Cell) Get() Value {
	if c.value == nil {
		return Nil
	}
	return c.value
}

// Set replaces the cell's value.
func (c *Cell) Set(v Value) {
	c.value = v
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell(%s)", c.Get())
}
