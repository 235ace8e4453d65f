package object

import "github.com/nuavm/nua/bytecode"

// Closure is a runtime function instance: an immutable prototype bound to
// the cells its upvalues refer to.
type Closure struct {
	proto    *bytecode.Prototype
	upvalues []*Cell
}

// NewClosure creates a closure over proto. The upvalues slice is owned by
// the closure afterwards.
func NewClosure(proto *bytecode.Prototype, upvalues []*Cell) *Closure {
	return &Closure{proto: proto, upvalues: upvalues}
}

// Prototype returns the function blueprint.
func (c *Closure) Prototype() *bytecode.Prototype {
	return c.proto
}

// UpvalueCount returns the number of upvalues.
func (c *Closure) UpvalueCount() int {
	return len(c.upvalues)
}

// Upvalue returns the cell referenced by upvalue i.
func (c *Closure) Upvalue(i int) *Cell {
	return c.upvalues[i]
}

// Env returns the table held by the upvalue named _ENV, or nil when the
// closure has none.
func (c *Closure) Env() *Table {
	for i := range c.upvalues {
		if c.proto.UpvalueName(i) == "_ENV" {
			t, _ := c.upvalues[i].Get().(*Table)
			return t
		}
	}
	return nil
}

// Equals reports whether both closures run the same prototype over the
// same captured cells.
func (c *Closure) Equals(other *Closure) bool {
	if c == other {
		return true
	}
	if other == nil || c.proto != other.proto || len(c.upvalues) != len(other.upvalues) {
		return false
	}
	for i, cell := range c.upvalues {
		if cell != other.upvalues[i] {
			return false
		}
	}
	return true
}
