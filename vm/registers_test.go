package vm

import (
	"testing"

	"github.com/nuavm/nua/object"
	"github.com/stretchr/testify/require"
)

func TestRegistersGrow(t *testing.T) {
	r := newRegisters(2)
	require.Equal(t, object.Value(object.Nil), r.get(5))
	r.set(5, object.Number(1))
	require.Equal(t, 6, r.size())
	require.Equal(t, object.Value(object.Number(1)), r.get(5))
	require.Equal(t, []object.Value{object.Nil, object.Number(1)}, r.slice(4, 6))
	require.Nil(t, r.slice(3, 3))
}

func TestRegistersCaptureAndClose(t *testing.T) {
	r := newRegisters(4)
	r.set(1, object.Number(1))
	cell := r.capture(1)

	// Before closing, the frame and the closure share the cell
	r.set(1, object.Number(2))
	require.Equal(t, object.Value(object.Number(2)), cell.Get())
	cell.Set(object.Number(3))
	require.Equal(t, object.Value(object.Number(3)), r.get(1))

	// After closing, they evolve independently
	r.closeFrom(0)
	r.set(1, object.Number(4))
	require.Equal(t, object.Value(object.Number(3)), cell.Get())
	require.Equal(t, object.Value(object.Number(4)), r.get(1))
	require.NotSame(t, cell, r.capture(1))
}

func TestRegistersCloseFromKeepsLowerCaptures(t *testing.T) {
	r := newRegisters(4)
	low := r.capture(0)
	high := r.capture(2)
	r.closeFrom(1)
	require.Same(t, low, r.capture(0))
	require.NotSame(t, high, r.capture(2))
}
