package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Dump writes the encoded chunk to w.
func Dump(w io.Writer, h *Header, p *Prototype) error {
	data, err := Encode(h, p)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Encode serializes a header and prototype tree into a binary chunk. A nil
// header means DefaultHeader.
func Encode(h *Header, p *Prototype) ([]byte, error) {
	if h == nil {
		h = DefaultHeader()
	}
	if h.IntSize != 4 && h.IntSize != 8 || h.SizeTSize != 4 && h.SizeTSize != 8 {
		return nil, fmt.Errorf("cannot encode with int size %d and size_t size %d", h.IntSize, h.SizeTSize)
	}
	w := &writer{
		order:     h.ByteOrder(),
		intSize:   int(h.IntSize),
		sizeTSize: int(h.SizeTSize),
	}
	w.buf.Write(h.bytes())
	if err := w.prototype(p); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type writer struct {
	buf       bytes.Buffer
	order     binary.ByteOrder
	intSize   int
	sizeTSize int
}

func (w *writer) writeSized(size int, v uint64) {
	var tmp [8]byte
	if size == 4 {
		w.order.PutUint32(tmp[:], uint32(v))
		w.buf.Write(tmp[:4])
		return
	}
	w.order.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *writer) writeInt(v int) {
	w.writeSized(w.intSize, uint64(v))
}

func (w *writer) writeString(s string) {
	w.writeSized(w.sizeTSize, uint64(len(s)+1))
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

func (w *writer) writeBool(b bool) {
	if b {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *writer) prototype(p *Prototype) error {
	w.writeInt(p.lineDefined)
	w.writeInt(p.lastLineDefined)
	w.buf.WriteByte(byte(p.numParams))
	w.buf.WriteByte(p.varargFlag)
	w.buf.WriteByte(byte(p.maxStackSize))

	w.writeInt(len(p.code))
	for _, ins := range p.code {
		w.writeSized(4, uint64(ins.Encode()))
	}

	w.writeInt(len(p.constants))
	for i, c := range p.constants {
		switch v := c.(type) {
		case nil:
			w.buf.WriteByte(TagNil)
		case bool:
			w.buf.WriteByte(TagBoolean)
			w.writeBool(v)
		case float64:
			w.buf.WriteByte(TagNumber)
			w.writeSized(8, math.Float64bits(v))
		case string:
			w.buf.WriteByte(TagString)
			w.writeString(v)
		default:
			return fmt.Errorf("constant %d: unsupported type %T", i, c)
		}
	}

	w.writeInt(len(p.children))
	for _, child := range p.children {
		if err := w.prototype(child); err != nil {
			return err
		}
	}

	w.writeInt(len(p.upvalues))
	for _, uv := range p.upvalues {
		w.writeBool(uv.InStack)
		w.buf.WriteByte(byte(uv.Index))
	}

	w.writeString(p.source)
	w.writeInt(len(p.lineInfo))
	for _, line := range p.lineInfo {
		w.writeInt(line)
	}
	w.writeInt(len(p.locVars))
	for _, lv := range p.locVars {
		w.writeString(lv.Name)
		w.writeInt(lv.StartPC)
		w.writeInt(lv.EndPC)
	}
	w.writeInt(len(p.upvalueNames))
	for _, name := range p.upvalueNames {
		w.writeString(name)
	}
	return nil
}
