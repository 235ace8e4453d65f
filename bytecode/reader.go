package bytecode

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/nuavm/nua/errz"
)

// Constant tags used in the constant pool.
const (
	TagNil     = 0
	TagBoolean = 1
	TagNumber  = 3
	TagString  = 4
)

// Load reads a complete binary chunk from r.
func Load(r io.Reader) (*Header, *Prototype, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return Decode(data)
}

// Decode parses a binary chunk into its header and top-level prototype.
func Decode(data []byte) (*Header, *Prototype, error) {
	if len(data) < len(Signature) || !bytes.Equal(data[:len(Signature)], Signature[:]) {
		return nil, nil, errz.NewFormatError(0, "not a precompiled chunk")
	}
	if len(data) < HeaderSize {
		return nil, nil, errz.NewFormatError(len(data), "truncated header")
	}
	h := &Header{}
	copy(h.Signature[:], data[0:4])
	h.Version = data[4]
	h.Format = data[5]
	h.Endianness = data[6]
	h.IntSize = data[7]
	h.SizeTSize = data[8]
	h.InstructionSize = data[9]
	h.NumberSize = data[10]
	h.Integral = data[11]
	copy(h.Tail[:], data[12:18])

	if h.InstructionSize != 4 || h.NumberSize != 8 || h.Integral != 0 {
		return nil, nil, errz.NewFormatError(9, "unsupported instruction or number format")
	}
	if (h.IntSize != 4 && h.IntSize != 8) || (h.SizeTSize != 4 && h.SizeTSize != 8) {
		return nil, nil, errz.NewFormatError(7, "unsupported int or size_t size")
	}
	r := &reader{
		data:      data,
		pos:       HeaderSize,
		order:     h.ByteOrder(),
		intSize:   int(h.IntSize),
		sizeTSize: int(h.SizeTSize),
	}
	proto, err := r.prototype()
	if err != nil {
		return nil, nil, err
	}
	return h, proto, nil
}

type reader struct {
	data      []byte
	pos       int
	order     binary.ByteOrder
	intSize   int
	sizeTSize int
}

func (r *reader) fail(format string, args ...any) error {
	return errz.NewFormatError(r.pos, format, args...)
}

func (r *reader) need(n int) error {
	if n < 0 || len(r.data)-r.pos < n {
		return r.fail("truncated chunk")
	}
	return nil
}

func (r *reader) readByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) readSized(size int) (uint64, error) {
	if size == 4 {
		v, err := r.readUint32()
		return uint64(v), err
	}
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.order.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) readInt() (int, error) {
	v, err := r.readSized(r.intSize)
	return int(v), err
}

// readCount reads a list length and checks that at least minSize bytes per
// element remain.
func (r *reader) readCount(minSize int) (int, error) {
	v, err := r.readSized(r.intSize)
	if err != nil {
		return 0, err
	}
	if v > uint64(len(r.data)) || int(v)*minSize > len(r.data)-r.pos {
		return 0, r.fail("list of %d elements exceeds chunk size", v)
	}
	return int(v), nil
}

func (r *reader) readNumber() (float64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	bits := r.order.Uint64(r.data[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

func (r *reader) readString() (string, error) {
	size, err := r.readSized(r.sizeTSize)
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	if size > uint64(len(r.data)-r.pos) {
		return "", r.fail("truncated string")
	}
	n := int(size)
	s := string(r.data[r.pos : r.pos+n-1])
	r.pos += n
	return s, nil
}

func (r *reader) prototype() (*Prototype, error) {
	var params PrototypeParams
	var err error
	if params.LineDefined, err = r.readInt(); err != nil {
		return nil, err
	}
	if params.LastLineDefined, err = r.readInt(); err != nil {
		return nil, err
	}
	var b byte
	if b, err = r.readByte(); err != nil {
		return nil, err
	}
	params.NumParams = int(b)
	if params.VarargFlag, err = r.readByte(); err != nil {
		return nil, err
	}
	if b, err = r.readByte(); err != nil {
		return nil, err
	}
	params.MaxStackSize = int(b)

	if params.Code, err = r.code(); err != nil {
		return nil, err
	}
	if params.Constants, err = r.constants(); err != nil {
		return nil, err
	}
	if params.Children, err = r.children(); err != nil {
		return nil, err
	}
	if params.Upvalues, err = r.upvalues(); err != nil {
		return nil, err
	}
	if err = r.debug(&params); err != nil {
		return nil, err
	}
	return NewPrototype(params), nil
}

func (r *reader) code() ([]Instruction, error) {
	n, err := r.readCount(4)
	if err != nil {
		return nil, err
	}
	code := make([]Instruction, n)
	for i := range code {
		offset := r.pos
		raw, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		ins, err := DecodeInstruction(raw)
		if err != nil {
			return nil, errz.NewFormatError(offset, "invalid opcode %d", raw&maskOp)
		}
		code[i] = ins
	}
	return code, nil
}

func (r *reader) constants() ([]any, error) {
	n, err := r.readCount(1)
	if err != nil {
		return nil, err
	}
	constants := make([]any, n)
	for i := range constants {
		tag, err := r.readByte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagNil:
			constants[i] = nil
		case TagBoolean:
			b, err := r.readByte()
			if err != nil {
				return nil, err
			}
			constants[i] = b != 0
		case TagNumber:
			f, err := r.readNumber()
			if err != nil {
				return nil, err
			}
			constants[i] = f
		case TagString:
			s, err := r.readString()
			if err != nil {
				return nil, err
			}
			constants[i] = s
		default:
			r.pos--
			return nil, r.fail("invalid constant tag %d", tag)
		}
	}
	return constants, nil
}

func (r *reader) children() ([]*Prototype, error) {
	n, err := r.readCount(1)
	if err != nil {
		return nil, err
	}
	children := make([]*Prototype, n)
	for i := range children {
		if children[i], err = r.prototype(); err != nil {
			return nil, err
		}
	}
	return children, nil
}

func (r *reader) upvalues() ([]UpvalueDesc, error) {
	n, err := r.readCount(2)
	if err != nil {
		return nil, err
	}
	upvalues := make([]UpvalueDesc, n)
	for i := range upvalues {
		inStack, err := r.readByte()
		if err != nil {
			return nil, err
		}
		idx, err := r.readByte()
		if err != nil {
			return nil, err
		}
		upvalues[i] = UpvalueDesc{InStack: inStack != 0, Index: int(idx)}
	}
	return upvalues, nil
}

func (r *reader) debug(params *PrototypeParams) error {
	var err error
	if params.Source, err = r.readString(); err != nil {
		return err
	}
	n, err := r.readCount(r.intSize)
	if err != nil {
		return err
	}
	params.LineInfo = make([]int, n)
	for i := range params.LineInfo {
		if params.LineInfo[i], err = r.readInt(); err != nil {
			return err
		}
	}
	if n, err = r.readCount(1); err != nil {
		return err
	}
	params.LocVars = make([]LocVar, n)
	for i := range params.LocVars {
		lv := &params.LocVars[i]
		if lv.Name, err = r.readString(); err != nil {
			return err
		}
		if lv.StartPC, err = r.readInt(); err != nil {
			return err
		}
		if lv.EndPC, err = r.readInt(); err != nil {
			return err
		}
	}
	if n, err = r.readCount(1); err != nil {
		return err
	}
	params.UpvalueNames = make([]string, n)
	for i := range params.UpvalueNames {
		if params.UpvalueNames[i], err = r.readString(); err != nil {
			return err
		}
	}
	return nil
}
