package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// HeaderSize is the size in bytes of an encoded chunk header.
const HeaderSize = 18

// Signature is the magic prefix of every binary chunk.
var Signature = [4]byte{0x1B, 'L', 'u', 'a'}

// Tail is the fixed trailer of the header, used to detect text-mode
// corruption of the chunk.
var Tail = [6]byte{0x19, 0x93, 0x0D, 0x0A, 0x1A, 0x0A}

// Version is the only chunk version this package understands.
const Version = 0x52

// Header is the 18-byte chunk header. The six system parameters describe the
// machine that produced the chunk; the codec reads counts and strings using
// the integer sizes and byte order they declare.
type Header struct {
	Signature [4]byte
	Version   byte
	Format    byte

	// System parameters
	Endianness      byte // 1 for little endian
	IntSize         byte
	SizeTSize       byte
	InstructionSize byte
	NumberSize      byte
	Integral        byte

	Tail [6]byte
}

// DefaultHeader returns the header of a chunk produced by the reference
// compiler on a little endian machine with 32-bit ints and sizes.
func DefaultHeader() *Header {
	return &Header{
		Signature:       Signature,
		Version:         Version,
		Format:          0,
		Endianness:      1,
		IntSize:         4,
		SizeTSize:       4,
		InstructionSize: 4,
		NumberSize:      8,
		Integral:        0,
		Tail:            Tail,
	}
}

// ByteOrder returns the byte order declared by the header.
func (h *Header) ByteOrder() binary.ByteOrder {
	if h.Endianness == 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Validate checks every header field against the values this package
// supports and reports all mismatches at once.
func (h *Header) Validate() error {
	var result *multierror.Error
	if h.Signature != Signature {
		result = multierror.Append(result, fmt.Errorf("bad signature % x", h.Signature[:]))
	}
	if h.Version != Version {
		result = multierror.Append(result, fmt.Errorf("version mismatch: got 0x%02x, want 0x%02x", h.Version, Version))
	}
	if h.Format != 0 {
		result = multierror.Append(result, fmt.Errorf("unsupported format %d", h.Format))
	}
	if h.Endianness > 1 {
		result = multierror.Append(result, fmt.Errorf("bad endianness flag %d", h.Endianness))
	}
	if h.IntSize != 4 && h.IntSize != 8 {
		result = multierror.Append(result, fmt.Errorf("unsupported int size %d", h.IntSize))
	}
	if h.SizeTSize != 4 && h.SizeTSize != 8 {
		result = multierror.Append(result, fmt.Errorf("unsupported size_t size %d", h.SizeTSize))
	}
	if h.InstructionSize != 4 {
		result = multierror.Append(result, fmt.Errorf("unsupported instruction size %d", h.InstructionSize))
	}
	if h.NumberSize != 8 {
		result = multierror.Append(result, fmt.Errorf("unsupported number size %d", h.NumberSize))
	}
	if h.Integral != 0 {
		result = multierror.Append(result, fmt.Errorf("integral numbers are not supported"))
	}
	if h.Tail != Tail {
		result = multierror.Append(result, fmt.Errorf("corrupted header tail % x", h.Tail[:]))
	}
	return result.ErrorOrNil()
}

func (h *Header) bytes() []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, h.Signature[:]...)
	buf = append(buf, h.Version, h.Format, h.Endianness, h.IntSize,
		h.SizeTSize, h.InstructionSize, h.NumberSize, h.Integral)
	buf = append(buf, h.Tail[:]...)
	return buf
}
