// Package bytecode provides immutable representations of precompiled Lua 5.2
// chunks and the codec that reads and writes them.
//
// # Key Types
//
//   - [Header]: the 18-byte chunk header
//   - [Prototype]: an immutable function blueprint with its instructions,
//     constants, nested prototypes, upvalue descriptors and debug tables
//   - [Instruction]: one decoded 32-bit instruction
//
// # Immutability Guarantees
//
// A [Prototype] has no mutation methods. Its constructor copies the input
// slices and index-based accessors are used for all collections:
//
//	proto.InstructionAt(0)
//	proto.ConstantAt(i)
//	proto.ChildAt(j)
//
// Prototypes may therefore be shared by any number of closures and virtual
// machines.
//
// # Constants
//
// Constants are stored as Go values: nil, bool, float64 or string. The
// virtual machine converts them to runtime values when it loads a chunk.
//
// # Usage
//
//	header, proto, err := bytecode.Decode(data)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Instructions: %d\n", proto.InstructionCount())
//
//	// Decode is the right inverse of Encode
//	data, err = bytecode.Encode(header, proto)
package bytecode
