// Package chunk implements the binary record format for intercepted calls.
//
// Every opcode is described once by a Descriptor: its ordered field schema,
// the routing class the capture layer uses to pick a log, and the rule that
// derives its trailing payload size from the other fields. Build, Encode and
// Decode are all driven by that single description, so encoding and decoding
// of one opcode cannot drift apart.
//
// # Wire format (version 1)
//
//	[u16 opcode][field 1]...[field n][u32 payload length][payload bytes]
//
// All integers are little endian. The payload length is present only for
// opcodes that declare a payload. Fields are encoded as:
//
//	enum, int32, uint32, float32   4 bytes
//	resource id                    8 bytes
//	int32/float32 array            count*4 bytes, count derived from earlier fields
//
// In a stream each chunk is framed by a u32 byte length.
package chunk

import "fmt"

// FormatVersion is the version of the chunk wire format. Any change to an
// opcode number or a field order must bump it.
const FormatVersion uint16 = 1

// Opcode tags a recorded call. Values are part of the wire format.
type Opcode uint16

const (
	OpInvalid Opcode = 0

	OpCreateTexture Opcode = 1
	OpDeleteTexture Opcode = 2
	OpBindTexture   Opcode = 3
	OpActiveTexture Opcode = 4
	OpPixelStore    Opcode = 5

	OpTexParameteri  Opcode = 10
	OpTexParameteriv Opcode = 11
	OpTexParameterf  Opcode = 12
	OpTexParameterfv Opcode = 13
	OpGenerateMipmap Opcode = 14

	OpTexStorage1D Opcode = 20
	OpTexStorage2D Opcode = 21
	OpTexStorage3D Opcode = 22

	OpTexSubImage1D Opcode = 30
	OpTexSubImage2D Opcode = 31
	OpTexSubImage3D Opcode = 32

	OpCompressedTexSubImage1D Opcode = 40
	OpCompressedTexSubImage2D Opcode = 41
	OpCompressedTexSubImage3D Opcode = 42
)

// String returns the opcode's name, or its number when unknown
func (op Opcode) String() string {
	if d, ok := descriptors[op]; ok {
		return d.Name
	}
	return fmt.Sprintf("Opcode(%d)", uint16(op))
}

// ParseOpcode looks an opcode up by name
func ParseOpcode(name string) (Opcode, bool) {
	for op, d := range descriptors {
		if d.Name == name {
			return op, true
		}
	}
	return OpInvalid, false
}
