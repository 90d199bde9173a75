// Package resource holds the identity types shared by capture and replay:
// session-unique resource IDs, native handles, and the replay-side live
// resource table handed to downstream consumers.
package resource

import "fmt"

// ID is the stable logical identity of one resource for the lifetime of a
// capture. IDs are never reused, even after the native object is destroyed.
type ID uint64

// Null is the reserved "no resource" identity
const Null ID = 0

// IsNull reports whether id is the null identity
func (id ID) IsNull() bool {
	return id == Null
}

// String returns the string representation of the ID
func (id ID) String() string {
	if id == Null {
		return "ResourceId(null)"
	}
	return fmt.Sprintf("ResourceId(%d)", uint64(id))
}

// Kind identifies a family of API objects. Native names are only unique
// within one kind.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTexture
	KindBuffer
	KindProgram
	KindFramebuffer
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "Texture"
	case KindBuffer:
		return "Buffer"
	case KindProgram:
		return "Program"
	case KindFramebuffer:
		return "Framebuffer"
	default:
		return "Unknown"
	}
}

// Handle is an address-space-local reference to an API object. Capture and
// replay handles live in different address spaces and are only related
// through an ID.
type Handle struct {
	Kind Kind
	Name uint32
}

// TextureHandle wraps a texture name
func TextureHandle(name uint32) Handle {
	return Handle{Kind: KindTexture, Name: name}
}

// IsZero reports whether h refers to the reserved zero object
func (h Handle) IsZero() bool {
	return h.Name == 0
}

// String returns the string representation of the Handle
func (h Handle) String() string {
	return fmt.Sprintf("%s(%d)", h.Kind, h.Name)
}
