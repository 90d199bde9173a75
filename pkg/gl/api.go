// Package gl describes the boundary of the intercepted graphics API: the
// enumerants ChronoGL understands, the texture entry points it wraps, and the
// pixel size rules shared by capture and replay.
package gl

// API is the real graphics API for one context.
//
// Capture wraps an API and forwards every call to it unmodified before any
// recording happens. Replay reissues decoded calls against a fresh API. Slices
// stand in for the C pointer arguments; implementations must not retain them.
type API interface {
	GenTextures(textures []uint32)
	DeleteTextures(textures []uint32)
	BindTexture(target Enum, texture uint32)
	ActiveTexture(texture Enum)

	TexParameteri(target, pname Enum, param int32)
	TexParameteriv(target, pname Enum, params []int32)
	TexParameterf(target, pname Enum, param float32)
	TexParameterfv(target, pname Enum, params []float32)
	GenerateMipmap(target Enum)

	PixelStorei(pname Enum, param int32)
	GetIntegerv(pname Enum, data []int32)
	GetError() Enum

	TexStorage1D(target Enum, levels int32, internalformat Enum, width int32)
	TexStorage2D(target Enum, levels int32, internalformat Enum, width, height int32)
	TexStorage3D(target Enum, levels int32, internalformat Enum, width, height, depth int32)

	TexSubImage1D(target Enum, level, xoffset, width int32, format, xtype Enum, pixels []byte)
	TexSubImage2D(target Enum, level, xoffset, yoffset, width, height int32, format, xtype Enum, pixels []byte)
	TexSubImage3D(target Enum, level, xoffset, yoffset, zoffset, width, height, depth int32, format, xtype Enum, pixels []byte)

	CompressedTexSubImage1D(target Enum, level, xoffset, width int32, format Enum, imageSize int32, data []byte)
	CompressedTexSubImage2D(target Enum, level, xoffset, yoffset, width, height int32, format Enum, imageSize int32, data []byte)
	CompressedTexSubImage3D(target Enum, level, xoffset, yoffset, zoffset, width, height, depth int32, format Enum, imageSize int32, data []byte)

	// Legacy entry points that allocate and upload in one step.
	TexImage1D(target Enum, level int32, internalformat Enum, width, border int32, format, xtype Enum, pixels []byte)
	TexImage2D(target Enum, level int32, internalformat Enum, width, height, border int32, format, xtype Enum, pixels []byte)
	TexImage3D(target Enum, level int32, internalformat Enum, width, height, depth, border int32, format, xtype Enum, pixels []byte)
	CompressedTexImage1D(target Enum, level int32, internalformat Enum, width, border, imageSize int32, data []byte)
	CompressedTexImage2D(target Enum, level int32, internalformat Enum, width, height, border, imageSize int32, data []byte)
	CompressedTexImage3D(target Enum, level int32, internalformat Enum, width, height, depth, border, imageSize int32, data []byte)
}

// UnitIndex converts a GL_TEXTUREi enumerant to its zero based unit index
func UnitIndex(texture Enum) (int, bool) {
	if texture < Texture0 || texture >= Texture0+MaxTextureUnits {
		return 0, false
	}
	return int(texture - Texture0), true
}
