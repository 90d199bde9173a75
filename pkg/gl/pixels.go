package gl

import "github.com/gogpu/gputypes"

// Components returns the number of components of a client pixel format
func Components(format Enum) int {
	switch format {
	case Red, Green, Blue, Alpha, Luminance, DepthComponent, RedInteger:
		return 1
	case RG, RGInteger, DepthStencil:
		return 2
	case RGB, BGR, RGBInteger:
		return 3
	case RGBA, BGRA, RGBAInteger:
		return 4
	}
	return 0
}

// TexelSize returns the number of bytes one texel occupies in client memory
// for the given format/type pair. Packed types describe the whole texel.
func TexelSize(format, xtype Enum) (int, bool) {
	switch xtype {
	case UnsignedShort565, UnsignedShort4444, UnsignedShort5551:
		return 2, true
	case UnsignedInt8888, UnsignedInt8888Rev, UnsignedInt2101010Rev,
		UnsignedInt248, UnsignedInt10F11F11FRev, UnsignedInt5999Rev:
		return 4, true
	case Float32UnsignedInt248Rev:
		return 8, true
	}

	n := Components(format)
	if n == 0 {
		return 0, false
	}
	switch xtype {
	case Byte, UnsignedByte:
		return n, true
	case Short, UnsignedShort, HalfFloat:
		return n * 2, true
	case Int, UnsignedInt, Float:
		return n * 4, true
	}
	return 0, false
}

// RowSize applies the pack/unpack alignment rule to one row of texels:
// ceil(width*texelSize/alignment)*alignment.
func RowSize(width, texelSize, alignment int) int {
	if alignment <= 0 {
		alignment = 1
	}
	raw := width * texelSize
	return (raw + alignment - 1) / alignment * alignment
}

// ByteSize computes how many client bytes an upload or readback of the given
// region touches. Every row, including the last, is padded to alignment.
// Unknown format/type pairs and empty regions return 0.
func ByteSize(width, height, depth int, format, xtype Enum, alignment int) int {
	if width <= 0 || height <= 0 || depth <= 0 {
		return 0
	}
	texel, ok := TexelSize(format, xtype)
	if !ok {
		return 0
	}
	return RowSize(width, texel, alignment) * height * depth
}

// BlockInfo describes a block compressed internal format
type BlockInfo struct {
	Width, Height int
	Bytes         int
}

var blockFormats = map[Enum]BlockInfo{
	CompressedRGBS3TCDXT1:  {4, 4, 8},
	CompressedRGBAS3TCDXT1: {4, 4, 8},
	CompressedRGBAS3TCDXT3: {4, 4, 16},
	CompressedRGBAS3TCDXT5: {4, 4, 16},
	CompressedRedRGTC1:     {4, 4, 8},
	CompressedRGRGTC2:      {4, 4, 16},
}

// CompressedBlock returns block geometry for formats ChronoGL knows about
func CompressedBlock(format Enum) (BlockInfo, bool) {
	b, ok := blockFormats[format]
	return b, ok
}

// CompressedByteSize derives the size of a compressed region from its block
// geometry. ok is false for formats whose layout is unknown.
func CompressedByteSize(width, height, depth int, format Enum) (size int, ok bool) {
	b, ok := blockFormats[format]
	if !ok {
		return 0, false
	}
	if width <= 0 || height <= 0 || depth <= 0 {
		return 0, true
	}
	bw := (width + b.Width - 1) / b.Width
	bh := (height + b.Height - 1) / b.Height
	return bw * bh * depth * b.Bytes, true
}

// FormatInfo describes how a sized internal format is stored
type FormatInfo struct {
	// TexelSize is the storage size of one texel. Zero for compressed formats.
	TexelSize int
	// Format and Type name a client format/type pair with the same layout.
	Format Enum
	Type   Enum
	// Compressed is set for block formats.
	Compressed bool
	GPU        gputypes.TextureFormat
}

var internalFormats = map[Enum]FormatInfo{
	R8:                {TexelSize: 1, Format: Red, Type: UnsignedByte, GPU: gputypes.TextureFormatR8Unorm},
	RG8:               {TexelSize: 2, Format: RG, Type: UnsignedByte, GPU: gputypes.TextureFormatUndefined},
	RGB8:              {TexelSize: 3, Format: RGB, Type: UnsignedByte, GPU: gputypes.TextureFormatUndefined},
	RGBA8:             {TexelSize: 4, Format: RGBA, Type: UnsignedByte, GPU: gputypes.TextureFormatRGBA8Unorm},
	SRGB8Alpha8:       {TexelSize: 4, Format: RGBA, Type: UnsignedByte, GPU: gputypes.TextureFormatRGBA8UnormSrgb},
	BGRA8:             {TexelSize: 4, Format: BGRA, Type: UnsignedByte, GPU: gputypes.TextureFormatBGRA8Unorm},
	R16F:              {TexelSize: 2, Format: Red, Type: HalfFloat, GPU: gputypes.TextureFormatUndefined},
	RG16F:             {TexelSize: 4, Format: RG, Type: HalfFloat, GPU: gputypes.TextureFormatUndefined},
	RGBA16F:           {TexelSize: 8, Format: RGBA, Type: HalfFloat, GPU: gputypes.TextureFormatUndefined},
	R32F:              {TexelSize: 4, Format: Red, Type: Float, GPU: gputypes.TextureFormatR32Float},
	RG32F:             {TexelSize: 8, Format: RG, Type: Float, GPU: gputypes.TextureFormatRG32Float},
	RGBA32F:           {TexelSize: 16, Format: RGBA, Type: Float, GPU: gputypes.TextureFormatRGBA32Float},
	DepthComponent16:  {TexelSize: 2, Format: DepthComponent, Type: UnsignedShort, GPU: gputypes.TextureFormatUndefined},
	DepthComponent24:  {TexelSize: 4, Format: DepthComponent, Type: UnsignedInt, GPU: gputypes.TextureFormatUndefined},
	DepthComponent32F: {TexelSize: 4, Format: DepthComponent, Type: Float, GPU: gputypes.TextureFormatUndefined},
	Depth24Stencil8:   {TexelSize: 4, Format: DepthStencil, Type: UnsignedInt248, GPU: gputypes.TextureFormatDepth24PlusStencil8},
}

// InternalFormat returns storage information for a sized or compressed
// internal format.
func InternalFormat(internalformat Enum) (FormatInfo, bool) {
	if info, ok := internalFormats[internalformat]; ok {
		return info, true
	}
	if _, ok := blockFormats[internalformat]; ok {
		return FormatInfo{Compressed: true, GPU: gputypes.TextureFormatUndefined}, true
	}
	return FormatInfo{}, false
}

// Dimensionality returns how many of width/height/depth are meaningful for a
// texture target.
func Dimensionality(target Enum) int {
	switch target {
	case Texture1D:
		return 1
	case Texture3D, Texture2DArray, TextureCubeMapArray:
		return 3
	}
	return 2
}

// GPUDimension maps a GL texture target onto the WebGPU style dimension used
// by downstream consumers of the live resource table.
func GPUDimension(target Enum) gputypes.TextureDimension {
	switch target {
	case Texture1D:
		return gputypes.TextureDimension1D
	case Texture3D:
		return gputypes.TextureDimension3D
	}
	return gputypes.TextureDimension2D
}
