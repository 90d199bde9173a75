package gl

import "fmt"

// Enum is a GL enumerant as passed across the API boundary
type Enum uint32

// Texture targets
const (
	Texture1D            Enum = 0x0DE0
	Texture2D            Enum = 0x0DE1
	Texture3D            Enum = 0x806F
	Texture1DArray       Enum = 0x8C18
	Texture2DArray       Enum = 0x8C1A
	TextureRectangle     Enum = 0x84F5
	TextureCubeMap       Enum = 0x8513
	TextureCubeMapArray  Enum = 0x9009
	Texture2DMultisample Enum = 0x9100
)

// Texture units
const (
	Texture0           Enum = 0x84C0
	ActiveTextureParam Enum = 0x84E0
	MaxTextureUnits         = 32
)

// Texture parameter names
const (
	TextureMagFilter   Enum = 0x2800
	TextureMinFilter   Enum = 0x2801
	TextureWrapS       Enum = 0x2802
	TextureWrapT       Enum = 0x2803
	TextureWrapR       Enum = 0x8072
	TextureBorderColor Enum = 0x1004
	TextureMinLOD      Enum = 0x813A
	TextureMaxLOD      Enum = 0x813B
	TextureBaseLevel   Enum = 0x813C
	TextureMaxLevel    Enum = 0x813D
	TextureLODBias     Enum = 0x8501
	TextureCompareMode Enum = 0x884C
	TextureCompareFunc Enum = 0x884D
	TextureSwizzleR    Enum = 0x8E42
	TextureSwizzleG    Enum = 0x8E43
	TextureSwizzleB    Enum = 0x8E44
	TextureSwizzleA    Enum = 0x8E45
	TextureSwizzleRGBA Enum = 0x8E46
)

// Texture parameter values
const (
	Nearest              Enum = 0x2600
	Linear               Enum = 0x2601
	NearestMipmapNearest Enum = 0x2700
	LinearMipmapNearest  Enum = 0x2701
	NearestMipmapLinear  Enum = 0x2702
	LinearMipmapLinear   Enum = 0x2703
	Repeat               Enum = 0x2901
	ClampToBorder        Enum = 0x812D
	ClampToEdge          Enum = 0x812F
	MirroredRepeat       Enum = 0x8370
)

// Pixel store parameters
const (
	UnpackRowLength Enum = 0x0CF2
	UnpackAlignment Enum = 0x0CF5
	PackRowLength   Enum = 0x0D02
	PackAlignment   Enum = 0x0D05
)

// Pixel formats
const (
	DepthComponent Enum = 0x1902
	Red            Enum = 0x1903
	Green          Enum = 0x1904
	Blue           Enum = 0x1905
	Alpha          Enum = 0x1906
	RGB            Enum = 0x1907
	RGBA           Enum = 0x1908
	Luminance      Enum = 0x1909
	BGR            Enum = 0x80E0
	BGRA           Enum = 0x80E1
	RG             Enum = 0x8227
	DepthStencil   Enum = 0x84F9
	RedInteger     Enum = 0x8D94
	RGBInteger     Enum = 0x8D98
	RGBAInteger    Enum = 0x8D99
	RGInteger      Enum = 0x8228
)

// Pixel component types
const (
	Byte                     Enum = 0x1400
	UnsignedByte             Enum = 0x1401
	Short                    Enum = 0x1402
	UnsignedShort            Enum = 0x1403
	Int                      Enum = 0x1404
	UnsignedInt              Enum = 0x1405
	Float                    Enum = 0x1406
	HalfFloat                Enum = 0x140B
	UnsignedShort4444        Enum = 0x8033
	UnsignedShort5551        Enum = 0x8034
	UnsignedInt8888          Enum = 0x8035
	UnsignedShort565         Enum = 0x8363
	UnsignedInt8888Rev       Enum = 0x8367
	UnsignedInt2101010Rev    Enum = 0x8368
	UnsignedInt248           Enum = 0x84FA
	Float32UnsignedInt248Rev Enum = 0x8DAD
	UnsignedInt10F11F11FRev  Enum = 0x8C3B
	UnsignedInt5999Rev       Enum = 0x8C3E
)

// Sized internal formats
const (
	R8                Enum = 0x8229
	RG8               Enum = 0x822B
	RGB8              Enum = 0x8051
	RGBA8             Enum = 0x8058
	SRGB8Alpha8       Enum = 0x8C43
	BGRA8             Enum = 0x93A1
	R16F              Enum = 0x822D
	RG16F             Enum = 0x822F
	RGBA16F           Enum = 0x881A
	R32F              Enum = 0x822E
	RG32F             Enum = 0x8230
	RGBA32F           Enum = 0x8814
	DepthComponent16  Enum = 0x81A5
	DepthComponent24  Enum = 0x81A6
	DepthComponent32F Enum = 0x8CAC
	Depth24Stencil8   Enum = 0x88F0
)

// Compressed internal formats
const (
	CompressedRGBS3TCDXT1  Enum = 0x83F0
	CompressedRGBAS3TCDXT1 Enum = 0x83F1
	CompressedRGBAS3TCDXT3 Enum = 0x83F2
	CompressedRGBAS3TCDXT5 Enum = 0x83F3
	CompressedRedRGTC1     Enum = 0x8DBB
	CompressedRGRGTC2      Enum = 0x8DBD
)

// Errors reported by GetError
const (
	NoError          Enum = 0
	InvalidEnum      Enum = 0x0500
	InvalidValue     Enum = 0x0501
	InvalidOperation Enum = 0x0502
	OutOfMemory      Enum = 0x0505
)

var enumNames = map[Enum]string{
	Texture1D:            "GL_TEXTURE_1D",
	Texture2D:            "GL_TEXTURE_2D",
	Texture3D:            "GL_TEXTURE_3D",
	Texture1DArray:       "GL_TEXTURE_1D_ARRAY",
	Texture2DArray:       "GL_TEXTURE_2D_ARRAY",
	TextureRectangle:     "GL_TEXTURE_RECTANGLE",
	TextureCubeMap:       "GL_TEXTURE_CUBE_MAP",
	TextureCubeMapArray:  "GL_TEXTURE_CUBE_MAP_ARRAY",
	Texture2DMultisample: "GL_TEXTURE_2D_MULTISAMPLE",
	TextureMagFilter:     "GL_TEXTURE_MAG_FILTER",
	TextureMinFilter:     "GL_TEXTURE_MIN_FILTER",
	TextureWrapS:         "GL_TEXTURE_WRAP_S",
	TextureWrapT:         "GL_TEXTURE_WRAP_T",
	TextureWrapR:         "GL_TEXTURE_WRAP_R",
	TextureBorderColor:   "GL_TEXTURE_BORDER_COLOR",
	TextureSwizzleRGBA:   "GL_TEXTURE_SWIZZLE_RGBA",
	UnpackAlignment:      "GL_UNPACK_ALIGNMENT",
	PackAlignment:        "GL_PACK_ALIGNMENT",
	RGBA:                 "GL_RGBA",
	RGB:                  "GL_RGB",
	Red:                  "GL_RED",
	BGRA:                 "GL_BGRA",
	UnsignedByte:         "GL_UNSIGNED_BYTE",
	Float:                "GL_FLOAT",
	RGBA8:                "GL_RGBA8",
	R8:                   "GL_R8",
	InvalidEnum:          "GL_INVALID_ENUM",
	InvalidValue:         "GL_INVALID_VALUE",
	InvalidOperation:     "GL_INVALID_OPERATION",
}

// String returns the GL spelling of well-known enumerants and hex otherwise
func (e Enum) String() string {
	if name, ok := enumNames[e]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint32(e))
}

// IsTextureTarget reports whether e names a bindable texture target
func IsTextureTarget(e Enum) bool {
	switch e {
	case Texture1D, Texture2D, Texture3D, Texture1DArray, Texture2DArray,
		TextureRectangle, TextureCubeMap, TextureCubeMapArray, Texture2DMultisample:
		return true
	}
	return false
}
