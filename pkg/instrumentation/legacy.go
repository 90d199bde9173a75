package instrumentation

import "github.com/willibrandon/ChronoGL/pkg/gl"

// The combined allocate-and-upload entry points are forwarded but not
// captured. Resources they fill replay without that content.

func (c *Context) TexImage1D(target gl.Enum, level int32, internalformat gl.Enum, width, border int32, format, xtype gl.Enum, pixels []byte) {
	c.real.TexImage1D(target, level, internalformat, width, border, format, xtype, pixels)
	c.session.Unsupported("TexImage1D")
}

func (c *Context) TexImage2D(target gl.Enum, level int32, internalformat gl.Enum, width, height, border int32, format, xtype gl.Enum, pixels []byte) {
	c.real.TexImage2D(target, level, internalformat, width, height, border, format, xtype, pixels)
	c.session.Unsupported("TexImage2D")
}

func (c *Context) TexImage3D(target gl.Enum, level int32, internalformat gl.Enum, width, height, depth, border int32, format, xtype gl.Enum, pixels []byte) {
	c.real.TexImage3D(target, level, internalformat, width, height, depth, border, format, xtype, pixels)
	c.session.Unsupported("TexImage3D")
}

func (c *Context) CompressedTexImage1D(target gl.Enum, level int32, internalformat gl.Enum, width, border, imageSize int32, data []byte) {
	c.real.CompressedTexImage1D(target, level, internalformat, width, border, imageSize, data)
	c.session.Unsupported("CompressedTexImage1D")
}

func (c *Context) CompressedTexImage2D(target gl.Enum, level int32, internalformat gl.Enum, width, height, border, imageSize int32, data []byte) {
	c.real.CompressedTexImage2D(target, level, internalformat, width, height, border, imageSize, data)
	c.session.Unsupported("CompressedTexImage2D")
}

func (c *Context) CompressedTexImage3D(target gl.Enum, level int32, internalformat gl.Enum, width, height, depth, border, imageSize int32, data []byte) {
	c.real.CompressedTexImage3D(target, level, internalformat, width, height, depth, border, imageSize, data)
	c.session.Unsupported("CompressedTexImage3D")
}
