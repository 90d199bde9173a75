package instrumentation

import (
	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

func (c *Context) GenTextures(textures []uint32) {
	defer c.region("GenTextures").End()
	c.real.GenTextures(textures)
	for _, name := range textures {
		c.session.Created(resource.TextureHandle(name))
	}
}

func (c *Context) DeleteTextures(textures []uint32) {
	defer c.region("DeleteTextures").End()
	c.real.DeleteTextures(textures)
	for _, name := range textures {
		if name == 0 {
			continue
		}
		h := resource.TextureHandle(name)
		if id := c.session.Registry().IDOf(h); !id.IsNull() {
			c.forget(id)
		}
		c.session.Deleted(h)
	}
}

// forget drops id from every binding point, as the API unbinds a deleted
// texture everywhere.
func (c *Context) forget(id resource.ID) {
	for _, unit := range c.bound {
		for target, bound := range unit {
			if bound == id {
				delete(unit, target)
			}
		}
	}
}

func (c *Context) BindTexture(target gl.Enum, texture uint32) {
	defer c.region("BindTexture").End()
	c.real.BindTexture(target, texture)
	id := c.session.Bound(target, resource.TextureHandle(texture))
	if id.IsNull() {
		delete(c.bound[c.active], target)
		return
	}
	c.bound[c.active][target] = id
}

func (c *Context) ActiveTexture(texture gl.Enum) {
	defer c.region("ActiveTexture").End()
	c.real.ActiveTexture(texture)
	if i, ok := gl.UnitIndex(texture); ok {
		c.active = i
	}
	c.session.Record(chunk.OpActiveTexture, nil, texture)
}

func (c *Context) TexParameteri(target, pname gl.Enum, param int32) {
	defer c.region("TexParameteri").End()
	c.real.TexParameteri(target, pname, param)
	c.session.Record(chunk.OpTexParameteri, nil, target, pname, param, c.BoundID(target))
}

func (c *Context) TexParameteriv(target, pname gl.Enum, params []int32) {
	defer c.region("TexParameteriv").End()
	c.real.TexParameteriv(target, pname, params)
	c.session.Record(chunk.OpTexParameteriv, nil, target, pname, c.BoundID(target), params)
}

func (c *Context) TexParameterf(target, pname gl.Enum, param float32) {
	defer c.region("TexParameterf").End()
	c.real.TexParameterf(target, pname, param)
	c.session.Record(chunk.OpTexParameterf, nil, target, pname, param, c.BoundID(target))
}

func (c *Context) TexParameterfv(target, pname gl.Enum, params []float32) {
	defer c.region("TexParameterfv").End()
	c.real.TexParameterfv(target, pname, params)
	c.session.Record(chunk.OpTexParameterfv, nil, target, pname, c.BoundID(target), params)
}

func (c *Context) GenerateMipmap(target gl.Enum) {
	defer c.region("GenerateMipmap").End()
	c.real.GenerateMipmap(target)
	c.session.Record(chunk.OpGenerateMipmap, nil, target, c.BoundID(target))
}

func (c *Context) PixelStorei(pname gl.Enum, param int32) {
	defer c.region("PixelStorei").End()
	c.real.PixelStorei(pname, param)
	c.session.Record(chunk.OpPixelStore, nil, pname, param)
}

func (c *Context) GetIntegerv(pname gl.Enum, data []int32) {
	c.real.GetIntegerv(pname, data)
}

func (c *Context) GetError() gl.Enum {
	return c.real.GetError()
}

func (c *Context) TexStorage1D(target gl.Enum, levels int32, internalformat gl.Enum, width int32) {
	defer c.region("TexStorage1D").End()
	c.real.TexStorage1D(target, levels, internalformat, width)
	c.session.Record(chunk.OpTexStorage1D, nil,
		target, uint32(levels), internalformat, uint32(width), c.BoundID(target))
}

func (c *Context) TexStorage2D(target gl.Enum, levels int32, internalformat gl.Enum, width, height int32) {
	defer c.region("TexStorage2D").End()
	c.real.TexStorage2D(target, levels, internalformat, width, height)
	c.session.Record(chunk.OpTexStorage2D, nil,
		target, uint32(levels), internalformat, uint32(width), uint32(height), c.BoundID(target))
}

func (c *Context) TexStorage3D(target gl.Enum, levels int32, internalformat gl.Enum, width, height, depth int32) {
	defer c.region("TexStorage3D").End()
	c.real.TexStorage3D(target, levels, internalformat, width, height, depth)
	c.session.Record(chunk.OpTexStorage3D, nil,
		target, uint32(levels), internalformat, uint32(width), uint32(height), uint32(depth), c.BoundID(target))
}

func (c *Context) TexSubImage1D(target gl.Enum, level, xoffset, width int32, format, xtype gl.Enum, pixels []byte) {
	defer c.region("TexSubImage1D").End()
	c.real.TexSubImage1D(target, level, xoffset, width, format, xtype, pixels)
	if !c.recording() {
		return
	}
	c.session.Record(chunk.OpTexSubImage1D, pixels,
		target, level, xoffset, uint32(width), format, xtype, c.unpackAlignment(), c.BoundID(target))
}

func (c *Context) TexSubImage2D(target gl.Enum, level, xoffset, yoffset, width, height int32, format, xtype gl.Enum, pixels []byte) {
	defer c.region("TexSubImage2D").End()
	c.real.TexSubImage2D(target, level, xoffset, yoffset, width, height, format, xtype, pixels)
	if !c.recording() {
		return
	}
	c.session.Record(chunk.OpTexSubImage2D, pixels,
		target, level, xoffset, yoffset, uint32(width), uint32(height), format, xtype, c.unpackAlignment(), c.BoundID(target))
}

func (c *Context) TexSubImage3D(target gl.Enum, level, xoffset, yoffset, zoffset, width, height, depth int32, format, xtype gl.Enum, pixels []byte) {
	defer c.region("TexSubImage3D").End()
	c.real.TexSubImage3D(target, level, xoffset, yoffset, zoffset, width, height, depth, format, xtype, pixels)
	if !c.recording() {
		return
	}
	c.session.Record(chunk.OpTexSubImage3D, pixels,
		target, level, xoffset, yoffset, zoffset, uint32(width), uint32(height), uint32(depth),
		format, xtype, c.unpackAlignment(), c.BoundID(target))
}

func (c *Context) CompressedTexSubImage1D(target gl.Enum, level, xoffset, width int32, format gl.Enum, imageSize int32, data []byte) {
	defer c.region("CompressedTexSubImage1D").End()
	c.real.CompressedTexSubImage1D(target, level, xoffset, width, format, imageSize, data)
	c.session.Record(chunk.OpCompressedTexSubImage1D, data,
		target, level, xoffset, uint32(width), format, uint32(imageSize), c.BoundID(target))
}

func (c *Context) CompressedTexSubImage2D(target gl.Enum, level, xoffset, yoffset, width, height int32, format gl.Enum, imageSize int32, data []byte) {
	defer c.region("CompressedTexSubImage2D").End()
	c.real.CompressedTexSubImage2D(target, level, xoffset, yoffset, width, height, format, imageSize, data)
	c.session.Record(chunk.OpCompressedTexSubImage2D, data,
		target, level, xoffset, yoffset, uint32(width), uint32(height), format, uint32(imageSize), c.BoundID(target))
}

func (c *Context) CompressedTexSubImage3D(target gl.Enum, level, xoffset, yoffset, zoffset, width, height, depth int32, format gl.Enum, imageSize int32, data []byte) {
	defer c.region("CompressedTexSubImage3D").End()
	c.real.CompressedTexSubImage3D(target, level, xoffset, yoffset, zoffset, width, height, depth, format, imageSize, data)
	c.session.Record(chunk.OpCompressedTexSubImage3D, data,
		target, level, xoffset, yoffset, zoffset, uint32(width), uint32(height), uint32(depth),
		format, uint32(imageSize), c.BoundID(target))
}
