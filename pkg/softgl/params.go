package softgl

import "github.com/willibrandon/ChronoGL/pkg/gl"

func parameterCount(pname gl.Enum) int {
	switch pname {
	case gl.TextureBorderColor, gl.TextureSwizzleRGBA:
		return 4
	case gl.TextureMagFilter, gl.TextureMinFilter, gl.TextureWrapS, gl.TextureWrapT,
		gl.TextureWrapR, gl.TextureMinLOD, gl.TextureMaxLOD, gl.TextureBaseLevel,
		gl.TextureMaxLevel, gl.TextureLODBias, gl.TextureCompareMode, gl.TextureCompareFunc,
		gl.TextureSwizzleR, gl.TextureSwizzleG, gl.TextureSwizzleB, gl.TextureSwizzleA:
		return 1
	}
	return 0
}

// TexParameteri sets a scalar integer parameter
func (c *Context) TexParameteri(target, pname gl.Enum, param int32) {
	c.TexParameteriv(target, pname, []int32{param})
}

// TexParameteriv sets an integer parameter. Vector parameters take four
// values; scalar parameters ignore everything after the first.
func (c *Context) TexParameteriv(target, pname gl.Enum, params []int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	n := parameterCount(pname)
	if n == 0 {
		c.setError(gl.InvalidEnum)
		return
	}
	if len(params) < n {
		c.setError(gl.InvalidValue)
		return
	}
	t.Ints[pname] = append([]int32(nil), params[:n]...)
	delete(t.Floats, pname)
}

// TexParameterf sets a scalar float parameter
func (c *Context) TexParameterf(target, pname gl.Enum, param float32) {
	c.TexParameterfv(target, pname, []float32{param})
}

// TexParameterfv sets a float parameter
func (c *Context) TexParameterfv(target, pname gl.Enum, params []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	n := parameterCount(pname)
	if n == 0 {
		c.setError(gl.InvalidEnum)
		return
	}
	if len(params) < n {
		c.setError(gl.InvalidValue)
		return
	}
	t.Floats[pname] = append([]float32(nil), params[:n]...)
	delete(t.Ints, pname)
}
