package softgl

import "github.com/willibrandon/ChronoGL/pkg/gl"

// defineLevel (re)allocates one level of a mutable texture
func (c *Context) defineLevel(t *texture, level int, internalformat gl.Enum, w, h, d, border int) *Level {
	if t.Immutable {
		c.setError(gl.InvalidOperation)
		return nil
	}
	if border != 0 || level < 0 || w < 0 || h < 0 || d < 0 {
		c.setError(gl.InvalidValue)
		return nil
	}
	for len(t.Levels) <= level {
		t.Levels = append(t.Levels, Level{})
	}
	t.InternalFormat = internalformat
	t.Levels[level] = newLevel(internalformat, w, h, d)
	return &t.Levels[level]
}

// TexImage1D allocates and optionally uploads one level in a single step
func (c *Context) TexImage1D(target gl.Enum, level int32, internalformat gl.Enum, width, border int32, format, xtype gl.Enum, pixels []byte) {
	c.texImage(target, int(level), internalformat, int(width), 1, 1, int(border), format, xtype, pixels)
}

// TexImage2D allocates and optionally uploads one level in a single step
func (c *Context) TexImage2D(target gl.Enum, level int32, internalformat gl.Enum, width, height, border int32, format, xtype gl.Enum, pixels []byte) {
	c.texImage(target, int(level), internalformat, int(width), int(height), 1, int(border), format, xtype, pixels)
}

// TexImage3D allocates and optionally uploads one level in a single step
func (c *Context) TexImage3D(target gl.Enum, level int32, internalformat gl.Enum, width, height, depth, border int32, format, xtype gl.Enum, pixels []byte) {
	c.texImage(target, int(level), internalformat, int(width), int(height), int(depth), int(border), format, xtype, pixels)
}

func (c *Context) texImage(target gl.Enum, level int, internalformat gl.Enum, w, h, d, border int, format, xtype gl.Enum, pixels []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	info, ok := gl.InternalFormat(internalformat)
	if !ok || info.Compressed {
		c.setError(gl.InvalidEnum)
		return
	}
	l := c.defineLevel(t, level, internalformat, w, h, d, border)
	if l == nil || pixels == nil {
		return
	}
	c.upload(t, l, region{level: level, width: w, height: h, depth: d}, format, xtype, pixels)
}

// CompressedTexImage1D allocates one level from raw blocks
func (c *Context) CompressedTexImage1D(target gl.Enum, level int32, internalformat gl.Enum, width, border, imageSize int32, data []byte) {
	c.compressedTexImage(target, int(level), internalformat, int(width), 1, 1, int(border), imageSize, data)
}

// CompressedTexImage2D allocates one level from raw blocks
func (c *Context) CompressedTexImage2D(target gl.Enum, level int32, internalformat gl.Enum, width, height, border, imageSize int32, data []byte) {
	c.compressedTexImage(target, int(level), internalformat, int(width), int(height), 1, int(border), imageSize, data)
}

// CompressedTexImage3D allocates one level from raw blocks
func (c *Context) CompressedTexImage3D(target gl.Enum, level int32, internalformat gl.Enum, width, height, depth, border, imageSize int32, data []byte) {
	c.compressedTexImage(target, int(level), internalformat, int(width), int(height), int(depth), int(border), imageSize, data)
}

func (c *Context) compressedTexImage(target gl.Enum, level int, internalformat gl.Enum, w, h, d, border int, imageSize int32, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	if _, ok := gl.CompressedBlock(internalformat); !ok {
		c.setError(gl.InvalidEnum)
		return
	}
	if size, _ := gl.CompressedByteSize(w, h, d, internalformat); int(imageSize) != size || len(data) < size {
		c.setError(gl.InvalidValue)
		return
	}
	l := c.defineLevel(t, level, internalformat, w, h, d, border)
	if l == nil {
		return
	}
	copy(l.Data, data)
}

// GenerateMipmap fills every level below the base from level zero. Mutable
// textures grow a full chain; immutable ones keep their allocated levels.
// 8-bit formats are box filtered; other formats get zeroed levels.
func (c *Context) GenerateMipmap(target gl.Enum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	if len(t.Levels) == 0 || len(t.Levels[0].Data) == 0 {
		c.setError(gl.InvalidOperation)
		return
	}
	info, _ := gl.InternalFormat(t.InternalFormat)
	if info.Compressed {
		c.setError(gl.InvalidOperation)
		return
	}

	base := t.Levels[0]
	n := len(t.Levels)
	if !t.Immutable {
		n = maxLevels(target, base.Width, base.Height, base.Depth)
		for len(t.Levels) < n {
			t.Levels = append(t.Levels, Level{})
		}
	}
	for i := 1; i < n; i++ {
		w, h, d := mipExtent(target, base.Width, base.Height, base.Depth, i)
		next := newLevel(t.InternalFormat, w, h, d)
		if info.Type == gl.UnsignedByte {
			downsample(&next, &t.Levels[i-1], info.TexelSize)
		}
		t.Levels[i] = next
	}
}

// downsample box filters src into dst, averaging each byte over the source
// texels dst covers.
func downsample(dst, src *Level, texel int) {
	clamp := func(v, n int) int {
		if v >= n {
			return n - 1
		}
		return v
	}
	sx := src.Width / dst.Width
	sy := src.Height / dst.Height
	sz := src.Depth / dst.Depth
	for z := 0; z < dst.Depth; z++ {
		for y := 0; y < dst.Height; y++ {
			for x := 0; x < dst.Width; x++ {
				out := ((z*dst.Height+y)*dst.Width + x) * texel
				for b := 0; b < texel; b++ {
					sum, count := 0, 0
					for dz := 0; dz < sz; dz++ {
						for dy := 0; dy < sy; dy++ {
							for dx := 0; dx < sx; dx++ {
								ix := clamp(x*sx+dx, src.Width)
								iy := clamp(y*sy+dy, src.Height)
								iz := clamp(z*sz+dz, src.Depth)
								sum += int(src.Data[((iz*src.Height+iy)*src.Width+ix)*texel+b])
								count++
							}
						}
					}
					dst.Data[out+b] = byte(sum / count)
				}
			}
		}
	}
}
