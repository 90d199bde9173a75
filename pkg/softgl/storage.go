package softgl

import "github.com/willibrandon/ChronoGL/pkg/gl"

// mipExtent returns the size of level of a texture whose base level is
// w x h x d. Array layers do not shrink.
func mipExtent(target gl.Enum, w, h, d, level int) (int, int, int) {
	shrink := func(v int) int {
		v >>= level
		if v < 1 {
			v = 1
		}
		return v
	}
	w = shrink(w)
	if target != gl.Texture1DArray && gl.Dimensionality(target) >= 2 {
		h = shrink(h)
	}
	if target == gl.Texture3D {
		d = shrink(d)
	}
	return w, h, d
}

func maxLevels(target gl.Enum, w, h, d int) int {
	n := 1
	for {
		lw, lh, ld := mipExtent(target, w, h, d, n-1)
		nw, nh, nd := mipExtent(target, w, h, d, n)
		if nw == lw && nh == lh && nd == ld {
			return n
		}
		n++
	}
}

func levelSize(internalformat gl.Enum, w, h, d int) int {
	info, ok := gl.InternalFormat(internalformat)
	if !ok {
		return 0
	}
	if info.Compressed {
		size, _ := gl.CompressedByteSize(w, h, d, internalformat)
		return size
	}
	return w * h * d * info.TexelSize
}

func newLevel(internalformat gl.Enum, w, h, d int) Level {
	return Level{Width: w, Height: h, Depth: d, Data: make([]byte, levelSize(internalformat, w, h, d))}
}

// TexStorage1D allocates immutable storage for the bound 1D texture
func (c *Context) TexStorage1D(target gl.Enum, levels int32, internalformat gl.Enum, width int32) {
	c.texStorage(target, levels, internalformat, width, 1, 1)
}

// TexStorage2D allocates immutable storage for the bound 2D texture
func (c *Context) TexStorage2D(target gl.Enum, levels int32, internalformat gl.Enum, width, height int32) {
	c.texStorage(target, levels, internalformat, width, height, 1)
}

// TexStorage3D allocates immutable storage for the bound 3D or array texture
func (c *Context) TexStorage3D(target gl.Enum, levels int32, internalformat gl.Enum, width, height, depth int32) {
	c.texStorage(target, levels, internalformat, width, height, depth)
}

func (c *Context) texStorage(target gl.Enum, levels int32, internalformat gl.Enum, width, height, depth int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	if t.Immutable {
		c.setError(gl.InvalidOperation)
		return
	}
	if _, ok := gl.InternalFormat(internalformat); !ok {
		c.setError(gl.InvalidEnum)
		return
	}
	if levels < 1 || width < 1 || height < 1 || depth < 1 {
		c.setError(gl.InvalidValue)
		return
	}
	w, h, d := int(width), int(height), int(depth)
	if int(levels) > maxLevels(target, w, h, d) {
		c.setError(gl.InvalidOperation)
		return
	}

	t.Immutable = true
	t.InternalFormat = internalformat
	t.Levels = make([]Level, levels)
	for i := range t.Levels {
		lw, lh, ld := mipExtent(target, w, h, d, i)
		t.Levels[i] = newLevel(internalformat, lw, lh, ld)
	}
}

type region struct {
	level                int
	x, y, z              int
	width, height, depth int
}

// level validates r against t and returns the destination level
func (c *Context) level(t *texture, r region) *Level {
	if r.level < 0 || r.level >= len(t.Levels) {
		c.setError(gl.InvalidValue)
		return nil
	}
	l := &t.Levels[r.level]
	if r.x < 0 || r.y < 0 || r.z < 0 || r.width < 0 || r.height < 0 || r.depth < 0 ||
		r.x+r.width > l.Width || r.y+r.height > l.Height || r.z+r.depth > l.Depth {
		c.setError(gl.InvalidValue)
		return nil
	}
	return l
}

// TexSubImage1D uploads a span of the bound 1D texture
func (c *Context) TexSubImage1D(target gl.Enum, level, xoffset, width int32, format, xtype gl.Enum, pixels []byte) {
	c.texSubImage(target, region{int(level), int(xoffset), 0, 0, int(width), 1, 1}, format, xtype, pixels)
}

// TexSubImage2D uploads a rectangle of the bound 2D texture
func (c *Context) TexSubImage2D(target gl.Enum, level, xoffset, yoffset, width, height int32, format, xtype gl.Enum, pixels []byte) {
	c.texSubImage(target, region{int(level), int(xoffset), int(yoffset), 0, int(width), int(height), 1}, format, xtype, pixels)
}

// TexSubImage3D uploads a box of the bound 3D or array texture
func (c *Context) TexSubImage3D(target gl.Enum, level, xoffset, yoffset, zoffset, width, height, depth int32, format, xtype gl.Enum, pixels []byte) {
	c.texSubImage(target, region{int(level), int(xoffset), int(yoffset), int(zoffset), int(width), int(height), int(depth)}, format, xtype, pixels)
}

func (c *Context) texSubImage(target gl.Enum, r region, format, xtype gl.Enum, pixels []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	l := c.level(t, r)
	if l == nil {
		return
	}
	c.upload(t, l, r, format, xtype, pixels)
}

// upload copies client rows honouring the unpack alignment. The caller holds
// the lock and has validated the region.
func (c *Context) upload(t *texture, l *Level, r region, format, xtype gl.Enum, pixels []byte) {
	info, _ := gl.InternalFormat(t.InternalFormat)
	if info.Compressed {
		c.setError(gl.InvalidOperation)
		return
	}
	texel, ok := gl.TexelSize(format, xtype)
	if !ok {
		c.setError(gl.InvalidEnum)
		return
	}
	if texel != info.TexelSize {
		c.setError(gl.InvalidOperation)
		return
	}
	align := int(c.unpackAlignment)
	if len(pixels) < gl.ByteSize(r.width, r.height, r.depth, format, xtype, align) {
		c.setError(gl.InvalidValue)
		return
	}

	stride := gl.RowSize(r.width, texel, align)
	span := r.width * texel
	for z := 0; z < r.depth; z++ {
		for y := 0; y < r.height; y++ {
			src := (z*r.height + y) * stride
			dst := (((r.z+z)*l.Height+(r.y+y))*l.Width + r.x) * texel
			copy(l.Data[dst:dst+span], pixels[src:src+span])
		}
	}
}

// CompressedTexSubImage1D uploads raw blocks into the bound 1D texture
func (c *Context) CompressedTexSubImage1D(target gl.Enum, level, xoffset, width int32, format gl.Enum, imageSize int32, data []byte) {
	c.compressedSubImage(target, region{int(level), int(xoffset), 0, 0, int(width), 1, 1}, format, imageSize, data)
}

// CompressedTexSubImage2D uploads raw blocks into the bound 2D texture
func (c *Context) CompressedTexSubImage2D(target gl.Enum, level, xoffset, yoffset, width, height int32, format gl.Enum, imageSize int32, data []byte) {
	c.compressedSubImage(target, region{int(level), int(xoffset), int(yoffset), 0, int(width), int(height), 1}, format, imageSize, data)
}

// CompressedTexSubImage3D uploads raw blocks into the bound 3D or array texture
func (c *Context) CompressedTexSubImage3D(target gl.Enum, level, xoffset, yoffset, zoffset, width, height, depth int32, format gl.Enum, imageSize int32, data []byte) {
	c.compressedSubImage(target, region{int(level), int(xoffset), int(yoffset), int(zoffset), int(width), int(height), int(depth)}, format, imageSize, data)
}

func (c *Context) compressedSubImage(target gl.Enum, r region, format gl.Enum, imageSize int32, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.bound(target)
	if t == nil {
		return
	}
	l := c.level(t, r)
	if l == nil {
		return
	}
	c.uploadBlocks(t, l, r, format, imageSize, data)
}

func (c *Context) uploadBlocks(t *texture, l *Level, r region, format gl.Enum, imageSize int32, data []byte) {
	if format != t.InternalFormat {
		c.setError(gl.InvalidOperation)
		return
	}
	b, ok := gl.CompressedBlock(format)
	if !ok {
		c.setError(gl.InvalidEnum)
		return
	}
	// regions start on block boundaries and end on one or at the level edge
	if r.x%b.Width != 0 || r.y%b.Height != 0 ||
		(r.width%b.Width != 0 && r.x+r.width != l.Width) ||
		(r.height%b.Height != 0 && r.y+r.height != l.Height) {
		c.setError(gl.InvalidOperation)
		return
	}
	size, _ := gl.CompressedByteSize(r.width, r.height, r.depth, format)
	if int(imageSize) != size || len(data) < size {
		c.setError(gl.InvalidValue)
		return
	}

	levelCols := (l.Width + b.Width - 1) / b.Width
	levelRows := (l.Height + b.Height - 1) / b.Height
	cols := (r.width + b.Width - 1) / b.Width
	rows := (r.height + b.Height - 1) / b.Height
	span := cols * b.Bytes
	for z := 0; z < r.depth; z++ {
		for by := 0; by < rows; by++ {
			src := (z*rows + by) * span
			dst := (((r.z+z)*levelRows+r.y/b.Height+by)*levelCols + r.x/b.Width) * b.Bytes
			copy(l.Data[dst:dst+span], data[src:src+span])
		}
	}
}
