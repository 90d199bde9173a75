// Package softgl is an in-memory implementation of gl.API. It keeps texture
// objects, bindings and pixel store state in process memory so captures can
// be recorded and replayed without a GPU, and it reads back what replay
// produced.
//
// Errors are latched like the real API and returned by GetError; no call
// panics on bad input. Uploads do not convert between formats: the client
// format/type pair must have the storage texel size of the internal format.
package softgl

import (
	"sync"

	"github.com/willibrandon/ChronoGL/pkg/gl"
)

// Level is one mip level. Data is tightly packed for uncompressed formats and
// holds raw blocks for compressed formats.
type Level struct {
	Width, Height, Depth int
	Data                 []byte
}

// Texture is a read-back copy of one texture object
type Texture struct {
	Name           uint32
	Target         gl.Enum
	InternalFormat gl.Enum
	Immutable      bool
	Levels         []Level

	Ints   map[gl.Enum][]int32
	Floats map[gl.Enum][]float32
}

type texture struct {
	Texture
}

func (t *texture) clone() Texture {
	c := t.Texture
	c.Levels = make([]Level, len(t.Levels))
	for i, l := range t.Levels {
		c.Levels[i] = l
		c.Levels[i].Data = append([]byte(nil), l.Data...)
	}
	c.Ints = make(map[gl.Enum][]int32, len(t.Ints))
	for k, v := range t.Ints {
		c.Ints[k] = append([]int32(nil), v...)
	}
	c.Floats = make(map[gl.Enum][]float32, len(t.Floats))
	for k, v := range t.Floats {
		c.Floats[k] = append([]float32(nil), v...)
	}
	return c
}

// Context is one software context. It is safe for concurrent use, but like a
// real context its bindings are shared by every caller.
type Context struct {
	mu sync.Mutex

	next     uint32
	textures map[uint32]*texture
	active   int
	bindings [gl.MaxTextureUnits]map[gl.Enum]uint32

	unpackAlignment int32
	packAlignment   int32

	err gl.Enum
}

var _ gl.API = (*Context)(nil)

// New creates a context with default pixel store state
func New() *Context {
	c := &Context{
		next:            1,
		textures:        make(map[uint32]*texture),
		unpackAlignment: 4,
		packAlignment:   4,
	}
	for i := range c.bindings {
		c.bindings[i] = make(map[gl.Enum]uint32)
	}
	return c
}

func (c *Context) setError(e gl.Enum) {
	if c.err == gl.NoError {
		c.err = e
	}
}

// GetError returns and clears the first error recorded since the last call
func (c *Context) GetError() gl.Enum {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.err
	c.err = gl.NoError
	return e
}

// GenTextures reserves names. The objects come into existence at their
// first bind.
func (c *Context) GenTextures(textures []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range textures {
		name := c.next
		c.next++
		c.textures[name] = &texture{Texture: Texture{
			Name:   name,
			Ints:   make(map[gl.Enum][]int32),
			Floats: make(map[gl.Enum][]float32),
		}}
		textures[i] = name
	}
}

// DeleteTextures deletes textures and unbinds them everywhere. Unknown names
// and zero are ignored.
func (c *Context) DeleteTextures(textures []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range textures {
		if name == 0 {
			continue
		}
		if _, ok := c.textures[name]; !ok {
			continue
		}
		delete(c.textures, name)
		for _, unit := range c.bindings {
			for target, bound := range unit {
				if bound == name {
					delete(unit, target)
				}
			}
		}
	}
}

// BindTexture binds a texture to target on the active unit
func (c *Context) BindTexture(target gl.Enum, name uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !gl.IsTextureTarget(target) {
		c.setError(gl.InvalidEnum)
		return
	}
	if name == 0 {
		delete(c.bindings[c.active], target)
		return
	}
	t, ok := c.textures[name]
	if !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	if t.Target != 0 && t.Target != target {
		c.setError(gl.InvalidOperation)
		return
	}
	t.Target = target
	c.bindings[c.active][target] = name
}

// ActiveTexture selects the unit later binds apply to
func (c *Context) ActiveTexture(unit gl.Enum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := gl.UnitIndex(unit)
	if !ok {
		c.setError(gl.InvalidEnum)
		return
	}
	c.active = i
}

func (c *Context) bound(target gl.Enum) *texture {
	if !gl.IsTextureTarget(target) {
		c.setError(gl.InvalidEnum)
		return nil
	}
	name, ok := c.bindings[c.active][target]
	if !ok {
		c.setError(gl.InvalidOperation)
		return nil
	}
	return c.textures[name]
}

// PixelStorei sets pack or unpack alignment
func (c *Context) PixelStorei(pname gl.Enum, param int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch pname {
	case gl.UnpackAlignment, gl.PackAlignment:
	case gl.UnpackRowLength, gl.PackRowLength:
		if param != 0 {
			// row lengths other than the region width are not modelled
			c.setError(gl.InvalidValue)
		}
		return
	default:
		c.setError(gl.InvalidEnum)
		return
	}
	switch param {
	case 1, 2, 4, 8:
	default:
		c.setError(gl.InvalidValue)
		return
	}
	if pname == gl.UnpackAlignment {
		c.unpackAlignment = param
	} else {
		c.packAlignment = param
	}
}

// GetIntegerv answers the queries the capture layer needs
func (c *Context) GetIntegerv(pname gl.Enum, data []int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(data) == 0 {
		c.setError(gl.InvalidValue)
		return
	}
	switch pname {
	case gl.UnpackAlignment:
		data[0] = c.unpackAlignment
	case gl.PackAlignment:
		data[0] = c.packAlignment
	case gl.ActiveTextureParam:
		data[0] = int32(gl.Texture0) + int32(c.active)
	case gl.UnpackRowLength, gl.PackRowLength:
		data[0] = 0
	default:
		c.setError(gl.InvalidEnum)
	}
}

// Texture returns a copy of the named texture
func (c *Context) Texture(name uint32) (Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[name]
	if !ok {
		return Texture{}, false
	}
	return t.clone(), true
}

// Level returns a copy of one level's bytes
func (c *Context) Level(name uint32, level int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[name]
	if !ok || level < 0 || level >= len(t.Levels) {
		return nil, false
	}
	return append([]byte(nil), t.Levels[level].Data...), true
}

// Bound returns the name bound to target on the given unit index
func (c *Context) Bound(unit int, target gl.Enum) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if unit < 0 || unit >= len(c.bindings) {
		return 0
	}
	return c.bindings[unit][target]
}

// Names returns the number of live texture objects
func (c *Context) Names() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.textures)
}
