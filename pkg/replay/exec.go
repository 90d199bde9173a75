package replay

import (
	"github.com/gogpu/gputypes"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// live resolves id to the replay handle it was created as
func (r *Replayer) live(c *chunk.Chunk, id resource.ID) (resource.Handle, error) {
	h, err := r.reg.LiveHandleOf(id)
	if err != nil {
		if v, ok := invariant.As(err); ok {
			v.Opcode = c.Op.String()
		}
		return resource.Handle{}, err
	}
	return h, nil
}

// bindFor binds the chunk's resource to the chunk's target on the active
// unit, so the call that follows lands on it.
func (r *Replayer) bindFor(c *chunk.Chunk) error {
	h, err := r.live(c, c.Resource())
	if err != nil {
		return err
	}
	r.api.BindTexture(c.Enum(chunk.FieldTarget), h.Name)
	return nil
}

func (r *Replayer) exec(c *chunk.Chunk) error {
	desc, ok := chunk.Lookup(c.Op)
	if !ok {
		return invariant.New(invariant.UnknownOpcode, c.Op.String(), resource.Null, "no descriptor")
	}
	r.log.Debug("replaying chunk", "chunk", c)

	var err error
	switch desc.Route {
	case chunk.RouteCreate:
		err = r.create(c)
	case chunk.RouteDelete:
		err = r.delete(c)
	case chunk.RouteBind:
		err = r.bind(c)
	case chunk.RouteSelector:
		r.selector(c)
	case chunk.RouteState, chunk.RouteAlloc:
		if err = r.bindFor(c); err == nil {
			err = r.state(c)
		}
	default:
		err = invariant.New(invariant.UnknownOpcode, c.Op.String(), c.Resource(), "route %s cannot be replayed", desc.Route)
	}
	if err != nil {
		return err
	}

	if e := r.api.GetError(); e != gl.NoError {
		r.log.Warn("replayed call raised an API error", "opcode", c.Op.String(), "resource", c.Resource().String(), "error", e.String())
	}
	return nil
}

func (r *Replayer) create(c *chunk.Chunk) error {
	id := c.Resource()
	target := c.Enum(chunk.FieldTarget)
	if id.IsNull() {
		return invariant.New(invariant.SchemaMismatch, c.Op.String(), id, "create of the null resource")
	}

	names := make([]uint32, 1)
	r.api.GenTextures(names)
	r.api.BindTexture(target, names[0])

	h := resource.TextureHandle(names[0])
	r.reg.BindLive(id, h)
	r.table.Put(id, h)
	r.table.Update(id, func(e *resource.LiveResource) {
		e.Target = uint32(target)
		e.Dimension = gl.GPUDimension(target)
	})
	return nil
}

func (r *Replayer) delete(c *chunk.Chunk) error {
	id := c.Resource()
	h, err := r.live(c, id)
	if err != nil {
		return err
	}
	r.api.DeleteTextures([]uint32{h.Name})
	r.reg.UnbindLive(id)
	r.table.Remove(id)
	return nil
}

func (r *Replayer) bind(c *chunk.Chunk) error {
	id := c.Resource()
	target := c.Enum(chunk.FieldTarget)
	if id.IsNull() {
		r.api.BindTexture(target, 0)
		return nil
	}
	h, err := r.live(c, id)
	if err != nil {
		return err
	}
	r.api.BindTexture(target, h.Name)
	r.table.Update(id, func(e *resource.LiveResource) {
		e.Target = uint32(target)
	})
	return nil
}

func (r *Replayer) selector(c *chunk.Chunk) {
	switch c.Op {
	case chunk.OpActiveTexture:
		r.api.ActiveTexture(c.Enum(chunk.FieldTexture))
	case chunk.OpPixelStore:
		r.api.PixelStorei(c.Enum(chunk.FieldPName), c.Int32(chunk.FieldParam))
	}
}

// withAlignment runs upload with the unpack alignment the chunk was recorded
// under, restoring the current one afterwards.
func (r *Replayer) withAlignment(c *chunk.Chunk, upload func()) {
	want := c.Int32(chunk.FieldAlignment)
	cur := []int32{4}
	r.api.GetIntegerv(gl.UnpackAlignment, cur)
	if cur[0] == want {
		upload()
		return
	}
	r.api.PixelStorei(gl.UnpackAlignment, want)
	upload()
	r.api.PixelStorei(gl.UnpackAlignment, cur[0])
}

func (r *Replayer) state(c *chunk.Chunk) error {
	target := c.Enum(chunk.FieldTarget)
	i32 := func(name string) int32 { return c.Int32(name) }
	u32 := func(name string) int32 { return int32(c.Uint32(name)) }

	switch c.Op {
	case chunk.OpTexParameteri:
		r.api.TexParameteri(target, c.Enum(chunk.FieldPName), i32(chunk.FieldParam))
	case chunk.OpTexParameteriv:
		r.api.TexParameteriv(target, c.Enum(chunk.FieldPName), c.Int32s(chunk.FieldParams))
	case chunk.OpTexParameterf:
		r.api.TexParameterf(target, c.Enum(chunk.FieldPName), c.Float32(chunk.FieldParam))
	case chunk.OpTexParameterfv:
		r.api.TexParameterfv(target, c.Enum(chunk.FieldPName), c.Float32s(chunk.FieldParams))
	case chunk.OpGenerateMipmap:
		r.api.GenerateMipmap(target)

	case chunk.OpTexStorage1D:
		r.api.TexStorage1D(target, u32(chunk.FieldLevels), c.Enum(chunk.FieldFormat), u32(chunk.FieldWidth))
		r.allocated(c)
	case chunk.OpTexStorage2D:
		r.api.TexStorage2D(target, u32(chunk.FieldLevels), c.Enum(chunk.FieldFormat), u32(chunk.FieldWidth), u32(chunk.FieldHeight))
		r.allocated(c)
	case chunk.OpTexStorage3D:
		r.api.TexStorage3D(target, u32(chunk.FieldLevels), c.Enum(chunk.FieldFormat),
			u32(chunk.FieldWidth), u32(chunk.FieldHeight), u32(chunk.FieldDepth))
		r.allocated(c)

	case chunk.OpTexSubImage1D:
		r.withAlignment(c, func() {
			r.api.TexSubImage1D(target, i32(chunk.FieldLevel), i32(chunk.FieldXOffset), u32(chunk.FieldWidth),
				c.Enum(chunk.FieldFormat), c.Enum(chunk.FieldType), c.Payload)
		})
	case chunk.OpTexSubImage2D:
		r.withAlignment(c, func() {
			r.api.TexSubImage2D(target, i32(chunk.FieldLevel), i32(chunk.FieldXOffset), i32(chunk.FieldYOffset),
				u32(chunk.FieldWidth), u32(chunk.FieldHeight), c.Enum(chunk.FieldFormat), c.Enum(chunk.FieldType), c.Payload)
		})
	case chunk.OpTexSubImage3D:
		r.withAlignment(c, func() {
			r.api.TexSubImage3D(target, i32(chunk.FieldLevel), i32(chunk.FieldXOffset), i32(chunk.FieldYOffset), i32(chunk.FieldZOffset),
				u32(chunk.FieldWidth), u32(chunk.FieldHeight), u32(chunk.FieldDepth), c.Enum(chunk.FieldFormat), c.Enum(chunk.FieldType), c.Payload)
		})

	case chunk.OpCompressedTexSubImage1D:
		r.api.CompressedTexSubImage1D(target, i32(chunk.FieldLevel), i32(chunk.FieldXOffset), u32(chunk.FieldWidth),
			c.Enum(chunk.FieldFormat), u32(chunk.FieldImageSize), c.Payload)
	case chunk.OpCompressedTexSubImage2D:
		r.api.CompressedTexSubImage2D(target, i32(chunk.FieldLevel), i32(chunk.FieldXOffset), i32(chunk.FieldYOffset),
			u32(chunk.FieldWidth), u32(chunk.FieldHeight), c.Enum(chunk.FieldFormat), u32(chunk.FieldImageSize), c.Payload)
	case chunk.OpCompressedTexSubImage3D:
		r.api.CompressedTexSubImage3D(target, i32(chunk.FieldLevel), i32(chunk.FieldXOffset), i32(chunk.FieldYOffset), i32(chunk.FieldZOffset),
			u32(chunk.FieldWidth), u32(chunk.FieldHeight), u32(chunk.FieldDepth), c.Enum(chunk.FieldFormat), u32(chunk.FieldImageSize), c.Payload)

	default:
		return invariant.New(invariant.UnknownOpcode, c.Op.String(), c.Resource(), "no replay for opcode")
	}
	return nil
}

// allocated copies the storage a chunk allocated into the live table
func (r *Replayer) allocated(c *chunk.Chunk) {
	extent := gputypes.Extent3D{Width: c.Uint32(chunk.FieldWidth), Height: 1, DepthOrArrayLayers: 1}
	if c.Has(chunk.FieldHeight) {
		extent.Height = c.Uint32(chunk.FieldHeight)
	}
	if c.Has(chunk.FieldDepth) {
		extent.DepthOrArrayLayers = c.Uint32(chunk.FieldDepth)
	}
	format := c.Enum(chunk.FieldFormat)
	info, _ := gl.InternalFormat(format)

	r.table.Update(c.Resource(), func(e *resource.LiveResource) {
		e.InternalFormat = uint32(format)
		e.Levels = int32(c.Uint32(chunk.FieldLevels))
		e.Extent = extent
		e.Format = info.GPU
	})
}
