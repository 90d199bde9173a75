package chunk

import (
	"fmt"
	"sort"

	"github.com/willibrandon/ChronoGL/pkg/gl"
)

// FieldKind is the wire type of one field
type FieldKind uint8

const (
	KindEnum FieldKind = iota + 1
	KindInt32
	KindUint32
	KindFloat32
	KindResource
	KindInt32Array
	KindFloat32Array
)

// String returns the string representation of the FieldKind
func (k FieldKind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindFloat32:
		return "float32"
	case KindResource:
		return "resource"
	case KindInt32Array:
		return "[]int32"
	case KindFloat32Array:
		return "[]float32"
	default:
		return "unknown"
	}
}

// Field names shared across opcodes
const (
	FieldID        = "id"
	FieldTarget    = "target"
	FieldTexture   = "texture"
	FieldPName     = "pname"
	FieldParam     = "param"
	FieldParams    = "params"
	FieldLevels    = "levels"
	FieldLevel     = "level"
	FieldFormat    = "format"
	FieldType      = "type"
	FieldXOffset   = "xoffset"
	FieldYOffset   = "yoffset"
	FieldZOffset   = "zoffset"
	FieldWidth     = "width"
	FieldHeight    = "height"
	FieldDepth     = "depth"
	FieldAlignment = "alignment"
	FieldImageSize = "image_size"
)

// CountRule derives the length of an array field from the fields before it
type CountRule func(prefix Args) int

// PayloadRule derives the exact payload size from a chunk's fields
type PayloadRule func(args Args) (int, error)

// Field is one entry of an opcode's ordered schema
type Field struct {
	Name  string
	Kind  FieldKind
	Count CountRule
}

// Route classifies how the capture layer routes a chunk
type Route uint8

const (
	// RouteCreate chunks bring a resource into existence under its target.
	RouteCreate Route = iota + 1
	// RouteDelete chunks end a resource's capture-side life.
	RouteDelete
	// RouteBind chunks establish a resource's target on first use.
	RouteBind
	// RouteSelector chunks only change how later calls in the frame are
	// interpreted.
	RouteSelector
	// RouteState chunks mutate a resource's contents or parameters.
	RouteState
	// RouteAlloc chunks size a resource's storage.
	RouteAlloc
)

// String returns the string representation of the Route
func (r Route) String() string {
	switch r {
	case RouteCreate:
		return "create"
	case RouteDelete:
		return "delete"
	case RouteBind:
		return "bind"
	case RouteSelector:
		return "selector"
	case RouteState:
		return "state"
	case RouteAlloc:
		return "alloc"
	default:
		return "unknown"
	}
}

// Descriptor declares everything the codec and router need about an opcode
type Descriptor struct {
	Op      Opcode
	Name    string
	Fields  []Field
	Route   Route
	Payload PayloadRule

	index map[string]int
}

// HasPayload reports whether chunks of this opcode carry a trailing payload
func (d *Descriptor) HasPayload() bool {
	return d.Payload != nil
}

// FieldIndex returns the position of a named field
func (d *Descriptor) FieldIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Lookup returns the descriptor for op
func Lookup(op Opcode) (*Descriptor, bool) {
	d, ok := descriptors[op]
	return d, ok
}

// Descriptors returns every registered descriptor ordered by opcode
func Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}

// parameterCount is the number of components glTexParameter*v reads for pname
func parameterCount(prefix Args) int {
	switch prefix.Enum(FieldPName) {
	case gl.TextureBorderColor, gl.TextureSwizzleRGBA:
		return 4
	}
	return 1
}

// pixelPayload sizes an uncompressed upload with the row padding rule
func pixelPayload(args Args) (int, error) {
	width := int(args.Uint32(FieldWidth))
	height, depth := 1, 1
	if args.Has(FieldHeight) {
		height = int(args.Uint32(FieldHeight))
	}
	if args.Has(FieldDepth) {
		depth = int(args.Uint32(FieldDepth))
	}
	if width == 0 || height == 0 || depth == 0 {
		return 0, nil
	}

	format, xtype := args.Enum(FieldFormat), args.Enum(FieldType)
	size := gl.ByteSize(width, height, depth, format, xtype, int(args.Int32(FieldAlignment)))
	if size == 0 {
		return 0, fmt.Errorf("%w: format %s type %s", ErrUnknownPixelFormat, format, xtype)
	}
	return size, nil
}

// compressedPayload checks the declared image size against block geometry
// when the format is known, and trusts it otherwise.
func compressedPayload(args Args) (int, error) {
	declared := int(args.Uint32(FieldImageSize))

	width := int(args.Uint32(FieldWidth))
	height, depth := 1, 1
	if args.Has(FieldHeight) {
		height = int(args.Uint32(FieldHeight))
	}
	if args.Has(FieldDepth) {
		depth = int(args.Uint32(FieldDepth))
	}

	derived, known := gl.CompressedByteSize(width, height, depth, args.Enum(FieldFormat))
	if known && derived != declared {
		return 0, fmt.Errorf("%w: image size %d, block layout needs %d",
			ErrPayloadSize, declared, derived)
	}
	return declared, nil
}

var descriptors = map[Opcode]*Descriptor{}

func register(d *Descriptor) {
	if _, dup := descriptors[d.Op]; dup {
		panic("chunk: opcode registered twice: " + d.Name)
	}
	d.index = make(map[string]int, len(d.Fields))
	for i, f := range d.Fields {
		if (f.Kind == KindInt32Array || f.Kind == KindFloat32Array) != (f.Count != nil) {
			panic("chunk: array fields need a count rule: " + d.Name + "." + f.Name)
		}
		d.index[f.Name] = i
	}
	descriptors[d.Op] = d
}

func init() {
	target := Field{Name: FieldTarget, Kind: KindEnum}
	id := Field{Name: FieldID, Kind: KindResource}
	pname := Field{Name: FieldPName, Kind: KindEnum}
	level := Field{Name: FieldLevel, Kind: KindInt32}
	xoff := Field{Name: FieldXOffset, Kind: KindInt32}
	yoff := Field{Name: FieldYOffset, Kind: KindInt32}
	zoff := Field{Name: FieldZOffset, Kind: KindInt32}
	width := Field{Name: FieldWidth, Kind: KindUint32}
	height := Field{Name: FieldHeight, Kind: KindUint32}
	depth := Field{Name: FieldDepth, Kind: KindUint32}
	format := Field{Name: FieldFormat, Kind: KindEnum}
	xtype := Field{Name: FieldType, Kind: KindEnum}
	align := Field{Name: FieldAlignment, Kind: KindInt32}
	imageSize := Field{Name: FieldImageSize, Kind: KindUint32}
	levels := Field{Name: FieldLevels, Kind: KindUint32}

	register(&Descriptor{Op: OpCreateTexture, Name: "CreateTexture", Route: RouteCreate,
		Fields: []Field{target, id}})
	register(&Descriptor{Op: OpDeleteTexture, Name: "DeleteTexture", Route: RouteDelete,
		Fields: []Field{id}})
	register(&Descriptor{Op: OpBindTexture, Name: "BindTexture", Route: RouteBind,
		Fields: []Field{target, id}})
	register(&Descriptor{Op: OpActiveTexture, Name: "ActiveTexture", Route: RouteSelector,
		Fields: []Field{{Name: FieldTexture, Kind: KindEnum}}})
	register(&Descriptor{Op: OpPixelStore, Name: "PixelStore", Route: RouteSelector,
		Fields: []Field{pname, {Name: FieldParam, Kind: KindInt32}}})

	register(&Descriptor{Op: OpTexParameteri, Name: "TexParameteri", Route: RouteState,
		Fields: []Field{target, pname, {Name: FieldParam, Kind: KindInt32}, id}})
	register(&Descriptor{Op: OpTexParameteriv, Name: "TexParameteriv", Route: RouteState,
		Fields: []Field{target, pname, id, {Name: FieldParams, Kind: KindInt32Array, Count: parameterCount}}})
	register(&Descriptor{Op: OpTexParameterf, Name: "TexParameterf", Route: RouteState,
		Fields: []Field{target, pname, {Name: FieldParam, Kind: KindFloat32}, id}})
	register(&Descriptor{Op: OpTexParameterfv, Name: "TexParameterfv", Route: RouteState,
		Fields: []Field{target, pname, id, {Name: FieldParams, Kind: KindFloat32Array, Count: parameterCount}}})
	register(&Descriptor{Op: OpGenerateMipmap, Name: "GenerateMipmap", Route: RouteState,
		Fields: []Field{target, id}})

	register(&Descriptor{Op: OpTexStorage1D, Name: "TexStorage1D", Route: RouteAlloc,
		Fields: []Field{target, levels, format, width, id}})
	register(&Descriptor{Op: OpTexStorage2D, Name: "TexStorage2D", Route: RouteAlloc,
		Fields: []Field{target, levels, format, width, height, id}})
	register(&Descriptor{Op: OpTexStorage3D, Name: "TexStorage3D", Route: RouteAlloc,
		Fields: []Field{target, levels, format, width, height, depth, id}})

	register(&Descriptor{Op: OpTexSubImage1D, Name: "TexSubImage1D", Route: RouteState, Payload: pixelPayload,
		Fields: []Field{target, level, xoff, width, format, xtype, align, id}})
	register(&Descriptor{Op: OpTexSubImage2D, Name: "TexSubImage2D", Route: RouteState, Payload: pixelPayload,
		Fields: []Field{target, level, xoff, yoff, width, height, format, xtype, align, id}})
	register(&Descriptor{Op: OpTexSubImage3D, Name: "TexSubImage3D", Route: RouteState, Payload: pixelPayload,
		Fields: []Field{target, level, xoff, yoff, zoff, width, height, depth, format, xtype, align, id}})

	register(&Descriptor{Op: OpCompressedTexSubImage1D, Name: "CompressedTexSubImage1D", Route: RouteState, Payload: compressedPayload,
		Fields: []Field{target, level, xoff, width, format, imageSize, id}})
	register(&Descriptor{Op: OpCompressedTexSubImage2D, Name: "CompressedTexSubImage2D", Route: RouteState, Payload: compressedPayload,
		Fields: []Field{target, level, xoff, yoff, width, height, format, imageSize, id}})
	register(&Descriptor{Op: OpCompressedTexSubImage3D, Name: "CompressedTexSubImage3D", Route: RouteState, Payload: compressedPayload,
		Fields: []Field{target, level, xoff, yoff, zoff, width, height, depth, format, imageSize, id}})
}
