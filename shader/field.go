package shader

import (
	"encoding/binary"
	"fmt"
)

// Direction tells how a field takes part in the shader interface.
type Direction uint8

const (
	// DirNone marks a field without a layout annotation. The pipeline ignores it.
	DirNone Direction = iota
	// DirIn is a per-vertex attribute (vertex stage) or an interpolated
	// varying (fragment stage).
	DirIn
	// DirOut is a varying (vertex stage) or a color output (fragment stage).
	DirOut
	// DirUniform is read from a descriptor set binding.
	DirUniform
	// DirBuiltin is a pipeline-defined value such as gl_Position.
	DirBuiltin
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirNone:
		return "none"
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirUniform:
		return "uniform"
	case DirBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Field describes one member of a shader's interface.
//
// Ptr points at the storage inside the shader value: *float32, *f32.Vec2,
// *f32.Vec3, *f32.Vec4, *f32.Mat4, *int32, *uint32, *bool, *Sampler2D, or a
// pointer to a fixed-size struct for TypeBlock. Use the constructors rather
// than filling Field by hand.
type Field struct {
	Name      string
	Direction Direction
	// Location is the attribute/varying/color slot of In and Out fields.
	Location uint32
	// Set and Binding address the descriptor of Uniform fields.
	Set     uint32
	Binding uint32
	Type    Type
	// Size is the byte size of a TypeBlock field, or Type.Size() otherwise.
	Size int
	Ptr  any

	decode func([]byte) error
	zero   func()
	nilPtr bool
}

// String returns a short description used in diagnostics.
func (f Field) String() string {
	switch f.Direction {
	case DirIn, DirOut:
		return fmt.Sprintf("%s %s %s (location %d)", f.Direction, f.Type, f.Name, f.Location)
	case DirUniform:
		return fmt.Sprintf("uniform %s %s (set %d, binding %d)", f.Type, f.Name, f.Set, f.Binding)
	default:
		return fmt.Sprintf("%s %s %s", f.Direction, f.Type, f.Name)
	}
}

// Decode reads a TypeBlock field from little-endian memory.
func (f Field) Decode(mem []byte) error {
	if f.decode == nil {
		return fmt.Errorf("shader: field %q is not a uniform block", f.Name)
	}
	return f.decode(mem)
}

// Reset sets the field's storage to its zero value.
func (f Field) Reset() {
	if f.zero != nil {
		f.zero()
	}
}

// In declares an input at the given location.
func In[T Value](name string, location uint32, p *T) Field {
	return valueField(name, DirIn, p, func(f *Field) { f.Location = location })
}

// Out declares an output at the given location.
func Out[T Value](name string, location uint32, p *T) Field {
	return valueField(name, DirOut, p, func(f *Field) { f.Location = location })
}

// Uniform declares a single value read from a uniform buffer binding.
func Uniform[T Value](name string, set, binding uint32, p *T) Field {
	return valueField(name, DirUniform, p, func(f *Field) { f.Set, f.Binding = set, binding })
}

// Builtin declares a built-in variable such as [Position] or [VertexIndex].
func Builtin[T Value](name string, p *T) Field {
	return valueField(name, DirBuiltin, p, nil)
}

// Plain declares a field without a layout annotation. It is listed for
// completeness and skipped by the pipeline.
func Plain[T any](name string, p *T) Field {
	return Field{Name: name, Direction: DirNone, Ptr: p, nilPtr: p == nil}
}

// Block declares a uniform block: a fixed-size struct decoded from the bound
// buffer with encoding/binary. Padding must be spelled out with blank fields.
func Block[T any](name string, set, binding uint32, p *T) Field {
	f := Field{
		Name:      name,
		Direction: DirUniform,
		Set:       set,
		Binding:   binding,
		Type:      TypeBlock,
		Size:      -1,
		Ptr:       p,
		nilPtr:    p == nil,
	}
	if p == nil {
		return f
	}
	f.Size = binary.Size(p)
	f.decode = func(mem []byte) error {
		_, err := binary.Decode(mem, binary.LittleEndian, p)
		return err
	}
	f.zero = func() {
		var zero T
		*p = zero
	}
	return f
}

// Sampler declares a combined image sampler.
func Sampler(name string, set, binding uint32, p *Sampler2D) Field {
	f := Field{
		Name:      name,
		Direction: DirUniform,
		Set:       set,
		Binding:   binding,
		Type:      TypeSampler2D,
		Ptr:       p,
		nilPtr:    p == nil,
	}
	if p != nil {
		f.zero = func() { *p = Sampler2D{} }
	}
	return f
}

func valueField[T Value](name string, dir Direction, p *T, opt func(*Field)) Field {
	typ := TypeOf[T]()
	f := Field{
		Name:      name,
		Direction: dir,
		Type:      typ,
		Size:      typ.Size(),
		Ptr:       p,
		nilPtr:    p == nil,
	}
	if p != nil {
		f.zero = func() {
			var zero T
			*p = zero
		}
	}
	if opt != nil {
		opt(&f)
	}
	return f
}
