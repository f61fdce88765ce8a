// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package binder

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/internal/codec"
	"github.com/gogpu/softvk/internal/resource"
	"github.com/gogpu/softvk/shader"
)

// Input is everything the compiler binds shader fields against.
type Input struct {
	Vertex   *shader.Descriptor
	Fragment *shader.Descriptor

	// VertexLayouts is indexed by vertex buffer binding.
	VertexLayouts []gputypes.VertexBufferLayout
	Descriptors   resource.DescriptorSets
	// ColorAttachments are the color attachments of the current subpass,
	// indexed by fragment output location.
	ColorAttachments []resource.ImageView

	// Storage must have been Reset for the draw's topology.
	Storage *Storage
}

// Compile binds the fields of both stages and returns the compiled program.
//
// Fields that cannot be bound are reported in Program.Diagnostics and keep
// their zero value. An error is returned only for conditions the pipeline
// cannot emulate, such as an unsupported descriptor type.
func Compile(in Input) (*Program, error) {
	if in.Vertex == nil || in.Fragment == nil {
		return nil, ErrNilProgram
	}
	if in.Storage == nil {
		return nil, ErrNilStorage
	}

	c := &compiler{in: in, prog: &Program{}}

	in.Vertex.Reset()
	in.Fragment.Reset()

	c.prog.Vertex.Body = in.Vertex.Program().Main
	c.prog.Fragment.Body = in.Fragment.Program().Main

	if err := c.stage(in.Vertex, &c.prog.Vertex); err != nil {
		return nil, err
	}
	if err := c.stage(in.Fragment, &c.prog.Fragment); err != nil {
		return nil, err
	}
	return c.prog, nil
}

type compiler struct {
	in   Input
	prog *Program
}

func (c *compiler) stage(d *shader.Descriptor, st *Stage) error {
	stage := d.Stage()
	for _, f := range d.Fields() {
		if f.Direction == shader.DirNone {
			continue
		}
		if f.Direction == shader.DirBuiltin || shader.IsBuiltinName(f.Name) {
			c.builtin(stage, f, st)
			continue
		}
		var err error
		switch {
		case f.Direction == shader.DirUniform:
			err = c.uniform(stage, f)
		case f.Direction == shader.DirIn && stage == gputypes.ShaderStageVertex:
			c.attribute(f, st)
		case f.Direction == shader.DirOut && stage == gputypes.ShaderStageVertex:
			c.varyingOut(f, st)
		case f.Direction == shader.DirIn:
			c.varyingIn(f, st)
		case f.Direction == shader.DirOut:
			c.colorOut(f, st)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// skip records a binding diagnostic. The field is zeroed before every draw.
func (c *compiler) skip(stage gputypes.ShaderStage, f shader.Field, cause error) {
	err := fmt.Errorf("%w: %s field %q: %w", ErrBinding, stage, f.Name, cause)
	c.prog.Diagnostics = append(c.prog.Diagnostics, err)
	c.prog.Defaults = append(c.prog.Defaults, func(*Invocation) { f.Reset() })
	slogger().Warn("binder: field skipped", "stage", stage.String(), "field", f.Name, "err", cause)
}

func (c *compiler) builtin(stage gputypes.ShaderStage, f shader.Field, st *Stage) {
	info, ok := shader.LookupBuiltin(stage, f.Name)
	if !ok {
		c.skip(stage, f, ErrUnknownBuiltin)
		return
	}
	if info.Type != f.Type {
		c.skip(stage, f, fmt.Errorf("%w: %s is %s, field is %s", ErrTypeMismatch, info.Name, info.Type, f.Type))
		return
	}

	switch p := f.Ptr.(type) {
	case *int32:
		switch info.Name {
		case shader.VertexIndex:
			st.Pre = append(st.Pre, func(inv *Invocation) { *p = inv.VertexIndex })
		case shader.InstanceIndex:
			st.Pre = append(st.Pre, func(inv *Invocation) { *p = inv.InstanceIndex })
		}
	case *f32.Vec4:
		switch info.Name {
		case shader.Position:
			st.Export = append(st.Export, func(inv *Invocation) { inv.Position = *p })
		case shader.FragCoord:
			c.prog.UsesFragCoord = true
			st.Pre = append(st.Pre, func(inv *Invocation) { *p = inv.FragCoord })
		}
	case *float32:
		switch info.Name {
		case shader.PointSize:
			st.Export = append(st.Export, func(inv *Invocation) { inv.PointSize = *p })
		case shader.FragDepth:
			c.prog.UsesFragCoord = true
			c.prog.UsesFragDepth = true
			st.Pre = append(st.Pre, func(inv *Invocation) { *p = inv.FragCoord[2] })
			st.Export = append(st.Export, func(inv *Invocation) { inv.FragDepth = *p })
		}
	case *bool:
		st.Pre = append(st.Pre, func(inv *Invocation) { *p = inv.FrontFacing })
	case *f32.Vec2:
		st.Pre = append(st.Pre, func(inv *Invocation) { *p = inv.PointCoord })
	}
}

// attribute binds a vertex input to the attribute at its location.
func (c *compiler) attribute(f shader.Field, st *Stage) {
	const stage = gputypes.ShaderStageVertex

	binding, layout, attr, ok := findAttribute(c.in.VertexLayouts, f.Location)
	if !ok {
		c.skip(stage, f, fmt.Errorf("%w %d", ErrNoAttribute, f.Location))
		return
	}
	if typ := formatType(attr.Format); typ != f.Type {
		c.skip(stage, f, fmt.Errorf("%w: attribute format %s, field is %s", ErrTypeMismatch, attr.Format, f.Type))
		return
	}
	read := fetcher(f.Ptr)
	if read == nil {
		c.skip(stage, f, fmt.Errorf("%w: %T", ErrTypeMismatch, f.Ptr))
		return
	}

	stride := int(layout.ArrayStride)
	offset := int(attr.Offset)
	perInstance := layout.StepMode == gputypes.VertexStepModeInstance
	st.Pre = append(st.Pre, func(inv *Invocation) {
		if binding >= len(inv.VertexBuffers) {
			inv.Fail(fmt.Errorf("%w: binding %d", ErrVertexBuffer, binding))
			return
		}
		vb := inv.VertexBuffers[binding]
		index := int(inv.VertexIndex)
		if perInstance {
			index = int(inv.InstanceIndex)
		}
		if err := read(vb.Data, vb.Offset+stride*index+offset); err != nil {
			inv.Fail(fmt.Errorf("binder: attribute %q: %w", f.Name, err))
		}
	})
}

func findAttribute(layouts []gputypes.VertexBufferLayout, location uint32) (int, gputypes.VertexBufferLayout, gputypes.VertexAttribute, bool) {
	for b, l := range layouts {
		for _, a := range l.Attributes {
			if a.ShaderLocation == location {
				return b, l, a, true
			}
		}
	}
	return 0, gputypes.VertexBufferLayout{}, gputypes.VertexAttribute{}, false
}

// formatType maps a vertex format to the only field type it binds to.
func formatType(f gputypes.VertexFormat) shader.Type {
	switch f {
	case gputypes.VertexFormatFloat32:
		return shader.TypeFloat
	case gputypes.VertexFormatFloat32x2:
		return shader.TypeVec2
	case gputypes.VertexFormatFloat32x3:
		return shader.TypeVec3
	case gputypes.VertexFormatFloat32x4:
		return shader.TypeVec4
	case gputypes.VertexFormatSint32:
		return shader.TypeInt
	case gputypes.VertexFormatUint32:
		return shader.TypeUint
	}
	return shader.TypeInvalid
}

func (c *compiler) varyingOut(f shader.Field, st *Stage) {
	const stage = gputypes.ShaderStageVertex

	slot, err := c.in.Storage.Declare(f.Name, f.Type)
	if err != nil {
		c.skip(stage, f, err)
		return
	}
	if view := floatView(f.Ptr); view != nil {
		st.Export = append(st.Export, func(inv *Invocation) { slot.StoreFloats(inv.Vertex, view) })
		return
	}
	get, _ := flatAccess(f.Ptr)
	st.Export = append(st.Export, func(inv *Invocation) { slot.StoreBits(inv.Vertex, get()) })
}

func (c *compiler) varyingIn(f shader.Field, st *Stage) {
	const stage = gputypes.ShaderStageFragment

	slot, err := c.in.Storage.Lookup(f.Name, f.Type)
	if err != nil {
		c.skip(stage, f, err)
		return
	}
	if view := floatView(f.Ptr); view != nil {
		st.Pre = append(st.Pre, func(inv *Invocation) { slot.Interpolate(inv.Weights, view) })
		return
	}
	_, set := flatAccess(f.Ptr)
	st.Pre = append(st.Pre, func(*Invocation) { set(slot.Flat()) })
}

func (c *compiler) colorOut(f shader.Field, st *Stage) {
	const stage = gputypes.ShaderStageFragment

	p, ok := f.Ptr.(*f32.Vec4)
	if !ok {
		c.skip(stage, f, fmt.Errorf("%w: color output must be vec4, field is %s", ErrTypeMismatch, f.Type))
		return
	}
	if int(f.Location) >= len(c.in.ColorAttachments) || c.in.ColorAttachments[f.Location] == nil {
		c.skip(stage, f, fmt.Errorf("%w %d", ErrBadAttachment, f.Location))
		return
	}
	view := c.in.ColorAttachments[f.Location]
	st.Post = append(st.Post, func(inv *Invocation) { view.WriteColor(inv.X, inv.Y, *p) })
}

func (c *compiler) uniform(stage gputypes.ShaderStage, f shader.Field) error {
	if c.in.Descriptors == nil {
		c.skip(stage, f, fmt.Errorf("%w: set %d binding %d", ErrUnbound, f.Set, f.Binding))
		return nil
	}
	d, ok := c.in.Descriptors.Descriptor(f.Set, f.Binding)
	if !ok {
		c.skip(stage, f, fmt.Errorf("%w: set %d binding %d", ErrUnbound, f.Set, f.Binding))
		return nil
	}

	switch d.Type {
	case resource.DescriptorUniformBuffer:
		c.uniformBuffer(stage, f, d)
	case resource.DescriptorCombinedImageSampler:
		c.sampler(stage, f, d)
	default:
		return fmt.Errorf("binder: %s field %q: descriptor type %s: %w", stage, f.Name, d.Type, errors.ErrUnsupported)
	}
	return nil
}

func (c *compiler) uniformBuffer(stage gputypes.ShaderStage, f shader.Field, d resource.Descriptor) {
	if f.Type == shader.TypeSampler2D {
		c.skip(stage, f, fmt.Errorf("%w: sampler bound to %s", ErrDescriptorMismatch, d.Type))
		return
	}
	if len(d.Data) < f.Size {
		c.skip(stage, f, fmt.Errorf("%w: %d bytes bound, %s needs %d", ErrDescriptorMismatch, len(d.Data), f.Type, f.Size))
		return
	}

	mem := d.Data
	name := f.Name
	if f.Type == shader.TypeBlock {
		c.prog.Uniforms = append(c.prog.Uniforms, func(inv *Invocation) {
			if err := f.Decode(mem); err != nil {
				inv.Fail(fmt.Errorf("binder: uniform %q: %w", name, err))
			}
		})
		return
	}
	read := fetcher(f.Ptr)
	c.prog.Uniforms = append(c.prog.Uniforms, func(inv *Invocation) {
		if err := read(mem, 0); err != nil {
			inv.Fail(fmt.Errorf("binder: uniform %q: %w", name, err))
		}
	})
}

func (c *compiler) sampler(stage gputypes.ShaderStage, f shader.Field, d resource.Descriptor) {
	p, ok := f.Ptr.(*shader.Sampler2D)
	if !ok {
		c.skip(stage, f, fmt.Errorf("%w: %s bound to %s field", ErrDescriptorMismatch, d.Type, f.Type))
		return
	}
	if d.View == nil {
		c.skip(stage, f, fmt.Errorf("%w: sampler has no image view", ErrUnbound))
		return
	}
	s := shader.NewSampler2D(texture{d.View}, d.Sampler)
	c.prog.Uniforms = append(c.prog.Uniforms, func(*Invocation) { *p = s })
}

// texture adapts an image view to shader.Texture.
type texture struct {
	resource.ImageView
}

func (t texture) Texel(x, y int) f32.Vec4 { return t.ReadColor(x, y) }

// fetcher returns a function loading the field from little-endian memory.
func fetcher(ptr any) func(mem []byte, off int) error {
	switch p := ptr.(type) {
	case *float32:
		return into(p, codec.Read[float32])
	case *f32.Vec2:
		return into(p, codec.ReadVec2)
	case *f32.Vec3:
		return into(p, codec.ReadVec3)
	case *f32.Vec4:
		return into(p, codec.ReadVec4)
	case *f32.Mat4:
		return into(p, codec.ReadMat4)
	case *int32:
		return into(p, codec.Read[int32])
	case *uint32:
		return into(p, codec.Read[uint32])
	case *bool:
		return func(mem []byte, off int) error {
			v, err := codec.Read[uint32](mem, off)
			if err != nil {
				return err
			}
			*p = v != 0
			return nil
		}
	}
	return nil
}

func into[T any](p *T, read func([]byte, int) (T, error)) func([]byte, int) error {
	return func(mem []byte, off int) error {
		v, err := read(mem, off)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}

// floatView returns the components of a float field, aliasing its storage.
func floatView(ptr any) []float32 {
	switch p := ptr.(type) {
	case *float32:
		return unsafe.Slice(p, 1)
	case *f32.Vec2:
		return p[:]
	case *f32.Vec3:
		return p[:]
	case *f32.Vec4:
		return p[:]
	case *f32.Mat4:
		return p[:]
	}
	return nil
}

// flatAccess returns bit-level accessors for integer and boolean fields.
func flatAccess(ptr any) (get func() uint32, set func(uint32)) {
	switch p := ptr.(type) {
	case *int32:
		return func() uint32 { return uint32(*p) }, func(b uint32) { *p = int32(b) }
	case *uint32:
		return func() uint32 { return *p }, func(b uint32) { *p = b }
	case *bool:
		return func() uint32 {
				if *p {
					return 1
				}
				return 0
			}, func(b uint32) {
				*p = b != 0
			}
	}
	return func() uint32 { return 0 }, func(uint32) {}
}
