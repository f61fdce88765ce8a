// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package binder

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/internal/resource"
	"github.com/gogpu/softvk/shader"
)

// testView is an in-memory resource.ImageView.
type testView struct {
	w, h  int
	color []f32.Vec4
	depth []float32
}

func newTestView(w, h int) *testView {
	return &testView{w: w, h: h, color: make([]f32.Vec4, w*h), depth: make([]float32, w*h)}
}

func (v *testView) Width() int                     { return v.w }
func (v *testView) Height() int                    { return v.h }
func (v *testView) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA32Float }
func (v *testView) in(x, y int) bool               { return x >= 0 && y >= 0 && x < v.w && y < v.h }
func (v *testView) ReadColor(x, y int) f32.Vec4 {
	if !v.in(x, y) {
		return f32.Vec4{}
	}
	return v.color[y*v.w+x]
}
func (v *testView) WriteColor(x, y int, c f32.Vec4) {
	if v.in(x, y) {
		v.color[y*v.w+x] = c
	}
}
func (v *testView) ReadDepth(x, y int) float32 {
	if !v.in(x, y) {
		return 0
	}
	return v.depth[y*v.w+x]
}
func (v *testView) WriteDepth(x, y int, d float32) {
	if v.in(x, y) {
		v.depth[y*v.w+x] = d
	}
}
func (v *testView) ReadStencil(int, int) uint8   { return 0 }
func (v *testView) WriteStencil(int, int, uint8) {}

type program struct {
	fields []shader.Field
	main   func()
}

func (p *program) Interface() []shader.Field { return p.fields }
func (p *program) Main() {
	if p.main != nil {
		p.main()
	}
}

func describe(t *testing.T, stage gputypes.ShaderStage, fields []shader.Field, main func()) *shader.Descriptor {
	t.Helper()
	d, err := shader.Describe(stage, &program{fields: fields, main: main})
	if err != nil {
		t.Fatalf("Describe() = %v", err)
	}
	return d
}

func floats(vs ...float32) []byte {
	b := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// passthrough builds a vertex stage copying a vec3 attribute to a varying and
// a fragment stage writing that varying as color.
type passthrough struct {
	pos, color, outColor f32.Vec3
	position             f32.Vec4
	index                int32
	inColor              f32.Vec3
	fragColor            f32.Vec4
}

func (p *passthrough) input(t *testing.T, view resource.ImageView) Input {
	vs := describe(t, gputypes.ShaderStageVertex, []shader.Field{
		shader.In("pos", 0, &p.pos),
		shader.In("color", 1, &p.color),
		shader.Out("vColor", 0, &p.outColor),
		shader.Builtin(shader.Position, &p.position),
		shader.Builtin(shader.VertexIndex, &p.index),
	}, func() {
		p.position = f32.Vec4{p.pos[0], p.pos[1], p.pos[2], 1}
		p.outColor = p.color
	})
	fs := describe(t, gputypes.ShaderStageFragment, []shader.Field{
		shader.In("vColor", 0, &p.inColor),
		shader.Out("outColor", 0, &p.fragColor),
	}, func() {
		p.fragColor = f32.Vec4{p.inColor[0], p.inColor[1], p.inColor[2], 1}
	})

	storage := NewStorage()
	storage.Reset(3)
	return Input{
		Vertex:   vs,
		Fragment: fs,
		VertexLayouts: []gputypes.VertexBufferLayout{{
			ArrayStride: 24,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			},
		}},
		ColorAttachments: []resource.ImageView{view},
		Storage:          storage,
	}
}

func TestCompilePassthrough(t *testing.T) {
	view := newTestView(4, 4)
	p := &passthrough{}
	prog, err := Compile(p.input(t, view))
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	if len(prog.Diagnostics) != 0 {
		t.Fatalf("Diagnostics = %v", prog.Diagnostics)
	}

	vb := floats(
		0, 0, 0, 1, 0, 0,
		1, 0, 0, 0, 1, 0,
		0, 1, 0, 0, 0, 1,
	)
	inv := &Invocation{VertexBuffers: []resource.VertexBuffer{{Data: vb}}}
	var positions [3]f32.Vec4
	for v := range 3 {
		inv.Vertex = v
		inv.VertexIndex = int32(v)
		prog.Vertex.Run(inv)
		positions[v] = inv.Position
		if p.index != int32(v) {
			t.Errorf("gl_VertexIndex = %d, want %d", p.index, v)
		}
	}
	if err := inv.Err(); err != nil {
		t.Fatalf("vertex stage error = %v", err)
	}
	if positions[1] != (f32.Vec4{1, 0, 0, 1}) {
		t.Errorf("position of vertex 1 = %v", positions[1])
	}

	inv.X, inv.Y = 2, 3
	inv.Weights = []float32{0.5, 0.25, 0.25}
	prog.Fragment.Run(inv)
	if got, want := view.ReadColor(2, 3), (f32.Vec4{0.5, 0.25, 0.25, 1}); got != want {
		t.Errorf("color at (2,3) = %v, want %v", got, want)
	}
}

func TestCompileVertexBufferErrors(t *testing.T) {
	p := &passthrough{}
	prog, err := Compile(p.input(t, newTestView(1, 1)))
	if err != nil {
		t.Fatal(err)
	}

	inv := &Invocation{}
	prog.Vertex.Run(inv)
	if !errors.Is(inv.Err(), ErrVertexBuffer) {
		t.Errorf("unbound buffer: err = %v", inv.Err())
	}

	inv = &Invocation{VertexIndex: 5, VertexBuffers: []resource.VertexBuffer{{Data: floats(1, 2, 3)}}}
	prog.Vertex.Run(inv)
	if inv.Err() == nil {
		t.Error("read past end: err = nil")
	}
}

func TestCompileDiagnostics(t *testing.T) {
	var (
		vpos      f32.Vec4
		pos       f32.Vec3
		extra     float32
		missing   f32.Vec3
		coord     f32.Vec4
		fragOut   f32.Vec4
		wrongOut  f32.Vec3
		farOut    f32.Vec4
		wrongAttr f32.Vec2
	)
	vs := describe(t, gputypes.ShaderStageVertex, []shader.Field{
		shader.In("pos", 0, &pos),
		shader.In("uv", 1, &wrongAttr),
		shader.Out("extra", 0, &extra),
		shader.Builtin(shader.FragCoord, &coord),
		shader.Builtin(shader.Position, &vpos),
	}, nil)
	fs := describe(t, gputypes.ShaderStageFragment, []shader.Field{
		shader.In("normal", 0, &missing),
		shader.Out("color", 0, &fragOut),
		shader.Out("bad", 1, &wrongOut),
		shader.Out("far", 3, &farOut),
	}, nil)

	storage := NewStorage()
	storage.Reset(3)
	prog, err := Compile(Input{
		Vertex:   vs,
		Fragment: fs,
		VertexLayouts: []gputypes.VertexBufferLayout{{
			ArrayStride: 12,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x3, ShaderLocation: 1},
			},
		}},
		ColorAttachments: []resource.ImageView{newTestView(1, 1)},
		Storage:          storage,
	})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}

	want := []error{ErrTypeMismatch, ErrUnknownBuiltin, ErrNoProducer, ErrTypeMismatch, ErrBadAttachment}
	if len(prog.Diagnostics) != len(want) {
		t.Fatalf("Diagnostics = %v, want %d entries", prog.Diagnostics, len(want))
	}
	for i, w := range want {
		if !errors.Is(prog.Diagnostics[i], ErrBinding) || !errors.Is(prog.Diagnostics[i], w) {
			t.Errorf("Diagnostics[%d] = %v, want %v", i, prog.Diagnostics[i], w)
		}
	}

	// The extra vertex output is legal and declared.
	if _, err := storage.Lookup("extra", shader.TypeFloat); err != nil {
		t.Errorf("extra output not declared: %v", err)
	}

	// The unbound fragment input stays zero.
	missing = f32.Vec3{9, 9, 9}
	storage2 := NewStorage()
	storage2.Reset(3)
	prog, err = Compile(Input{Vertex: vs, Fragment: fs, Storage: storage2})
	if err != nil {
		t.Fatal(err)
	}
	if missing != (f32.Vec3{}) {
		t.Errorf("unbound input = %v, want zero after compile", missing)
	}
	prog.Fragment.Run(&Invocation{Weights: []float32{1, 0, 0}})
	if missing != (f32.Vec3{}) {
		t.Errorf("unbound input = %v after invocation, want zero", missing)
	}

	// Another program sharing the shader value may write the field after
	// compilation; the defaults restore it.
	missing = f32.Vec3{7, 7, 7}
	prog.ResetDefaults(&Invocation{})
	if missing != (f32.Vec3{}) {
		t.Errorf("unbound input = %v after ResetDefaults, want zero", missing)
	}
	if len(prog.Defaults) != 1 {
		t.Errorf("len(Defaults) = %d, want 1", len(prog.Defaults))
	}
}

func TestCompileFlatVarying(t *testing.T) {
	var (
		id, outID int32
		inID      int32
		color     f32.Vec4
	)
	vs := describe(t, gputypes.ShaderStageVertex, []shader.Field{
		shader.Builtin(shader.VertexIndex, &id),
		shader.Out("id", 0, &outID),
	}, func() { outID = id * 10 })
	fs := describe(t, gputypes.ShaderStageFragment, []shader.Field{
		shader.In("id", 0, &inID),
		shader.Out("color", 0, &color),
	}, nil)

	storage := NewStorage()
	storage.Reset(3)
	prog, err := Compile(Input{
		Vertex: vs, Fragment: fs, Storage: storage,
		ColorAttachments: []resource.ImageView{newTestView(1, 1)},
	})
	if err != nil {
		t.Fatal(err)
	}
	inv := &Invocation{}
	for v := range 3 {
		inv.Vertex = v
		inv.VertexIndex = int32(v + 4)
		prog.Vertex.Run(inv)
	}
	inv.Weights = []float32{0, 0, 1}
	prog.Fragment.Run(inv)
	if inID != 40 {
		t.Errorf("flat varying = %d, want provoking vertex value 40", inID)
	}
}

type light struct {
	Dir       f32.Vec3
	Intensity float32
}

func TestCompileUniforms(t *testing.T) {
	var (
		l     light
		scale float32
		tex   shader.Sampler2D
		pos   f32.Vec4
		color f32.Vec4
	)
	vs := describe(t, gputypes.ShaderStageVertex, []shader.Field{
		shader.Block("light", 0, 0, &l),
		shader.Uniform("scale", 0, 1, &scale),
		shader.Builtin(shader.Position, &pos),
	}, nil)
	fs := describe(t, gputypes.ShaderStageFragment, []shader.Field{
		shader.Sampler("tex", 1, 0, &tex),
		shader.Out("color", 0, &color),
	}, nil)

	lightMem := floats(0, 0, 1, 0.5)
	scaleMem := floats(2)
	img := newTestView(1, 1)
	img.WriteColor(0, 0, f32.Vec4{1, 0, 1, 1})

	storage := NewStorage()
	storage.Reset(3)
	prog, err := Compile(Input{
		Vertex:   vs,
		Fragment: fs,
		Descriptors: resource.SetList{
			{0: {Type: resource.DescriptorUniformBuffer, Data: lightMem}, 1: {Type: resource.DescriptorUniformBuffer, Data: scaleMem}},
			{0: {Type: resource.DescriptorCombinedImageSampler, View: img}},
		},
		ColorAttachments: []resource.ImageView{newTestView(1, 1)},
		Storage:          storage,
	})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	if len(prog.Diagnostics) != 0 {
		t.Fatalf("Diagnostics = %v", prog.Diagnostics)
	}

	inv := &Invocation{}
	prog.InitUniforms(inv)
	if err := inv.Err(); err != nil {
		t.Fatal(err)
	}
	if l.Dir != (f32.Vec3{0, 0, 1}) || l.Intensity != 0.5 {
		t.Errorf("light = %+v", l)
	}
	if scale != 2 {
		t.Errorf("scale = %v, want 2", scale)
	}
	if got := tex.Sample(f32.Vec2{0.5, 0.5}); got != (f32.Vec4{1, 0, 1, 1}) {
		t.Errorf("Sample() = %v", got)
	}

	// Uniform reads observe later writes to the bound memory.
	copy(scaleMem, floats(3))
	prog.InitUniforms(inv)
	if scale != 3 {
		t.Errorf("scale after update = %v, want 3", scale)
	}
}

func TestCompileUniformErrors(t *testing.T) {
	var (
		v   float32
		tex shader.Sampler2D
		pos f32.Vec4
	)
	fs := describe(t, gputypes.ShaderStageFragment, nil, nil)

	tests := []struct {
		name  string
		field shader.Field
		sets  resource.SetList
		diag  error
		fatal error
	}{
		{"unbound", shader.Uniform("v", 0, 0, &v), nil, ErrUnbound, nil},
		{"sampler in buffer", shader.Sampler("tex", 0, 0, &tex),
			resource.SetList{{0: {Type: resource.DescriptorUniformBuffer, Data: floats(1)}}}, ErrDescriptorMismatch, nil},
		{"value in sampler", shader.Uniform("v", 0, 0, &v),
			resource.SetList{{0: {Type: resource.DescriptorCombinedImageSampler, View: newTestView(1, 1)}}}, ErrDescriptorMismatch, nil},
		{"short buffer", shader.Uniform("m", 0, 0, &pos),
			resource.SetList{{0: {Type: resource.DescriptorUniformBuffer, Data: floats(1)}}}, ErrDescriptorMismatch, nil},
		{"storage buffer", shader.Uniform("v", 0, 0, &v),
			resource.SetList{{0: {Type: resource.DescriptorStorageBuffer, Data: floats(1)}}}, nil, errors.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := describe(t, gputypes.ShaderStageVertex, []shader.Field{tt.field}, nil)
			storage := NewStorage()
			storage.Reset(3)
			in := Input{Vertex: vs, Fragment: fs, Storage: storage}
			if tt.sets != nil {
				in.Descriptors = tt.sets
			}
			prog, err := Compile(in)
			if tt.fatal != nil {
				if !errors.Is(err, tt.fatal) {
					t.Fatalf("Compile() = %v, want %v", err, tt.fatal)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile() = %v", err)
			}
			if len(prog.Diagnostics) != 1 || !errors.Is(prog.Diagnostics[0], tt.diag) {
				t.Errorf("Diagnostics = %v, want %v", prog.Diagnostics, tt.diag)
			}
		})
	}
}

func TestCompileFragDepthHook(t *testing.T) {
	var depth float32
	var color f32.Vec4
	vs := describe(t, gputypes.ShaderStageVertex, nil, nil)
	fs := describe(t, gputypes.ShaderStageFragment, []shader.Field{
		shader.Builtin(shader.FragDepth, &depth),
		shader.Out("color", 0, &color),
	}, func() { depth *= 0.5 })

	storage := NewStorage()
	storage.Reset(3)
	prog, err := Compile(Input{Vertex: vs, Fragment: fs, Storage: storage,
		ColorAttachments: []resource.ImageView{newTestView(1, 1)}})
	if err != nil {
		t.Fatal(err)
	}
	if !prog.UsesFragDepth || !prog.UsesFragCoord {
		t.Errorf("hooks: UsesFragDepth = %v, UsesFragCoord = %v", prog.UsesFragDepth, prog.UsesFragCoord)
	}
	inv := &Invocation{FragCoord: f32.Vec4{0, 0, 0.8, 1}}
	prog.Fragment.Invoke(inv)
	if inv.FragDepth != 0.4 {
		t.Errorf("FragDepth = %v, want 0.4", inv.FragDepth)
	}
}

func TestCompileNilInputs(t *testing.T) {
	if _, err := Compile(Input{}); !errors.Is(err, ErrNilProgram) {
		t.Errorf("Compile(empty) = %v, want ErrNilProgram", err)
	}
	vs := describe(t, gputypes.ShaderStageVertex, nil, nil)
	fs := describe(t, gputypes.ShaderStageFragment, nil, nil)
	if _, err := Compile(Input{Vertex: vs, Fragment: fs}); !errors.Is(err, ErrNilStorage) {
		t.Errorf("Compile(no storage) = %v, want ErrNilStorage", err)
	}
}

func TestFloatView(t *testing.T) {
	var (
		s  float32
		v2 f32.Vec2
		v4 f32.Vec4
		m  f32.Mat4
	)
	tests := []struct {
		name string
		ptr  any
		n    int
		get  func() float32
	}{
		{"scalar", &s, 1, func() float32 { return s }},
		{"vec2", &v2, 2, func() float32 { return v2[0] }},
		{"vec4", &v4, 4, func() float32 { return v4[0] }},
		{"mat4", &m, 16, func() float32 { return m[0] }},
		{"int", new(int32), 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := floatView(tt.ptr)
			if len(view) != tt.n {
				t.Fatalf("len(floatView) = %d, want %d", len(view), tt.n)
			}
			if tt.n == 0 {
				return
			}
			view[0] = 2.5
			if got := tt.get(); got != 2.5 {
				t.Errorf("field = %v after writing the view, want 2.5", got)
			}
		})
	}
}
