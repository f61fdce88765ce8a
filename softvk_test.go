package softvk

import (
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/shader"
)

// posVS places a vec3 position in clip space and records vertex indices.
type posVS struct {
	Pos      f32.Vec3
	Position f32.Vec4
	Index    int32

	indices []int32
}

func (s *posVS) Interface() []shader.Field {
	return []shader.Field{
		shader.In("pos", 0, &s.Pos),
		shader.Builtin(shader.Position, &s.Position),
		shader.Builtin(shader.VertexIndex, &s.Index),
	}
}

func (s *posVS) Main() {
	s.Position = f32.Vec4{s.Pos[0], s.Pos[1], s.Pos[2], 1}
	s.indices = append(s.indices, s.Index)
}

// solidFS writes a uniform color.
type solidFS struct {
	Color f32.Vec4
	Out   f32.Vec4
}

func (s *solidFS) Interface() []shader.Field {
	return []shader.Field{
		shader.Uniform("color", 0, 0, &s.Color),
		shader.Out("outColor", 0, &s.Out),
	}
}

func (s *solidFS) Main() { s.Out = s.Color }

var posLayout = []gputypes.VertexBufferLayout{{
	ArrayStride: 12,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
	},
}}

// fullscreen returns a triangle covering the whole viewport at depth z,
// wound so that it is not culled.
func fullscreen(z float32) []float32 {
	return []float32{-1, -1, z, -1, 3, z, 3, -1, z}
}

var (
	red   = f32.Vec4{1, 0, 0, 1}
	green = f32.Vec4{0, 1, 0, 1}
)

// fixture is a 4x4 color target with a depth buffer, a solid color
// pipeline and one uniform color per descriptor set.
type fixture struct {
	color, depth *Image
	pass         *RenderPass
	fb           *Framebuffer

	vs       *posVS
	fs       *solidFS
	layout   *PipelineLayout
	pipeline *GraphicsPipeline

	vertices  *Buffer
	setLayout *DescriptorSetLayout

	clearColor gputypes.Color
}

func newFixture(tb testing.TB, ds *gputypes.DepthStencilState) *fixture {
	tb.Helper()
	f := &fixture{vs: &posVS{}, fs: &solidFS{}}

	f.color = mustImage(tb, 4, 4, gputypes.TextureFormatBGRA8Unorm)
	f.depth = mustImage(tb, 4, 4, gputypes.TextureFormatDepth32Float)

	var err error
	f.pass, err = NewRenderPass([]AttachmentDescription{
		{Format: gputypes.TextureFormatBGRA8Unorm, LoadOp: gputypes.LoadOpClear, StoreOp: gputypes.StoreOpStore},
		{Format: gputypes.TextureFormatDepth32Float, LoadOp: gputypes.LoadOpClear, StoreOp: gputypes.StoreOpStore},
	}, []SubpassDescription{{ColorAttachments: []int{0}, DepthStencilAttachment: 1}})
	if err != nil {
		tb.Fatalf("NewRenderPass() = %v", err)
	}
	f.fb, err = NewFramebuffer(f.pass, f.color.CreateView(), f.depth.CreateView())
	if err != nil {
		tb.Fatalf("NewFramebuffer() = %v", err)
	}

	f.setLayout, err = NewDescriptorSetLayout(gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
	if err != nil {
		tb.Fatalf("NewDescriptorSetLayout() = %v", err)
	}
	f.layout = NewPipelineLayout(f.setLayout)

	f.pipeline, err = NewGraphicsPipeline(GraphicsPipelineDescriptor{
		Label:  "solid",
		Layout: f.layout,
		Stages: []ShaderStage{
			{Stage: gputypes.ShaderStageVertex, Program: f.vs},
			{Stage: gputypes.ShaderStageFragment, Program: f.fs},
		},
		VertexBuffers: posLayout,
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		DepthStencil:  ds,
	})
	if err != nil {
		tb.Fatalf("NewGraphicsPipeline() = %v", err)
	}

	f.vertices = f.buffer(tb, gputypes.BufferUsageVertex, fullscreen(0.5)...)
	return f
}

func mustImage(tb testing.TB, w, h uint32, format gputypes.TextureFormat) *Image {
	tb.Helper()
	img, err := NewImage(gputypes.TextureDescriptor{
		Size:          gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
	})
	if err != nil {
		tb.Fatalf("NewImage(%s) = %v", format, err)
	}
	return img
}

func (f *fixture) buffer(tb testing.TB, usage gputypes.BufferUsage, data ...float32) *Buffer {
	tb.Helper()
	b, err := NewBuffer(gputypes.BufferDescriptor{Size: uint64(4 * len(data)), Usage: usage})
	if err != nil {
		tb.Fatalf("NewBuffer() = %v", err)
	}
	if err := WriteSlice(b, 0, data); err != nil {
		tb.Fatalf("WriteSlice() = %v", err)
	}
	return b
}

// colorSet returns a descriptor set whose uniform buffer holds c.
func (f *fixture) colorSet(tb testing.TB, c f32.Vec4) (*DescriptorSet, *Buffer) {
	tb.Helper()
	buf := f.buffer(tb, gputypes.BufferUsageUniform, c[:]...)
	set := NewDescriptorSet(f.setLayout)
	if err := set.WriteBuffer(0, buf, 0, 0); err != nil {
		tb.Fatalf("WriteBuffer() = %v", err)
	}
	return set, buf
}

// begin records the render pass start with color cleared to f.clearColor
// and depth cleared to 1, then binds the pipeline and the vertex buffer.
func (f *fixture) begin(cb *CommandBuffer) {
	cb.BeginRenderPass(f.fb, ClearValue{Color: f.clearColor}, ClearValue{Depth: 1})
	cb.BindPipeline(f.pipeline)
	cb.BindVertexBuffers(0, []*Buffer{f.vertices}, nil)
}

func (f *fixture) pixel(x, y int) f32.Vec4 {
	return f.color.CreateView().ReadColor(x, y)
}

// checkAll reports every pixel that differs from want.
func (f *fixture) checkAll(t *testing.T, want f32.Vec4) {
	t.Helper()
	for y := range 4 {
		for x := range 4 {
			if got := f.pixel(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}
