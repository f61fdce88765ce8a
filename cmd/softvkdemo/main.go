// Command softvkdemo renders a spinning cube over a checkerboard with the
// softvk command-buffer pipeline and writes the last frame as PNG.
package main

import (
	"encoding/binary"
	"flag"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk"
	"github.com/gogpu/softvk/shader"
)

func main() {
	var (
		width   = flag.Int("width", 320, "image width")
		height  = flag.Int("height", 240, "image height")
		output  = flag.String("output", "softvk.png", "output file")
		frames  = flag.Int("frames", 2, "number of frames to render")
		scale   = flag.Int("scale", 1, "integer upscale factor of the written image")
		verbose = flag.Bool("v", false, "log pipeline diagnostics")
	)
	flag.Parse()

	if *verbose {
		softvk.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	s, err := newScene(*width, *height)
	if err != nil {
		fatal("setup", err)
	}

	queue := softvk.NewQueue()
	fence := softvk.NewFence(false)
	for i := range max(*frames, 1) {
		s.setAngle(float32(i) * math.Pi / 8)
		fence.Reset()
		if err := queue.Submit(fence, s.cmd); err != nil {
			fatal("submit", err)
		}
		st := s.cmd.Stats()
		slog.Info("frame rendered", "frame", i, "fragments", st.Fragments, "culled", st.Culled, "depthRejected", st.DepthRejected)
	}

	if err := save(s.color.CreateView(), *output, *scale); err != nil {
		fatal("save", err)
	}
	slog.Info("saved", "path", *output, "scale", *scale)
}

func fatal(what string, err error) {
	slog.Error(what+" failed", "err", err)
	os.Exit(1)
}

func save(v *softvk.ImageView, path string, scale int) error {
	if scale <= 1 {
		return v.SavePNG(path)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, v.Width()*scale, v.Height()*scale))
	v.Scale(dst, dst.Bounds(), draw.NearestNeighbor)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// cubeVS transforms positions by the model-view-projection matrix and
// passes the face color on.
type cubeVS struct {
	MVP      f32.Mat4
	Pos      f32.Vec3
	Color    f32.Vec3
	Position f32.Vec4
	Out      f32.Vec3
}

func (s *cubeVS) Interface() []shader.Field {
	return []shader.Field{
		shader.Uniform("mvp", 0, 0, &s.MVP),
		shader.In("pos", 0, &s.Pos),
		shader.In("color", 1, &s.Color),
		shader.Builtin(shader.Position, &s.Position),
		shader.Out("color", 0, &s.Out),
	}
}

func (s *cubeVS) Main() {
	s.Position = mulVec(&s.MVP, f32.Vec4{s.Pos[0], s.Pos[1], s.Pos[2], 1})
	s.Out = s.Color
}

type cubeFS struct {
	Color f32.Vec3
	Out   f32.Vec4
}

func (s *cubeFS) Interface() []shader.Field {
	return []shader.Field{
		shader.In("color", 0, &s.Color),
		shader.Out("outColor", 0, &s.Out),
	}
}

func (s *cubeFS) Main() { s.Out = f32.Vec4{s.Color[0], s.Color[1], s.Color[2], 1} }

const cubeWGSL = `
@group(0) @binding(0) var<uniform> mvp: mat4x4<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @location(1) color: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = mvp * vec4<f32>(pos, 1.0);
    out.color = color;
    return out;
}
`

// floorVS passes clip-space positions through with a texture coordinate.
type floorVS struct {
	Pos      f32.Vec3
	UV       f32.Vec2
	Position f32.Vec4
	Out      f32.Vec2
}

func (s *floorVS) Interface() []shader.Field {
	return []shader.Field{
		shader.In("pos", 0, &s.Pos),
		shader.In("uv", 1, &s.UV),
		shader.Builtin(shader.Position, &s.Position),
		shader.Out("uv", 0, &s.Out),
	}
}

func (s *floorVS) Main() {
	s.Position = f32.Vec4{s.Pos[0], s.Pos[1], s.Pos[2], 1}
	s.Out = s.UV
}

type floorFS struct {
	Tex f32.Vec2
	Sam shader.Sampler2D
	Out f32.Vec4
}

func (s *floorFS) Interface() []shader.Field {
	return []shader.Field{
		shader.In("uv", 0, &s.Tex),
		shader.Sampler("checker", 0, 1, &s.Sam),
		shader.Out("outColor", 0, &s.Out),
	}
}

func (s *floorFS) Main() { s.Out = s.Sam.Sample(s.Tex) }

type scene struct {
	color  *softvk.Image
	aspect float32
	mvp    *softvk.Buffer
	cmd    *softvk.CommandBuffer
}

func newScene(w, h int) (*scene, error) {
	s := &scene{aspect: float32(w) / float32(h)}

	var err error
	s.color, err = image2D(w, h, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		return nil, err
	}
	depth, err := image2D(w, h, gputypes.TextureFormatDepth32Float)
	if err != nil {
		return nil, err
	}
	pass, err := softvk.NewRenderPass([]softvk.AttachmentDescription{
		{Format: gputypes.TextureFormatBGRA8Unorm, LoadOp: gputypes.LoadOpClear, StoreOp: gputypes.StoreOpStore},
		{Format: gputypes.TextureFormatDepth32Float, LoadOp: gputypes.LoadOpClear, StoreOp: gputypes.StoreOpDiscard},
	}, []softvk.SubpassDescription{{ColorAttachments: []int{0}, DepthStencilAttachment: 1}})
	if err != nil {
		return nil, err
	}
	fb, err := softvk.NewFramebuffer(pass, s.color.CreateView(), depth.CreateView())
	if err != nil {
		return nil, err
	}

	checker, staging, err := checkerboard(8)
	if err != nil {
		return nil, err
	}

	uniformLayout, err := softvk.NewDescriptorSetLayout(gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
	if err != nil {
		return nil, err
	}
	textureLayout, err := softvk.NewDescriptorSetLayout(gputypes.BindGroupLayoutEntry{
		Binding:    1,
		Visibility: gputypes.ShaderStageFragment,
		Texture:    &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat},
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	})
	if err != nil {
		return nil, err
	}
	cubeLayout := softvk.NewPipelineLayout(uniformLayout)
	floorLayout := softvk.NewPipelineLayout(textureLayout)

	depthState := &gputypes.DepthStencilState{
		Format:            gputypes.TextureFormatDepth32Float,
		DepthWriteEnabled: true,
		DepthCompare:      gputypes.CompareFunctionLess,
	}
	cube, err := softvk.NewGraphicsPipeline(softvk.GraphicsPipelineDescriptor{
		Label:  "cube",
		Layout: cubeLayout,
		Stages: []softvk.ShaderStage{
			{Stage: gputypes.ShaderStageVertex, Program: &cubeVS{}, WGSL: cubeWGSL, EntryPoint: "vs_main"},
			{Stage: gputypes.ShaderStageFragment, Program: &cubeFS{}},
		},
		VertexBuffers: []gputypes.VertexBufferLayout{{
			ArrayStride: 24,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			},
		}},
		Topology:     gputypes.PrimitiveTopologyTriangleList,
		DepthStencil: depthState,
	})
	if err != nil {
		return nil, err
	}
	floor, err := softvk.NewGraphicsPipeline(softvk.GraphicsPipelineDescriptor{
		Label:  "checkerboard",
		Layout: floorLayout,
		Stages: []softvk.ShaderStage{
			{Stage: gputypes.ShaderStageVertex, Program: &floorVS{}},
			{Stage: gputypes.ShaderStageFragment, Program: &floorFS{}},
		},
		VertexBuffers: []gputypes.VertexBufferLayout{{
			ArrayStride: 20,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			},
		}},
		Topology:     gputypes.PrimitiveTopologyTriangleList,
		DepthStencil: depthState,
	})
	if err != nil {
		return nil, err
	}

	cubeVertices, cubeIndices := cubeMesh()
	cubeVB, err := buffer(gputypes.BufferUsageVertex, cubeVertices)
	if err != nil {
		return nil, err
	}
	cubeIB, err := buffer(gputypes.BufferUsageIndex, cubeIndices)
	if err != nil {
		return nil, err
	}
	// A full-screen quad on the far plane, tiled four times.
	floorVB, err := buffer(gputypes.BufferUsageVertex, []float32{
		-1, -1, 0.999, 0, 0,
		-1, 1, 0.999, 0, 4,
		1, 1, 0.999, 4, 4,
		1, -1, 0.999, 4, 0,
	})
	if err != nil {
		return nil, err
	}
	floorIB, err := buffer(gputypes.BufferUsageIndex, []uint16{0, 1, 2, 0, 2, 3})
	if err != nil {
		return nil, err
	}

	s.mvp, err = softvk.NewBuffer(gputypes.BufferDescriptor{Label: "mvp", Size: 64, Usage: gputypes.BufferUsageUniform})
	if err != nil {
		return nil, err
	}
	cubeSet := softvk.NewDescriptorSet(uniformLayout)
	if err := cubeSet.WriteBuffer(0, s.mvp, 0, 0); err != nil {
		return nil, err
	}
	floorSet := softvk.NewDescriptorSet(textureLayout)
	sampler := softvk.NewSampler(gputypes.SamplerDescriptor{
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
	})
	if err := floorSet.WriteImage(1, checker.CreateView(), sampler); err != nil {
		return nil, err
	}

	cb := softvk.NewCommandBuffer()
	cb.CopyBufferToImage(staging, checker, softvk.BufferImageCopy{
		Extent: gputypes.Extent3D{Width: uint32(checker.Width()), Height: uint32(checker.Height()), DepthOrArrayLayers: 1},
	})
	cb.PipelineBarrier()
	cb.BeginRenderPass(fb,
		softvk.ClearValue{Color: gputypes.Color{R: 0.1, G: 0.1, B: 0.15, A: 1}},
		softvk.ClearValue{Depth: 1},
	)
	cb.BindPipeline(floor)
	cb.BindDescriptorSets(floorLayout, 0, floorSet)
	cb.BindVertexBuffers(0, []*softvk.Buffer{floorVB}, nil)
	cb.BindIndexBuffer(floorIB, 0, gputypes.IndexFormatUint16)
	cb.DrawIndexed(6, 1, 0, 0, 0)
	cb.BindPipeline(cube)
	cb.BindDescriptorSets(cubeLayout, 0, cubeSet)
	cb.BindVertexBuffers(0, []*softvk.Buffer{cubeVB}, nil)
	cb.BindIndexBuffer(cubeIB, 0, gputypes.IndexFormatUint16)
	cb.DrawIndexed(uint32(len(cubeIndices)), 1, 0, 0, 0)
	cb.EndRenderPass()
	if err := cb.End(); err != nil {
		return nil, err
	}
	for _, d := range cb.Diagnostics() {
		slog.Warn("binding diagnostic", "err", d)
	}
	s.cmd = cb
	return s, nil
}

// setAngle writes the transform for a cube rotated by angle around y into
// the uniform buffer the recorded commands read.
func (s *scene) setAngle(angle float32) {
	m := mul(translate(0, 0, -3), mul(rotateY(angle), rotateX(0.5)))
	m = mul(perspective(math.Pi/3, s.aspect, 0.1, 10), m)
	if err := softvk.WriteSlice(s.mvp, 0, m[:]); err != nil {
		fatal("update", err)
	}
}

func image2D(w, h int, format gputypes.TextureFormat) (*softvk.Image, error) {
	return softvk.NewImage(gputypes.TextureDescriptor{
		Size:          gputypes.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
}

func buffer[T float32 | uint16](usage gputypes.BufferUsage, data []T) (*softvk.Buffer, error) {
	b, err := softvk.NewBuffer(gputypes.BufferDescriptor{Size: uint64(binary.Size(data)), Usage: usage})
	if err != nil {
		return nil, err
	}
	return b, softvk.WriteSlice(b, 0, data)
}

// checkerboard returns an n x n RGBA8 texture and a staging buffer holding
// its texels.
func checkerboard(n int) (*softvk.Image, *softvk.Buffer, error) {
	img, err := image2D(n, n, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, nil, err
	}
	texels := make([]byte, 0, 4*n*n)
	for y := range n {
		for x := range n {
			if (x/(n/2)+y/(n/2))%2 == 0 {
				texels = append(texels, 200, 200, 200, 255)
			} else {
				texels = append(texels, 60, 60, 70, 255)
			}
		}
	}
	staging, err := softvk.NewBuffer(gputypes.BufferDescriptor{
		Label: "checker staging",
		Size:  uint64(len(texels)),
		Usage: gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, nil, err
	}
	return img, staging, staging.Write(0, texels)
}

// cubeMesh returns a unit cube with one color per face as interleaved
// position and color, and its triangle indices. Faces wind
// counter-clockwise seen from outside.
func cubeMesh() ([]float32, []uint16) {
	faces := []struct {
		n, u, v, color f32.Vec3
	}{
		{f32.Vec3{1, 0, 0}, f32.Vec3{0, 1, 0}, f32.Vec3{0, 0, 1}, f32.Vec3{0.9, 0.2, 0.2}},
		{f32.Vec3{-1, 0, 0}, f32.Vec3{0, 0, 1}, f32.Vec3{0, 1, 0}, f32.Vec3{0.2, 0.9, 0.2}},
		{f32.Vec3{0, 1, 0}, f32.Vec3{0, 0, 1}, f32.Vec3{1, 0, 0}, f32.Vec3{0.2, 0.2, 0.9}},
		{f32.Vec3{0, -1, 0}, f32.Vec3{1, 0, 0}, f32.Vec3{0, 0, 1}, f32.Vec3{0.9, 0.9, 0.2}},
		{f32.Vec3{0, 0, 1}, f32.Vec3{1, 0, 0}, f32.Vec3{0, 1, 0}, f32.Vec3{0.9, 0.2, 0.9}},
		{f32.Vec3{0, 0, -1}, f32.Vec3{0, 1, 0}, f32.Vec3{1, 0, 0}, f32.Vec3{0.2, 0.9, 0.9}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	var vertices []float32
	var indices []uint16
	for i, f := range faces {
		for _, c := range corners {
			for k := range 3 {
				vertices = append(vertices, 0.5*(f.n[k]+c[0]*f.u[k]+c[1]*f.v[k]))
			}
			vertices = append(vertices, f.color[:]...)
		}
		b := uint16(4 * i)
		indices = append(indices, b, b+1, b+2, b, b+2, b+3)
	}
	return vertices, indices
}

// Matrices are row major and transform column vectors.

func mulVec(m *f32.Mat4, v f32.Vec4) f32.Vec4 {
	var out f32.Vec4
	for r := range 4 {
		out[r] = m[4*r]*v[0] + m[4*r+1]*v[1] + m[4*r+2]*v[2] + m[4*r+3]*v[3]
	}
	return out
}

func mul(a, b f32.Mat4) f32.Mat4 {
	var out f32.Mat4
	for r := range 4 {
		for c := range 4 {
			for k := range 4 {
				out[4*r+c] += a[4*r+k] * b[4*k+c]
			}
		}
	}
	return out
}

func translate(x, y, z float32) f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

func rotateY(a float32) f32.Mat4 {
	s, c := sincos(a)
	return f32.Mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

func rotateX(a float32) f32.Mat4 {
	s, c := sincos(a)
	return f32.Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// perspective maps view depth [-near, -far] to [0, 1] and flips y so that
// up is toward row 0.
func perspective(fovy, aspect, near, far float32) f32.Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	return f32.Mat4{
		f / aspect, 0, 0, 0,
		0, -f, 0, 0,
		0, 0, far / (near - far), near * far / (near - far),
		0, 0, -1, 0,
	}
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}
