package softvk

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/softvk/internal/raster"
	"github.com/gogpu/softvk/internal/resource"
)

// ExecutionContext is the bind and render pass state seen by commands.
// Every phase of a command buffer starts from an empty context and walks
// the commands in order.
type ExecutionContext struct {
	opts *options

	// index is the position of the command being processed.
	index int

	pipeline       *GraphicsPipeline
	vertexBuffers  []resource.VertexBuffer
	vertexBound    []bool
	indexBuffer    resource.IndexBuffer
	indexBound     bool
	descriptorSets []*DescriptorSet

	inPass      bool
	passBegin   int
	framebuffer *Framebuffer
	subpass     int
}

func newExecutionContext(opts *options) *ExecutionContext {
	return &ExecutionContext{opts: opts}
}

// reset clears the bind state, keeping allocated slices.
func (ctx *ExecutionContext) reset() {
	*ctx = ExecutionContext{
		opts:           ctx.opts,
		vertexBuffers:  ctx.vertexBuffers[:0],
		vertexBound:    ctx.vertexBound[:0],
		descriptorSets: ctx.descriptorSets[:0],
	}
}

func (ctx *ExecutionContext) log() *slog.Logger { return ctx.opts.log() }

// Index returns the position of the command being processed.
func (ctx *ExecutionContext) Index() int { return ctx.index }

// Pipeline returns the bound pipeline, or nil.
func (ctx *ExecutionContext) Pipeline() *GraphicsPipeline { return ctx.pipeline }

// Framebuffer returns the framebuffer of the active render pass, or nil.
func (ctx *ExecutionContext) Framebuffer() *Framebuffer { return ctx.framebuffer }

// InRenderPass reports whether a render pass is active.
func (ctx *ExecutionContext) InRenderPass() bool { return ctx.inPass }

// Subpass returns the index of the active subpass.
func (ctx *ExecutionContext) Subpass() int { return ctx.subpass }

func (ctx *ExecutionContext) bindVertexBuffer(binding int, vb resource.VertexBuffer) {
	for len(ctx.vertexBuffers) <= binding {
		ctx.vertexBuffers = append(ctx.vertexBuffers, resource.VertexBuffer{})
		ctx.vertexBound = append(ctx.vertexBound, false)
	}
	ctx.vertexBuffers[binding] = vb
	ctx.vertexBound[binding] = true
}

func (ctx *ExecutionContext) bindDescriptorSet(set int, s *DescriptorSet) {
	for len(ctx.descriptorSets) <= set {
		ctx.descriptorSets = append(ctx.descriptorSets, nil)
	}
	ctx.descriptorSets[set] = s
}

func (ctx *ExecutionContext) beginPass(fb *Framebuffer) {
	ctx.inPass = true
	ctx.passBegin = ctx.index
	ctx.framebuffer = fb
	ctx.subpass = 0
}

func (ctx *ExecutionContext) endPass() {
	ctx.inPass = false
	ctx.framebuffer = nil
	ctx.subpass = 0
}

// checkDraw validates the state a draw needs.
func (ctx *ExecutionContext) checkDraw(indexed bool) error {
	if !ctx.inPass {
		return ErrNoRenderPass
	}
	if ctx.pipeline == nil {
		return ErrNoPipeline
	}
	if indexed && !ctx.indexBound {
		return ErrNoIndexBuffer
	}
	for i := range ctx.pipeline.desc.VertexBuffers {
		if i >= len(ctx.vertexBound) || !ctx.vertexBound[i] {
			return fmt.Errorf("%w: binding %d", ErrNoVertexBuffer, i)
		}
	}
	return nil
}

// rasterConfig returns the draw state for the bound pipeline in the active
// subpass.
func (ctx *ExecutionContext) rasterConfig() raster.Config {
	p := ctx.pipeline
	fb := ctx.framebuffer
	sp := fb.pass.subpasses[ctx.subpass]

	colors := make([]resource.ImageView, len(sp.ColorAttachments))
	for i, a := range sp.ColorAttachments {
		colors[i] = fb.views[a]
	}
	cfg := raster.Config{
		Topology:         p.desc.Topology,
		Viewport:         p.viewport(fb),
		DepthStencil:     p.desc.DepthStencil,
		Vertex:           p.vertex,
		Fragment:         p.fragment,
		VertexLayouts:    p.desc.VertexBuffers,
		Descriptors:      snapshot(ctx.descriptorSets),
		ColorAttachments: colors,
		UniformInit:      ctx.opts.uniformInit,
	}
	if a := sp.DepthStencilAttachment; a != AttachmentUnused {
		cfg.DepthView = fb.views[a]
	}
	return cfg
}
