package softvk

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/internal/raster"
	"github.com/gogpu/softvk/shader"
)

// Viewport maps normalized device coordinates to framebuffer pixels.
// A zero Width or Height covers the whole framebuffer with depth range
// [MinDepth, MaxDepth]; an all-zero viewport uses depth range [0, 1].
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// ShaderStage is one programmable stage of a pipeline.
type ShaderStage struct {
	Stage   gputypes.ShaderStage
	Program shader.Program

	// WGSL optionally holds WGSL source describing the same interface as
	// Program. The entry point's interface is compared with the Program
	// fields when the pipeline is created; mismatches are logged and
	// reported by Diagnostics but never fail creation.
	WGSL       string
	EntryPoint string
}

// GraphicsPipelineDescriptor describes a graphics pipeline.
type GraphicsPipelineDescriptor struct {
	Label         string
	Layout        *PipelineLayout
	Stages        []ShaderStage
	VertexBuffers []gputypes.VertexBufferLayout
	Topology      gputypes.PrimitiveTopology
	Viewport      Viewport
	// DepthStencil is nil when depth testing is disabled.
	DepthStencil *gputypes.DepthStencilState
}

// GraphicsPipeline is the immutable state of a draw.
type GraphicsPipeline struct {
	desc     GraphicsPipelineDescriptor
	vertex   *shader.Descriptor
	fragment *shader.Descriptor
	diags    []error
}

// NewGraphicsPipeline describes the vertex and fragment programs of desc
// and checks any WGSL interfaces they carry. Topology and depth state are
// validated when a draw using the pipeline is prepared.
func NewGraphicsPipeline(desc GraphicsPipelineDescriptor) (*GraphicsPipeline, error) {
	p := &GraphicsPipeline{desc: desc}
	for _, st := range desc.Stages {
		d, err := shader.Describe(st.Stage, st.Program)
		if err != nil {
			return nil, fmt.Errorf("softvk: pipeline %q: %w", desc.Label, err)
		}
		switch st.Stage {
		case gputypes.ShaderStageVertex:
			p.vertex = d
		case gputypes.ShaderStageFragment:
			p.fragment = d
		}
		if st.WGSL != "" {
			p.checkWGSL(st, d)
		}
	}
	if p.vertex == nil || p.fragment == nil {
		return nil, fmt.Errorf("%w: pipeline %q needs a vertex and a fragment stage", ErrInvalidDescriptor, desc.Label)
	}
	return p, nil
}

func (p *GraphicsPipeline) checkWGSL(st ShaderStage, d *shader.Descriptor) {
	stage, decls, err := shader.ReflectWGSL(st.WGSL, st.EntryPoint)
	var errs []error
	switch {
	case err != nil:
		errs = []error{err}
	case stage != st.Stage:
		errs = []error{fmt.Errorf("%w: entry point %q is a %s shader", shader.ErrInterfaceMismatch, st.EntryPoint, stage)}
	default:
		errs = d.CheckAgainst(decls)
	}
	for _, e := range errs {
		Logger().Warn("softvk: wgsl interface",
			"pipeline", p.desc.Label,
			"stage", st.Stage.String(),
			"entry", st.EntryPoint,
			slog.Any("err", e))
	}
	p.diags = append(p.diags, errs...)
}

// Label returns the debug label.
func (p *GraphicsPipeline) Label() string { return p.desc.Label }

// Layout returns the pipeline layout, which may be nil.
func (p *GraphicsPipeline) Layout() *PipelineLayout { return p.desc.Layout }

// Diagnostics returns the WGSL interface mismatches found at creation.
func (p *GraphicsPipeline) Diagnostics() []error { return p.diags }

// Err joins the diagnostics into one error, or returns nil.
func (p *GraphicsPipeline) Err() error { return errors.Join(p.diags...) }

// viewport resolves the pipeline viewport against a framebuffer.
func (p *GraphicsPipeline) viewport(fb *Framebuffer) raster.Viewport {
	v := p.desc.Viewport
	if v.Width == 0 || v.Height == 0 {
		if v == (Viewport{}) {
			v.MaxDepth = 1
		}
		v.X, v.Y = 0, 0
		v.Width, v.Height = float32(fb.Width()), float32(fb.Height())
	}
	return raster.Viewport(v)
}
