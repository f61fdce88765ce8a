package softvk

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/internal/codec"
	"github.com/gogpu/softvk/internal/raster"
)

// DrawStats counts the work done by a draw command during its most recent
// execution.
type DrawStats struct {
	Primitives int
	// Culled counts triangles discarded for their winding or zero area.
	Culled int
	// Discarded counts primitives with a vertex at or behind the eye.
	Discarded     int
	Fragments     int
	DepthRejected int
}

func (s *DrawStats) add(o DrawStats) {
	s.Primitives += o.Primitives
	s.Culled += o.Culled
	s.Discarded += o.Discarded
	s.Fragments += o.Fragments
	s.DepthRejected += o.DepthRejected
}

// drawState is shared by the draw commands: each owns a rasterizer
// prepared for the pipeline, subpass and descriptor sets bound when the
// command buffer was ended.
type drawState struct {
	rast *raster.Rasterizer
}

func (d *drawState) prepare(ctx *ExecutionContext) error {
	cfg := ctx.rasterConfig()
	r := raster.New(cfg)
	if err := r.Prepare(); err != nil {
		return err
	}
	for _, diag := range r.Program().Diagnostics {
		ctx.log().Debug("softvk: draw binding", "pipeline", ctx.pipeline.Label(), "err", diag)
	}
	d.rast = r
	return nil
}

// Stats returns the counters of the most recent execution.
func (d *drawState) Stats() DrawStats {
	if d.rast == nil {
		return DrawStats{}
	}
	return DrawStats(d.rast.Stats())
}

// Diagnostics returns the shader fields that could not be bound when the
// draw was prepared.
func (d *drawState) Diagnostics() []error {
	if d.rast == nil {
		return nil
	}
	return d.rast.Program().Diagnostics
}

// DrawCommand draws VertexCount vertices for each of InstanceCount
// instances.
type DrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32

	drawState
}

func (DrawCommand) Type() CommandType { return CommandDraw }

func (c *DrawCommand) Parse(ctx *ExecutionContext) error { return ctx.checkDraw(false) }

// Prepare compiles the pipeline shaders against the bound state.
func (c *DrawCommand) Prepare(ctx *ExecutionContext) error { return c.prepare(ctx) }

func (c *DrawCommand) Execute(ctx *ExecutionContext) error {
	c.rast.ResetStats()
	return c.rast.Draw(ctx.vertexBuffers,
		int(c.VertexCount), int(c.InstanceCount), int(c.FirstVertex), int(c.FirstInstance))
}

// DrawIndexedCommand draws IndexCount vertices read from the bound index
// buffer starting at FirstIndex. VertexOffset is added to every index.
type DrawIndexedCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32

	drawState
}

func (DrawIndexedCommand) Type() CommandType { return CommandDrawIndexed }

func (c *DrawIndexedCommand) Parse(ctx *ExecutionContext) error { return ctx.checkDraw(true) }

// Prepare compiles the pipeline shaders against the bound state.
func (c *DrawIndexedCommand) Prepare(ctx *ExecutionContext) error { return c.prepare(ctx) }

func (c *DrawIndexedCommand) Execute(ctx *ExecutionContext) error {
	c.rast.ResetStats()
	return c.rast.DrawIndexed(ctx.vertexBuffers, ctx.indexBuffer,
		int(c.IndexCount), int(c.InstanceCount), int(c.FirstIndex), int(c.VertexOffset), int(c.FirstInstance))
}

// BufferCopy is one region of a buffer to buffer copy.
type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// CopyBufferCommand copies regions of Src into Dst. Overlapping regions
// of the same buffer copy as if through a temporary buffer.
type CopyBufferCommand struct {
	Src, Dst *Buffer
	Regions  []BufferCopy
}

func (CopyBufferCommand) Type() CommandType { return CommandCopyBuffer }

func (c *CopyBufferCommand) Parse(ctx *ExecutionContext) error {
	if ctx.inPass {
		return ErrRenderPassActive
	}
	if c.Src == nil || c.Dst == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidDescriptor)
	}
	for _, r := range c.Regions {
		if err := c.Src.checkRange(r.SrcOffset, r.Size); err != nil {
			return err
		}
		if err := c.Dst.checkRange(r.DstOffset, r.Size); err != nil {
			return err
		}
	}
	return nil
}

func (c *CopyBufferCommand) Prepare(*ExecutionContext) error { return nil }

func (c *CopyBufferCommand) Execute(*ExecutionContext) error {
	for _, r := range c.Regions {
		copy(c.Dst.data[r.DstOffset:r.DstOffset+r.Size], c.Src.data[r.SrcOffset:r.SrcOffset+r.Size])
	}
	return nil
}

// BufferImageCopy is one region of a buffer to image copy. Rows in the
// buffer are BytesPerRow apart; zero means tightly packed.
type BufferImageCopy struct {
	BufferOffset uint64
	BytesPerRow  uint32
	Origin       gputypes.Origin3D
	Extent       gputypes.Extent3D
}

// CopyBufferToImageCommand copies buffer data into the color or depth
// plane of Dst. Pixels use the image format's memory layout.
type CopyBufferToImageCommand struct {
	Src     *Buffer
	Dst     *Image
	Regions []BufferImageCopy
}

func (CopyBufferToImageCommand) Type() CommandType { return CommandCopyBufferToImage }

func (c *CopyBufferToImageCommand) Parse(ctx *ExecutionContext) error {
	if ctx.inPass {
		return ErrRenderPassActive
	}
	if c.Src == nil || c.Dst == nil {
		return fmt.Errorf("%w: nil copy source or destination", ErrInvalidDescriptor)
	}
	if c.Dst.bpp == 0 {
		return fmt.Errorf("%w: cannot copy into %s", ErrFormat, codec.FormatName(c.Dst.Format()))
	}
	for _, r := range c.Regions {
		if err := c.check(r); err != nil {
			return err
		}
	}
	return nil
}

func (c *CopyBufferToImageCommand) check(r BufferImageCopy) error {
	img := c.Dst
	if r.Origin.Z != 0 || r.Extent.DepthOrArrayLayers > 1 ||
		uint64(r.Origin.X)+uint64(r.Extent.Width) > uint64(img.width) ||
		uint64(r.Origin.Y)+uint64(r.Extent.Height) > uint64(img.height) {
		return fmt.Errorf("%w: region %+v of %dx%d image %q", ErrOutOfRange, r, img.width, img.height, img.Label())
	}
	if r.Extent.Width == 0 || r.Extent.Height == 0 {
		return nil
	}
	row := uint64(r.Extent.Width) * uint64(img.bpp)
	pitch := c.pitch(r)
	if pitch < row {
		return fmt.Errorf("%w: %d bytes per row, %d needed", ErrOutOfRange, pitch, row)
	}
	return c.Src.checkRange(r.BufferOffset, pitch*uint64(r.Extent.Height-1)+row)
}

func (c *CopyBufferToImageCommand) pitch(r BufferImageCopy) uint64 {
	if r.BytesPerRow == 0 {
		return uint64(r.Extent.Width) * uint64(c.Dst.bpp)
	}
	return uint64(r.BytesPerRow)
}

func (c *CopyBufferToImageCommand) Prepare(*ExecutionContext) error { return nil }

func (c *CopyBufferToImageCommand) Execute(*ExecutionContext) error {
	img := c.Dst
	for _, r := range c.Regions {
		row := int(r.Extent.Width) * img.bpp
		pitch := int(c.pitch(r))
		src := c.Src.data[r.BufferOffset:]
		for y := range int(r.Extent.Height) {
			dst := ((int(r.Origin.Y)+y)*img.width + int(r.Origin.X)) * img.bpp
			copy(img.data[dst:dst+row], src[y*pitch:y*pitch+row])
		}
	}
	return nil
}
