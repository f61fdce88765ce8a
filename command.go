package softvk

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/internal/resource"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// State commands
	CommandBindPipeline       CommandType = iota // Bind a graphics pipeline
	CommandBindVertexBuffers                     // Bind vertex buffers
	CommandBindIndexBuffer                       // Bind an index buffer
	CommandBindDescriptorSets                    // Bind descriptor sets

	// Render pass commands
	CommandBeginRenderPass // Begin a render pass, clearing attachments
	CommandNextSubpass     // Advance to the next subpass
	CommandEndRenderPass   // End the render pass
	CommandDraw            // Non-indexed draw
	CommandDrawIndexed     // Indexed draw

	// Transfer commands
	CommandCopyBuffer        // Copy between buffers
	CommandCopyBufferToImage // Copy buffer data into an image
	CommandPipelineBarrier   // Synchronization barrier

	commandTypeCount
)

var commandTypeNames = [commandTypeCount]string{
	CommandBindPipeline:       "BindPipeline",
	CommandBindVertexBuffers:  "BindVertexBuffers",
	CommandBindIndexBuffer:    "BindIndexBuffer",
	CommandBindDescriptorSets: "BindDescriptorSets",
	CommandBeginRenderPass:    "BeginRenderPass",
	CommandNextSubpass:        "NextSubpass",
	CommandEndRenderPass:      "EndRenderPass",
	CommandDraw:               "Draw",
	CommandDrawIndexed:        "DrawIndexed",
	CommandCopyBuffer:         "CopyBuffer",
	CommandCopyBufferToImage:  "CopyBufferToImage",
	CommandPipelineBarrier:    "PipelineBarrier",
}

// String returns the name of the command type.
func (t CommandType) String() string {
	if t < commandTypeCount {
		return commandTypeNames[t]
	}
	return "Unknown"
}

// Command is a recorded command.
//
// Parse validates the command against the state recorded so far and must
// not touch resources. Prepare performs one-time setup and runs once per
// End. Execute performs the side effects and runs on every submission.
// All three phases see the bind state of the preceding commands.
type Command interface {
	Type() CommandType
	Parse(ctx *ExecutionContext) error
	Prepare(ctx *ExecutionContext) error
	Execute(ctx *ExecutionContext) error
}

// BindPipelineCommand binds a graphics pipeline.
type BindPipelineCommand struct {
	Pipeline *GraphicsPipeline
}

func (BindPipelineCommand) Type() CommandType { return CommandBindPipeline }

func (c *BindPipelineCommand) Parse(ctx *ExecutionContext) error {
	if c.Pipeline == nil {
		return ErrNoPipeline
	}
	return c.Execute(ctx)
}

func (c *BindPipelineCommand) Prepare(ctx *ExecutionContext) error { return c.Execute(ctx) }

func (c *BindPipelineCommand) Execute(ctx *ExecutionContext) error {
	ctx.pipeline = c.Pipeline
	return nil
}

// BindVertexBuffersCommand binds Buffers to consecutive vertex buffer
// bindings starting at FirstBinding. Binding i reads the vertex buffer
// layout i of the pipeline.
type BindVertexBuffersCommand struct {
	FirstBinding uint32
	Buffers      []*Buffer
	// Offsets is either empty or holds one byte offset per buffer.
	Offsets []uint64
}

func (BindVertexBuffersCommand) Type() CommandType { return CommandBindVertexBuffers }

func (c *BindVertexBuffersCommand) Parse(ctx *ExecutionContext) error {
	if len(c.Offsets) != 0 && len(c.Offsets) != len(c.Buffers) {
		return fmt.Errorf("%w: %d offsets for %d buffers", ErrInvalidDescriptor, len(c.Offsets), len(c.Buffers))
	}
	for i, b := range c.Buffers {
		if b == nil {
			return fmt.Errorf("%w %d", ErrNoVertexBuffer, int(c.FirstBinding)+i)
		}
		if err := b.checkRange(c.offset(i), 0); err != nil {
			return err
		}
	}
	return c.Execute(ctx)
}

func (c *BindVertexBuffersCommand) Prepare(ctx *ExecutionContext) error { return c.Execute(ctx) }

func (c *BindVertexBuffersCommand) Execute(ctx *ExecutionContext) error {
	for i, b := range c.Buffers {
		ctx.bindVertexBuffer(int(c.FirstBinding)+i, resource.VertexBuffer{Data: b.data, Offset: int(c.offset(i))})
	}
	return nil
}

func (c *BindVertexBuffersCommand) offset(i int) uint64 {
	if len(c.Offsets) == 0 {
		return 0
	}
	return c.Offsets[i]
}

// BindIndexBufferCommand binds an index buffer.
type BindIndexBufferCommand struct {
	Buffer *Buffer
	Offset uint64
	Format gputypes.IndexFormat
}

func (BindIndexBufferCommand) Type() CommandType { return CommandBindIndexBuffer }

func (c *BindIndexBufferCommand) Parse(ctx *ExecutionContext) error {
	if c.Buffer == nil {
		return ErrNoIndexBuffer
	}
	if c.Format != gputypes.IndexFormatUint16 && c.Format != gputypes.IndexFormatUint32 {
		return fmt.Errorf("%w: index format %s", ErrFormat, c.Format)
	}
	if err := c.Buffer.checkRange(c.Offset, 0); err != nil {
		return err
	}
	return c.Execute(ctx)
}

func (c *BindIndexBufferCommand) Prepare(ctx *ExecutionContext) error { return c.Execute(ctx) }

func (c *BindIndexBufferCommand) Execute(ctx *ExecutionContext) error {
	ctx.indexBuffer = resource.IndexBuffer{Data: c.Buffer.data, Offset: int(c.Offset), Format: c.Format}
	ctx.indexBound = true
	return nil
}

// BindDescriptorSetsCommand binds Sets to consecutive set numbers starting
// at FirstSet. When Layout is set, every set must use the layout's
// descriptor set layout at that number.
type BindDescriptorSetsCommand struct {
	Layout   *PipelineLayout
	FirstSet uint32
	Sets     []*DescriptorSet
}

func (BindDescriptorSetsCommand) Type() CommandType { return CommandBindDescriptorSets }

func (c *BindDescriptorSetsCommand) Parse(ctx *ExecutionContext) error {
	for i, s := range c.Sets {
		n := int(c.FirstSet) + i
		if s == nil {
			return fmt.Errorf("%w: descriptor set %d is nil", ErrInvalidDescriptor, n)
		}
		if c.Layout == nil {
			continue
		}
		if n >= len(c.Layout.sets) || c.Layout.sets[n] != s.layout {
			return fmt.Errorf("%w: descriptor set %d does not match the pipeline layout", ErrBindingType, n)
		}
	}
	return c.Execute(ctx)
}

func (c *BindDescriptorSetsCommand) Prepare(ctx *ExecutionContext) error { return c.Execute(ctx) }

func (c *BindDescriptorSetsCommand) Execute(ctx *ExecutionContext) error {
	for i, s := range c.Sets {
		ctx.bindDescriptorSet(int(c.FirstSet)+i, s)
	}
	return nil
}

// BeginRenderPassCommand starts the first subpass of the framebuffer's
// render pass. Attachments whose load op is clear are cleared to the
// ClearValues entry with the same index.
type BeginRenderPassCommand struct {
	Framebuffer *Framebuffer
	ClearValues []ClearValue

	clears []func()
}

func (BeginRenderPassCommand) Type() CommandType { return CommandBeginRenderPass }

func (c *BeginRenderPassCommand) Parse(ctx *ExecutionContext) error {
	if ctx.inPass {
		return ErrRenderPassActive
	}
	if c.Framebuffer == nil {
		return fmt.Errorf("%w: nil framebuffer", ErrAttachment)
	}
	for i, a := range c.Framebuffer.pass.attachments {
		if (a.LoadOp == gputypes.LoadOpClear || a.StencilLoadOp == gputypes.LoadOpClear) && i >= len(c.ClearValues) {
			return fmt.Errorf("%w: no clear value for attachment %d", ErrAttachment, i)
		}
	}
	ctx.beginPass(c.Framebuffer)
	return nil
}

// Prepare builds the clear actions run by every Execute.
func (c *BeginRenderPassCommand) Prepare(ctx *ExecutionContext) error {
	c.clears = c.clears[:0]
	fb := c.Framebuffer
	for i, a := range fb.pass.attachments {
		view := fb.views[i]
		values := c.ClearValues
		switch {
		case a.Format.IsDepthStencil():
			if a.LoadOp == gputypes.LoadOpClear && a.Format.HasDepth() {
				d := values[i].Depth
				c.clears = append(c.clears, func() { view.clearDepth(d) })
			}
			if a.StencilLoadOp == gputypes.LoadOpClear && a.Format.HasStencil() {
				s := values[i].Stencil
				c.clears = append(c.clears, func() { view.clearStencil(s) })
			}
		case a.LoadOp == gputypes.LoadOpClear:
			cv := values[i].Color
			col := f32.Vec4{float32(cv.R), float32(cv.G), float32(cv.B), float32(cv.A)}
			c.clears = append(c.clears, func() { view.clearColor(col) })
		}
	}
	ctx.beginPass(fb)
	return nil
}

func (c *BeginRenderPassCommand) Execute(ctx *ExecutionContext) error {
	for _, fn := range c.clears {
		fn()
	}
	ctx.beginPass(c.Framebuffer)
	return nil
}

// NextSubpassCommand advances to the next subpass of the render pass.
type NextSubpassCommand struct{}

func (NextSubpassCommand) Type() CommandType { return CommandNextSubpass }

func (c *NextSubpassCommand) Parse(ctx *ExecutionContext) error {
	if !ctx.inPass {
		return ErrNoRenderPass
	}
	if ctx.subpass+1 >= len(ctx.framebuffer.pass.subpasses) {
		return fmt.Errorf("%w: subpass %d is the last", ErrNoSubpass, ctx.subpass)
	}
	return c.Execute(ctx)
}

func (c *NextSubpassCommand) Prepare(ctx *ExecutionContext) error { return c.Execute(ctx) }

func (c *NextSubpassCommand) Execute(ctx *ExecutionContext) error {
	ctx.subpass++
	return nil
}

// EndRenderPassCommand ends the active render pass.
type EndRenderPassCommand struct{}

func (EndRenderPassCommand) Type() CommandType { return CommandEndRenderPass }

func (c *EndRenderPassCommand) Parse(ctx *ExecutionContext) error {
	if !ctx.inPass {
		return ErrNoRenderPass
	}
	return c.Execute(ctx)
}

func (c *EndRenderPassCommand) Prepare(ctx *ExecutionContext) error { return c.Execute(ctx) }

func (c *EndRenderPassCommand) Execute(ctx *ExecutionContext) error {
	ctx.endPass()
	return nil
}

// PipelineBarrierCommand orders memory accesses between commands.
// Execution is sequential, so barriers have no effect.
type PipelineBarrierCommand struct{}

func (PipelineBarrierCommand) Type() CommandType               { return CommandPipelineBarrier }
func (PipelineBarrierCommand) Parse(*ExecutionContext) error   { return nil }
func (PipelineBarrierCommand) Prepare(*ExecutionContext) error { return nil }
func (PipelineBarrierCommand) Execute(*ExecutionContext) error { return nil }
