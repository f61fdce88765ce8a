package softvk

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// bufferState is the lifecycle state of a CommandBuffer.
type bufferState uint8

const (
	stateRecording bufferState = iota
	stateExecutable
	stateInvalid
)

// CommandBuffer records commands for later submission to a Queue.
//
// Recording methods never fail; usage errors are reported by End. A
// command buffer is not safe for concurrent use.
type CommandBuffer struct {
	opts     options
	commands []Command
	state    bufferState
	err      error
	ctx      *ExecutionContext
}

// NewCommandBuffer returns an empty command buffer in the recording state.
func NewCommandBuffer(opts ...Option) *CommandBuffer {
	o := defaultOptions()
	o.apply(opts)
	return newCommandBuffer(o)
}

func newCommandBuffer(o options) *CommandBuffer {
	cb := &CommandBuffer{opts: o}
	cb.ctx = newExecutionContext(&cb.opts)
	return cb
}

// Record appends a command. The typed recording methods are shorthands
// for Record.
func (cb *CommandBuffer) Record(c Command) {
	if cb.state != stateRecording {
		if cb.err == nil {
			cb.err = fmt.Errorf("%w: %s recorded after End", ErrNotRecording, c.Type())
		}
		cb.state = stateInvalid
		return
	}
	cb.commands = append(cb.commands, c)
}

// Commands returns the recorded commands.
func (cb *CommandBuffer) Commands() []Command { return cb.commands }

// BindPipeline records a pipeline bind.
func (cb *CommandBuffer) BindPipeline(p *GraphicsPipeline) {
	cb.Record(&BindPipelineCommand{Pipeline: p})
}

// BindVertexBuffers binds buffers to consecutive vertex buffer bindings.
// offsets may be nil.
func (cb *CommandBuffer) BindVertexBuffers(firstBinding uint32, buffers []*Buffer, offsets []uint64) {
	cb.Record(&BindVertexBuffersCommand{FirstBinding: firstBinding, Buffers: buffers, Offsets: offsets})
}

// BindIndexBuffer binds an index buffer.
func (cb *CommandBuffer) BindIndexBuffer(buf *Buffer, offset uint64, format gputypes.IndexFormat) {
	cb.Record(&BindIndexBufferCommand{Buffer: buf, Offset: offset, Format: format})
}

// BindDescriptorSets binds descriptor sets starting at firstSet. layout may
// be nil to skip layout validation.
func (cb *CommandBuffer) BindDescriptorSets(layout *PipelineLayout, firstSet uint32, sets ...*DescriptorSet) {
	cb.Record(&BindDescriptorSetsCommand{Layout: layout, FirstSet: firstSet, Sets: sets})
}

// BeginRenderPass begins the first subpass of fb's render pass.
func (cb *CommandBuffer) BeginRenderPass(fb *Framebuffer, clearValues ...ClearValue) {
	cb.Record(&BeginRenderPassCommand{Framebuffer: fb, ClearValues: clearValues})
}

// NextSubpass advances to the next subpass.
func (cb *CommandBuffer) NextSubpass() { cb.Record(&NextSubpassCommand{}) }

// EndRenderPass ends the active render pass.
func (cb *CommandBuffer) EndRenderPass() { cb.Record(&EndRenderPassCommand{}) }

// Draw records a non-indexed draw.
func (cb *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	cb.Record(&DrawCommand{
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
	})
}

// DrawIndexed records an indexed draw.
func (cb *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	cb.Record(&DrawIndexedCommand{
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		VertexOffset:  vertexOffset,
		FirstInstance: firstInstance,
	})
}

// CopyBuffer records a buffer to buffer copy.
func (cb *CommandBuffer) CopyBuffer(src, dst *Buffer, regions ...BufferCopy) {
	cb.Record(&CopyBufferCommand{Src: src, Dst: dst, Regions: regions})
}

// CopyBufferToImage records a buffer to image copy.
func (cb *CommandBuffer) CopyBufferToImage(src *Buffer, dst *Image, regions ...BufferImageCopy) {
	cb.Record(&CopyBufferToImageCommand{Src: src, Dst: dst, Regions: regions})
}

// PipelineBarrier records a barrier.
func (cb *CommandBuffer) PipelineBarrier() { cb.Record(PipelineBarrierCommand{}) }

// End finishes recording. It parses every command against the recorded
// state, then prepares them: shaders are bound and clears are set up. A
// failure is returned as a *CompileError, kept by Err, and makes the
// command buffer unusable until Reset.
func (cb *CommandBuffer) End() error {
	if cb.state != stateRecording {
		if cb.err != nil {
			return cb.err
		}
		return ErrNotRecording
	}
	if err := cb.compile(); err != nil {
		cb.err = err
		cb.state = stateInvalid
		cb.opts.log().Warn("softvk: command buffer compilation failed", "err", err)
		return err
	}
	cb.state = stateExecutable
	cb.opts.log().Debug("softvk: command buffer compiled", "commands", len(cb.commands))
	return nil
}

func (cb *CommandBuffer) compile() error {
	ctx := cb.ctx
	ctx.reset()
	for i, c := range cb.commands {
		ctx.index = i
		if err := c.Parse(ctx); err != nil {
			return &CompileError{Index: i, Type: c.Type(), Err: err}
		}
	}
	if ctx.inPass {
		return &CompileError{Index: ctx.passBegin, Type: CommandBeginRenderPass, Err: ErrUnclosedRenderPass}
	}

	ctx.reset()
	for i, c := range cb.commands {
		ctx.index = i
		if err := c.Prepare(ctx); err != nil {
			return &CompileError{Index: i, Type: c.Type(), Err: err}
		}
	}
	return nil
}

// Err returns the error that invalidated the command buffer, or nil.
func (cb *CommandBuffer) Err() error { return cb.err }

// Executable reports whether End succeeded and the buffer can be submitted.
func (cb *CommandBuffer) Executable() bool { return cb.state == stateExecutable }

// Reset discards the recorded commands and returns to the recording state.
func (cb *CommandBuffer) Reset() {
	cb.commands = cb.commands[:0]
	cb.state = stateRecording
	cb.err = nil
}

// Stats sums the draw statistics of the most recent execution.
func (cb *CommandBuffer) Stats() DrawStats {
	var s DrawStats
	for _, c := range cb.commands {
		if d, ok := c.(interface{ Stats() DrawStats }); ok {
			s.add(d.Stats())
		}
	}
	return s
}

// Diagnostics returns the shader binding diagnostics of every draw.
func (cb *CommandBuffer) Diagnostics() []error {
	var diags []error
	for _, c := range cb.commands {
		if d, ok := c.(interface{ Diagnostics() []error }); ok {
			diags = append(diags, d.Diagnostics()...)
		}
	}
	return diags
}

// execute runs the Execute phase of every command.
func (cb *CommandBuffer) execute() error {
	if cb.state != stateExecutable {
		if cb.err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCommandBuffer, cb.err)
		}
		return fmt.Errorf("%w: not ended", ErrInvalidCommandBuffer)
	}
	ctx := cb.ctx
	ctx.reset()
	for i, c := range cb.commands {
		ctx.index = i
		if err := c.Execute(ctx); err != nil {
			return fmt.Errorf("softvk: execute command %d (%s): %w", i, c.Type(), err)
		}
	}
	return nil
}
