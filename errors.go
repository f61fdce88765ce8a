package softvk

import (
	"errors"
	"fmt"
)

// Command buffer compilation errors.
var (
	ErrRenderPassActive   = errors.New("softvk: render pass already active")
	ErrNoRenderPass       = errors.New("softvk: no active render pass")
	ErrNoPipeline         = errors.New("softvk: no pipeline bound")
	ErrNoIndexBuffer      = errors.New("softvk: no index buffer bound")
	ErrNoVertexBuffer     = errors.New("softvk: vertex buffer not bound")
	ErrUnclosedRenderPass = errors.New("softvk: render pass not ended")
	ErrNoSubpass          = errors.New("softvk: no next subpass")
	ErrNotRecording       = errors.New("softvk: command buffer is not recording")
)

// ErrInvalidCommandBuffer is returned by Queue.Submit for command buffers
// that were not ended or failed compilation.
var ErrInvalidCommandBuffer = errors.New("softvk: invalid command buffer")

// Resource errors.
var (
	ErrInvalidDescriptor = errors.New("softvk: invalid descriptor")
	ErrOutOfRange        = errors.New("softvk: range out of bounds")
	ErrFormat            = errors.New("softvk: unsupported format")
	ErrNoBinding         = errors.New("softvk: binding not in layout")
	ErrBindingType       = errors.New("softvk: resource does not match binding type")
	ErrAttachment        = errors.New("softvk: invalid attachment")
)

// CompileError reports the command that failed Parse or Prepare.
type CompileError struct {
	// Index is the position of the command in the command buffer.
	Index int
	Type  CommandType
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("softvk: command %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
