package softvk

import (
	"fmt"
	"sync/atomic"
)

// Queue executes command buffers. Submissions run synchronously on the
// calling goroutine, one command buffer at a time, in submission order.
type Queue struct {
	opts options
}

// NewQueue returns a queue. Options also become the defaults of command
// buffers created with Queue.NewCommandBuffer.
func NewQueue(opts ...Option) *Queue {
	o := defaultOptions()
	o.apply(opts)
	return &Queue{opts: o}
}

// NewCommandBuffer returns a command buffer using the queue's options,
// overridden by opts.
func (q *Queue) NewCommandBuffer(opts ...Option) *CommandBuffer {
	o := q.opts
	o.apply(opts)
	return newCommandBuffer(o)
}

// Submit executes buffers in order and then signals fence, which may be
// nil. Execution stops at the first failing buffer and the fence is left
// unsignaled. A nil buffer, a buffer that was not ended, or one whose End
// failed, fails with ErrInvalidCommandBuffer.
//
// A buffer can be submitted any number of times; each submission replays
// only the Execute phase of its commands.
func (q *Queue) Submit(fence *Fence, buffers ...*CommandBuffer) error {
	for i, cb := range buffers {
		var err error
		if cb == nil {
			err = fmt.Errorf("%w: buffer %d is nil", ErrInvalidCommandBuffer, i)
		} else {
			err = cb.execute()
		}
		if err != nil {
			q.opts.log().Warn("softvk: submit failed", "buffer", i, "err", err)
			return err
		}
	}
	if fence != nil {
		fence.signaled.Store(true)
	}
	q.opts.log().Debug("softvk: submitted", "buffers", len(buffers))
	return nil
}

// Fence is signaled by Submit once all its command buffers have executed.
type Fence struct {
	signaled atomic.Bool
}

// NewFence returns a fence in the given state.
func NewFence(signaled bool) *Fence {
	f := &Fence{}
	f.signaled.Store(signaled)
	return f
}

// Signaled reports whether the fence is signaled.
func (f *Fence) Signaled() bool { return f.signaled.Load() }

// Reset unsignals the fence.
func (f *Fence) Reset() { f.signaled.Store(false) }
