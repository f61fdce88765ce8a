package softvk

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"honnef.co/go/safeish"
)

// Buffer is a linear block of device memory.
type Buffer struct {
	desc gputypes.BufferDescriptor
	data []byte
}

// NewBuffer allocates a zeroed buffer of desc.Size bytes.
func NewBuffer(desc gputypes.BufferDescriptor) (*Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer %q has zero size", ErrInvalidDescriptor, desc.Label)
	}
	return &Buffer{desc: desc, data: make([]byte, desc.Size)}, nil
}

// Label returns the debug label.
func (b *Buffer) Label() string { return b.desc.Label }

// Size returns the size in bytes.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Usage returns the usage flags the buffer was created with.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.desc.Usage }

// Bytes returns the buffer memory. Writes through the slice are visible to
// every binding of the buffer.
func (b *Buffer) Bytes() []byte { return b.data }

// Write copies data into the buffer at offset.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if err := b.checkRange(offset, uint64(len(data))); err != nil {
		return err
	}
	copy(b.data[offset:], data)
	return nil
}

// Read copies len(dst) bytes starting at offset into dst.
func (b *Buffer) Read(offset uint64, dst []byte) error {
	if err := b.checkRange(offset, uint64(len(dst))); err != nil {
		return err
	}
	copy(dst, b.data[offset:])
	return nil
}

func (b *Buffer) checkRange(offset, size uint64) error {
	if offset > b.desc.Size || size > b.desc.Size-offset {
		return fmt.Errorf("%w: [%d, %d) of buffer %q (%d bytes)", ErrOutOfRange, offset, offset+size, b.desc.Label, b.desc.Size)
	}
	return nil
}

// WriteSlice copies the in-memory representation of s into b at offset.
// T must not contain pointers; float32 vertex data and fixed-size structs
// of numbers are typical.
//
// Example:
//
//	softvk.WriteSlice(vb, 0, []float32{-1, -1, 0, 1, 1, -1, 0, 1})
func WriteSlice[T any](b *Buffer, offset uint64, s []T) error {
	return b.Write(offset, safeish.SliceCast[[]byte](s))
}
