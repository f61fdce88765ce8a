// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package resource defines the data the pipeline core reads from bound API
// objects: attachment views, vertex and index buffers, and descriptors.
package resource

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/internal/codec"
)

// ImageView is a two-dimensional attachment or sampled image.
//
// Coordinates outside the view are ignored by writes and read as zero.
type ImageView interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat

	ReadColor(x, y int) f32.Vec4
	WriteColor(x, y int, c f32.Vec4)

	ReadDepth(x, y int) float32
	WriteDepth(x, y int, d float32)
	ReadStencil(x, y int) uint8
	WriteStencil(x, y int, s uint8)
}

// VertexBuffer is a vertex buffer binding.
type VertexBuffer struct {
	Data   []byte
	Offset int
}

// IndexBuffer is an index buffer binding.
type IndexBuffer struct {
	Data   []byte
	Offset int
	Format gputypes.IndexFormat
}

// ErrIndexFormat is returned for index formats other than Uint16 and Uint32.
var ErrIndexFormat = errors.New("resource: unsupported index format")

// Index returns the i-th index of the buffer.
func (b IndexBuffer) Index(i int) (uint32, error) {
	switch b.Format {
	case gputypes.IndexFormatUint16:
		v, err := codec.Read[uint16](b.Data, b.Offset+2*i)
		return uint32(v), err
	case gputypes.IndexFormatUint32:
		return codec.Read[uint32](b.Data, b.Offset+4*i)
	}
	return 0, fmt.Errorf("%w: %d", ErrIndexFormat, b.Format)
}

// DescriptorType is the kind of resource bound to a descriptor.
type DescriptorType uint8

const (
	DescriptorUndefined DescriptorType = iota
	DescriptorUniformBuffer
	DescriptorCombinedImageSampler
	DescriptorStorageBuffer
)

func (t DescriptorType) String() string {
	switch t {
	case DescriptorUniformBuffer:
		return "uniform buffer"
	case DescriptorCombinedImageSampler:
		return "combined image sampler"
	case DescriptorStorageBuffer:
		return "storage buffer"
	}
	return "undefined"
}

// Descriptor is one written descriptor set binding.
type Descriptor struct {
	Type DescriptorType
	// Data is the bound buffer range for buffer descriptors. It aliases the
	// buffer memory so reads observe later writes.
	Data []byte
	// View and Sampler are set for combined image samplers.
	View    ImageView
	Sampler gputypes.SamplerDescriptor
}

// DescriptorSets resolves descriptors by set and binding.
type DescriptorSets interface {
	Descriptor(set, binding uint32) (Descriptor, bool)
}

// SetList is a DescriptorSets backed by per-set binding maps.
type SetList []map[uint32]Descriptor

// Descriptor implements DescriptorSets.
func (l SetList) Descriptor(set, binding uint32) (Descriptor, bool) {
	if int(set) >= len(l) || l[set] == nil {
		return Descriptor{}, false
	}
	d, ok := l[set][binding]
	return d, ok
}
