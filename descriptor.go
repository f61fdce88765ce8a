package softvk

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/internal/resource"
)

// Sampler holds the filtering and addressing state used when a shader
// samples a texture.
type Sampler struct {
	desc gputypes.SamplerDescriptor
}

// NewSampler returns a sampler for desc. Undefined address modes clamp to
// edge; filters other than linear sample the nearest texel.
func NewSampler(desc gputypes.SamplerDescriptor) *Sampler {
	return &Sampler{desc: desc}
}

// Descriptor returns the sampler state.
func (s *Sampler) Descriptor() gputypes.SamplerDescriptor { return s.desc }

// DescriptorSetLayout lists the bindings of one descriptor set.
type DescriptorSetLayout struct {
	entries map[uint32]gputypes.BindGroupLayoutEntry
}

// NewDescriptorSetLayout validates entries and returns a layout. Each entry
// must describe exactly one of a buffer, a texture or a sampler binding.
func NewDescriptorSetLayout(entries ...gputypes.BindGroupLayoutEntry) (*DescriptorSetLayout, error) {
	l := &DescriptorSetLayout{entries: make(map[uint32]gputypes.BindGroupLayoutEntry, len(entries))}
	for _, e := range entries {
		if _, dup := l.entries[e.Binding]; dup {
			return nil, fmt.Errorf("%w: binding %d declared twice", ErrInvalidDescriptor, e.Binding)
		}
		if entryType(e) == resource.DescriptorUndefined {
			return nil, fmt.Errorf("%w: binding %d has no resource type", ErrInvalidDescriptor, e.Binding)
		}
		l.entries[e.Binding] = e
	}
	return l, nil
}

// Entry returns the layout entry for binding.
func (l *DescriptorSetLayout) Entry(binding uint32) (gputypes.BindGroupLayoutEntry, bool) {
	e, ok := l.entries[binding]
	return e, ok
}

// entryType maps a layout entry to the descriptor kind it accepts. Textures
// and samplers both map to combined image samplers.
func entryType(e gputypes.BindGroupLayoutEntry) resource.DescriptorType {
	n := 0
	t := resource.DescriptorUndefined
	if e.Buffer != nil {
		n++
		t = resource.DescriptorUniformBuffer
		if e.Buffer.Type != gputypes.BufferBindingTypeUniform {
			t = resource.DescriptorStorageBuffer
		}
	}
	if e.Texture != nil || e.Sampler != nil {
		n++
		t = resource.DescriptorCombinedImageSampler
	}
	if e.StorageTexture != nil {
		n++
	}
	if n != 1 {
		return resource.DescriptorUndefined
	}
	return t
}

// PipelineLayout is the ordered list of descriptor set layouts a pipeline
// reads from.
type PipelineLayout struct {
	sets []*DescriptorSetLayout
}

// NewPipelineLayout returns a layout with the given sets.
func NewPipelineLayout(sets ...*DescriptorSetLayout) *PipelineLayout {
	return &PipelineLayout{sets: sets}
}

// SetLayouts returns the descriptor set layouts.
func (l *PipelineLayout) SetLayouts() []*DescriptorSetLayout { return l.sets }

// DescriptorSet holds the resources written to the bindings of a layout.
type DescriptorSet struct {
	layout   *DescriptorSetLayout
	bindings map[uint32]resource.Descriptor
}

// NewDescriptorSet returns an empty set for layout.
func NewDescriptorSet(layout *DescriptorSetLayout) *DescriptorSet {
	return &DescriptorSet{layout: layout, bindings: make(map[uint32]resource.Descriptor)}
}

// Layout returns the set layout.
func (s *DescriptorSet) Layout() *DescriptorSetLayout { return s.layout }

// WriteBuffer binds size bytes of buf starting at offset. A size of 0
// binds the rest of the buffer. The binding aliases the buffer memory, so
// later writes to buf are seen by shaders.
func (s *DescriptorSet) WriteBuffer(binding uint32, buf *Buffer, offset, size uint64) error {
	t, err := s.expect(binding, resource.DescriptorUniformBuffer, resource.DescriptorStorageBuffer)
	if err != nil {
		return err
	}
	if size == 0 && offset <= buf.Size() {
		size = buf.Size() - offset
	}
	if err := buf.checkRange(offset, size); err != nil {
		return err
	}
	s.bindings[binding] = resource.Descriptor{
		Type: t,
		Data: buf.data[offset : offset+size : offset+size],
	}
	return nil
}

// WriteImage binds a combined image sampler.
func (s *DescriptorSet) WriteImage(binding uint32, view *ImageView, sampler *Sampler) error {
	t, err := s.expect(binding, resource.DescriptorCombinedImageSampler)
	if err != nil {
		return err
	}
	if view == nil || sampler == nil {
		return fmt.Errorf("%w: binding %d needs a view and a sampler", ErrBindingType, binding)
	}
	s.bindings[binding] = resource.Descriptor{Type: t, View: view, Sampler: sampler.desc}
	return nil
}

func (s *DescriptorSet) expect(binding uint32, want ...resource.DescriptorType) (resource.DescriptorType, error) {
	e, ok := s.layout.Entry(binding)
	if !ok {
		return resource.DescriptorUndefined, fmt.Errorf("%w: %d", ErrNoBinding, binding)
	}
	t := entryType(e)
	for _, w := range want {
		if t == w {
			return t, nil
		}
	}
	return t, fmt.Errorf("%w: binding %d is a %s", ErrBindingType, binding, t)
}

// snapshot returns the written bindings of sets indexed by set number.
func snapshot(sets []*DescriptorSet) resource.SetList {
	list := make(resource.SetList, len(sets))
	for i, s := range sets {
		if s == nil {
			continue
		}
		m := make(map[uint32]resource.Descriptor, len(s.bindings))
		for b, d := range s.bindings {
			m[b] = d
		}
		list[i] = m
	}
	return list
}
