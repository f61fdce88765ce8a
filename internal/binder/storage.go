// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package binder

import (
	"errors"
	"fmt"

	"github.com/gogpu/softvk/shader"
)

// ErrStorageNotReset is returned by Declare before the first Reset.
var ErrStorageNotReset = errors.New("binder: inter-stage storage not reset")

// Slot holds one vertex output for every vertex of the current primitive.
//
// Float types are stored component-wise and interpolated. Integer and
// boolean types are stored as raw bits and read flat from vertex 0.
type Slot struct {
	name   string
	typ    shader.Type
	n      int
	floats []float32
	bits   []uint32
}

// Name returns the output name the slot is keyed by.
func (s *Slot) Name() string { return s.name }

// Type returns the value type of the slot.
func (s *Slot) Type() shader.Type { return s.typ }

// StoreFloats stores the components of a float value for vertex v.
func (s *Slot) StoreFloats(v int, src []float32) {
	copy(s.floats[v*s.n:(v+1)*s.n], src)
}

// Interpolate writes the weighted sum of all vertices' values into dst.
// len(w) is the number of vertices per primitive.
func (s *Slot) Interpolate(w []float32, dst []float32) {
	for c := 0; c < s.n; c++ {
		var sum float32
		for v, wv := range w {
			sum += wv * s.floats[v*s.n+c]
		}
		dst[c] = sum
	}
}

// StoreBits stores a flat value for vertex v.
func (s *Slot) StoreBits(v int, b uint32) { s.bits[v] = b }

// Flat returns the flat value of the provoking vertex.
func (s *Slot) Flat() uint32 { return s.bits[0] }

// Storage carries vertex outputs to fragment inputs. It maps output names
// to one value per vertex of the primitive being rasterized.
type Storage struct {
	vpp   int
	slots map[string]*Slot
}

// NewStorage returns an empty storage. Call Reset before declaring slots.
func NewStorage() *Storage {
	return &Storage{slots: make(map[string]*Slot)}
}

// Reset removes every slot and sets the number of vertices per primitive.
func (s *Storage) Reset(verticesPerPrimitive int) {
	s.vpp = verticesPerPrimitive
	clear(s.slots)
}

// VerticesPerPrimitive returns the value passed to the last Reset.
func (s *Storage) VerticesPerPrimitive() int { return s.vpp }

// Len returns the number of declared slots.
func (s *Storage) Len() int { return len(s.slots) }

// Declare allocates the slot for an output. Declaring the same name twice
// with the same type returns the existing slot.
func (s *Storage) Declare(name string, typ shader.Type) (*Slot, error) {
	if s.vpp <= 0 {
		return nil, ErrStorageNotReset
	}
	if slot, ok := s.slots[name]; ok {
		if slot.typ != typ {
			return nil, fmt.Errorf("%w: %q declared as %s and %s", ErrTypeMismatch, name, slot.typ, typ)
		}
		return slot, nil
	}
	n, flat := components(typ)
	if n == 0 {
		return nil, fmt.Errorf("%w: %s cannot be passed between stages", ErrTypeMismatch, typ)
	}
	slot := &Slot{name: name, typ: typ, n: n}
	if flat {
		slot.bits = make([]uint32, s.vpp)
	} else {
		slot.floats = make([]float32, s.vpp*n)
	}
	s.slots[name] = slot
	return slot, nil
}

// Lookup returns the slot declared for name.
func (s *Storage) Lookup(name string, typ shader.Type) (*Slot, error) {
	slot, ok := s.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProducer, name)
	}
	if slot.typ != typ {
		return nil, fmt.Errorf("%w: %q is %s, want %s", ErrTypeMismatch, name, slot.typ, typ)
	}
	return slot, nil
}

func components(t shader.Type) (n int, flat bool) {
	switch t {
	case shader.TypeFloat:
		return 1, false
	case shader.TypeVec2:
		return 2, false
	case shader.TypeVec3:
		return 3, false
	case shader.TypeVec4:
		return 4, false
	case shader.TypeMat4:
		return 16, false
	case shader.TypeInt, shader.TypeUint, shader.TypeBool:
		return 1, true
	}
	return 0, false
}
