// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package binder

import (
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/internal/resource"
)

// Invocation is the pipeline state visible to compiled actions during one
// vertex or fragment invocation. The rasterizer owns it and updates it
// between invocations.
type Invocation struct {
	// Vertex stage inputs.
	VertexIndex   int32
	InstanceIndex int32
	// Vertex is the position of the current vertex within its primitive.
	Vertex int

	// Vertex stage outputs.
	Position  f32.Vec4
	PointSize float32

	// Fragment stage inputs.
	X, Y        int
	FragCoord   f32.Vec4
	FrontFacing bool
	PointCoord  f32.Vec2
	// Weights are the barycentric weights of the current fragment, one per
	// vertex of the primitive.
	Weights []float32

	// FragDepth is the depth written by the fragment shader.
	FragDepth float32

	VertexBuffers []resource.VertexBuffer

	err error
}

// Fail records the first runtime error of the draw.
func (inv *Invocation) Fail(err error) {
	if inv.err == nil {
		inv.err = err
	}
}

// Err returns the first error recorded by Fail.
func (inv *Invocation) Err() error { return inv.err }

// ClearErr forgets the recorded error.
func (inv *Invocation) ClearErr() { inv.err = nil }
