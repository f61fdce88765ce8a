// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package raster runs draw calls: it executes the compiled vertex stage per
// vertex, rasterizes points and triangles with perspective-correct
// barycentric weights, and runs the fragment stage per covered pixel.
package raster

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/internal/binder"
	"github.com/gogpu/softvk/internal/depth"
	"github.com/gogpu/softvk/internal/resource"
	"github.com/gogpu/softvk/shader"
)

// ErrNotPrepared is returned by Draw and DrawIndexed before Prepare.
var ErrNotPrepared = errors.New("raster: rasterizer not prepared")

// Viewport maps normalized device coordinates to pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// UniformInit selects when uniforms are reloaded from bound memory.
type UniformInit uint8

const (
	// UniformInitEveryDraw reloads uniforms before every draw.
	UniformInitEveryDraw UniformInit = iota
	// UniformInitIndexedOnly reloads uniforms before indexed draws only;
	// non-indexed draws see the values of the previous indexed draw, or
	// zero.
	UniformInitIndexedOnly
)

// Config is the fixed-function state of a draw.
type Config struct {
	Topology gputypes.PrimitiveTopology
	Viewport Viewport

	// DepthStencil and DepthView may be nil to disable the depth test.
	DepthStencil *gputypes.DepthStencilState
	DepthView    resource.ImageView

	Vertex           *shader.Descriptor
	Fragment         *shader.Descriptor
	VertexLayouts    []gputypes.VertexBufferLayout
	Descriptors      resource.DescriptorSets
	ColorAttachments []resource.ImageView

	UniformInit UniformInit
}

// State is the draw state of a Rasterizer.
type State uint8

const (
	StateIdle State = iota
	StatePrepared
	StateDrawingVertices
	StateDrawingPixels
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrepared:
		return "prepared"
	case StateDrawingVertices:
		return "drawing vertices"
	case StateDrawingPixels:
		return "drawing pixels"
	}
	return "unknown"
}

// Stats counts the work done since the last ResetStats.
type Stats struct {
	Primitives int
	// Culled counts triangles discarded for their winding or zero area.
	Culled int
	// Discarded counts primitives with a vertex at or behind the eye (w <= 0).
	Discarded     int
	Fragments     int
	DepthRejected int
}

// Rasterizer executes draws for one pipeline and subpass.
// It is not safe for concurrent use.
type Rasterizer struct {
	cfg   Config
	state State

	storage *binder.Storage
	prog    *binder.Program
	depth   *depth.Unit
	vpp     int

	inv     binder.Invocation
	weights [3]float32
	clip    [3]f32.Vec4
	stats   Stats
}

// New returns an idle rasterizer for cfg.
func New(cfg Config) *Rasterizer {
	return &Rasterizer{cfg: cfg, storage: binder.NewStorage()}
}

// State returns the current state.
func (r *Rasterizer) State() State { return r.state }

// Program returns the compiled program, or nil before Prepare.
func (r *Rasterizer) Program() *binder.Program { return r.prog }

// Stats returns the counters.
func (r *Rasterizer) Stats() Stats { return r.stats }

// ResetStats zeroes the counters.
func (r *Rasterizer) ResetStats() { r.stats = Stats{} }

// Prepare resolves the topology, resets inter-stage storage, creates the
// depth unit and compiles both shader stages. A prepared rasterizer can run
// any number of draws.
func (r *Rasterizer) Prepare() error {
	switch r.cfg.Topology {
	case gputypes.PrimitiveTopologyPointList:
		r.vpp = 2
	case gputypes.PrimitiveTopologyTriangleList:
		r.vpp = 3
	default:
		return fmt.Errorf("raster: topology %s: %w", r.cfg.Topology, errors.ErrUnsupported)
	}
	r.storage.Reset(r.vpp)

	unit, err := depth.New(r.cfg.DepthStencil, r.cfg.DepthView)
	if err != nil {
		return err
	}
	r.depth = unit

	prog, err := binder.Compile(binder.Input{
		Vertex:           r.cfg.Vertex,
		Fragment:         r.cfg.Fragment,
		VertexLayouts:    r.cfg.VertexLayouts,
		Descriptors:      r.cfg.Descriptors,
		ColorAttachments: r.cfg.ColorAttachments,
		Storage:          r.storage,
	})
	if err != nil {
		return err
	}
	r.prog = prog
	r.inv.Weights = r.weights[:r.vpp]
	r.state = StatePrepared

	slogger().Debug("raster: prepared",
		"topology", r.cfg.Topology.String(),
		"depth", r.depth.IsEnabled(),
		"varyings", r.storage.Len(),
		"diagnostics", len(prog.Diagnostics))
	return nil
}

// Draw runs a non-indexed draw. Vertex indices are firstVertex,
// firstVertex+1, and so on.
func (r *Rasterizer) Draw(buffers []resource.VertexBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) error {
	index := func(i int) (int32, error) { return int32(firstVertex + i), nil }
	return r.draw(buffers, vertexCount, instanceCount, firstInstance, index, false)
}

// DrawIndexed runs an indexed draw reading indexCount indices from ib
// starting at firstIndex. vertexOffset is added to every index.
func (r *Rasterizer) DrawIndexed(buffers []resource.VertexBuffer, ib resource.IndexBuffer, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) error {
	index := func(i int) (int32, error) {
		v, err := ib.Index(firstIndex + i)
		if err != nil {
			return 0, fmt.Errorf("raster: index %d: %w", firstIndex+i, err)
		}
		return int32(v) + int32(vertexOffset), nil
	}
	return r.draw(buffers, indexCount, instanceCount, firstInstance, index, true)
}

func (r *Rasterizer) draw(buffers []resource.VertexBuffer, count, instances, firstInstance int, index func(int) (int32, error), indexed bool) error {
	if r.state != StatePrepared {
		return fmt.Errorf("%w (state %s)", ErrNotPrepared, r.state)
	}
	defer func() { r.state = StatePrepared }()

	inv := &r.inv
	inv.ClearErr()
	inv.VertexBuffers = buffers

	r.prog.ResetDefaults(inv)
	if indexed || r.cfg.UniformInit == UniformInitEveryDraw {
		r.prog.InitUniforms(inv)
		if err := inv.Err(); err != nil {
			return err
		}
	}

	for inst := range instances {
		inv.InstanceIndex = int32(firstInstance + inst)
		for first := 0; first+r.vpp <= count; first += r.vpp {
			r.state = StateDrawingVertices
			for v := range r.vpp {
				idx, err := index(first + v)
				if err != nil {
					return err
				}
				inv.Vertex = v
				inv.VertexIndex = idx
				inv.Position = f32.Vec4{}
				inv.PointSize = 1
				r.prog.Vertex.Run(inv)
				if err := inv.Err(); err != nil {
					return err
				}
				r.clip[v] = inv.Position
			}

			r.state = StateDrawingPixels
			r.stats.Primitives++
			if r.vpp == 3 {
				r.triangle()
			} else {
				r.points()
			}
			if err := inv.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// screenVertex is a vertex after the viewport transform.
type screenVertex struct {
	x, y float32
	z    float32 // depth in [MinDepth, MaxDepth]
	w    float32 // clip w
	i    int     // position within the primitive
}

func (r *Rasterizer) toScreen(c f32.Vec4, i int) screenVertex {
	vp := r.cfg.Viewport
	inv := 1 / c[3]
	nx, ny, nz := c[0]*inv, c[1]*inv, c[2]*inv
	return screenVertex{
		x: (nx+1)/2*vp.Width + vp.X,
		y: (ny+1)/2*vp.Height + vp.Y,
		z: vp.MinDepth + nz*(vp.MaxDepth-vp.MinDepth),
		w: c[3],
		i: i,
	}
}

// bounds returns the inclusive pixel range covered by the viewport.
func (r *Rasterizer) bounds() (x0, y0, x1, y1 int) {
	vp := r.cfg.Viewport
	x0, y0 = int(ceil(vp.X)), int(ceil(vp.Y))
	x1, y1 = int(ceil(vp.X+vp.Width))-1, int(ceil(vp.Y+vp.Height))-1
	return x0, y0, x1, y1
}

// points draws every vertex of the primitive as a one-pixel point.
func (r *Rasterizer) points() {
	x0, y0, x1, y1 := r.bounds()
	r.inv.FrontFacing = true
	r.inv.PointCoord = f32.Vec2{0.5, 0.5}
	for v := range r.vpp {
		c := r.clip[v]
		if c[3] <= 0 {
			r.stats.Discarded++
			continue
		}
		p := r.toScreen(c, v)
		x, y := pixel(floor(p.x), x0, x1), pixel(floor(p.y), y0, y1)
		if x < x0 || x > x1 || y < y0 || y > y1 {
			continue
		}
		clear(r.weights[:])
		r.weights[v] = 1
		r.fragment(x, y, p.z, 1/p.w)
	}
}

// fragment runs the depth test and the fragment stage for one pixel. When
// the shader writes gl_FragDepth the test runs after the shader, against the
// written depth.
func (r *Rasterizer) fragment(x, y int, z, invW float32) {
	inv := &r.inv
	inv.X, inv.Y = x, y
	inv.FragDepth = z
	if r.prog.UsesFragCoord {
		inv.FragCoord = f32.Vec4{float32(x) + 0.5, float32(y) + 0.5, z, invW}
	}

	if !r.prog.UsesFragDepth {
		if !r.depth.TestDepth(x, y, z) {
			r.stats.DepthRejected++
			return
		}
		r.depth.WriteDepth(x, y, z)
		r.stats.Fragments++
		r.prog.Fragment.Run(inv)
		return
	}

	r.stats.Fragments++
	r.prog.Fragment.Invoke(inv)
	if !r.depth.TestDepth(x, y, inv.FragDepth) {
		r.stats.DepthRejected++
		return
	}
	r.depth.WriteDepth(x, y, inv.FragDepth)
	r.prog.Fragment.Commit(inv)
}
