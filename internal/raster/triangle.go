// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package raster

import (
	"math"

	"golang.org/x/image/math/f32"
)

func ceil(v float32) float32  { return float32(math.Ceil(float64(v))) }
func floor(v float32) float32 { return float32(math.Floor(float64(v))) }

// pixel converts the integral coordinate v to an int clamped to
// [lo-1, hi+1]. NaN maps to hi+1, outside any range starting at lo.
func pixel(v float32, lo, hi int) int {
	switch {
	case v != v || v > float32(hi+1):
		return hi + 1
	case v < float32(lo-1):
		return lo - 1
	}
	return int(v)
}

// homo converts a screen-space interpolation parameter a between two points
// with clip w0 and w1 into the perspective-correct parameter.
func homo(a, w0, w1 float32) float32 {
	return a * w0 / (w1 + (w0-w1)*a)
}

// edgePoint is a point on a triangle edge at the current scanline.
type edgePoint struct {
	x    float32
	z    float32
	invW float32
	bary [3]float32
}

// edge is a triangle edge from the upper vertex a to the lower vertex b.
type edge struct {
	a, b screenVertex
}

// at returns the point of the edge at screen-space parameter t.
func (e edge) at(t float32) edgePoint {
	b := homo(t, e.a.w, e.b.w)
	var p edgePoint
	p.x = e.a.x + (e.b.x-e.a.x)*t
	p.z = e.a.z + (e.b.z-e.a.z)*t
	p.invW = 1/e.a.w + (1/e.b.w-1/e.a.w)*t
	p.bary[e.a.i] += 1 - b
	p.bary[e.b.i] += b
	return p
}

// atY returns the point of the edge on scanline y.
func (e edge) atY(y float32) edgePoint {
	return e.at((y - e.a.y) / (e.b.y - e.a.y))
}

// triangle rasterizes the current primitive.
//
// Triangles whose signed area (v1-v0)x(v2-v0) is not negative are culled,
// including degenerate ones. Rows ceil(top)..floor(bottom) and columns
// ceil(left)..floor(right) are covered, clamped to the viewport.
func (r *Rasterizer) triangle() {
	var v [3]screenVertex
	for i, c := range r.clip {
		if c[3] <= 0 {
			r.stats.Discarded++
			return
		}
		v[i] = r.toScreen(c, i)
	}

	area := (v[1].x-v[0].x)*(v[2].y-v[0].y) - (v[1].y-v[0].y)*(v[2].x-v[0].x)
	if area >= 0 || math.IsNaN(float64(area)) {
		r.stats.Culled++
		return
	}
	r.inv.FrontFacing = true
	r.inv.PointCoord = f32.Vec2{}

	// Sort top to bottom, left to right on ties.
	less := func(p, q screenVertex) bool { return p.y < q.y || (p.y == q.y && p.x < q.x) }
	if less(v[1], v[0]) {
		v[0], v[1] = v[1], v[0]
	}
	if less(v[2], v[1]) {
		v[1], v[2] = v[2], v[1]
	}
	if less(v[1], v[0]) {
		v[0], v[1] = v[1], v[0]
	}
	top, mid, bottom := v[0], v[1], v[2]

	long := edge{top, bottom}
	upper := edge{top, mid}
	lower := edge{mid, bottom}
	shortLeft := mid.x < long.atY(mid.y).x

	x0, y0, x1, y1 := r.bounds()
	ys := max(pixel(ceil(top.y), y0, y1), y0)
	ye := min(pixel(floor(bottom.y), y0, y1), y1)

	for y := ys; y <= ye; y++ {
		fy := float32(y)
		lp := long.atY(fy)
		var sp edgePoint
		switch {
		case fy < mid.y:
			sp = upper.atY(fy)
		case bottom.y > mid.y:
			sp = lower.atY(fy)
		default:
			sp = upper.at(1)
		}

		left, right := lp, sp
		if shortLeft {
			left, right = sp, lp
		}
		r.span(y, left, right, x0, x1)
	}
}

// span runs the fragments of one scanline between two edge points.
func (r *Rasterizer) span(y int, left, right edgePoint, x0, x1 int) {
	xs := max(pixel(ceil(left.x), x0, x1), x0)
	xe := min(pixel(floor(right.x), x0, x1), x1)
	if xs > xe {
		return
	}
	wl, wr := 1/left.invW, 1/right.invW
	dx := right.x - left.x

	for x := xs; x <= xe; x++ {
		var s float32
		if dx != 0 {
			s = (float32(x) - left.x) / dx
		}
		b := homo(s, wl, wr)
		for i := range r.weights {
			r.weights[i] = (1-b)*left.bary[i] + b*right.bary[i]
		}
		z := left.z + (right.z-left.z)*s
		invW := left.invW + (right.invW-left.invW)*s
		r.fragment(x, y, z, invW)
	}
}
