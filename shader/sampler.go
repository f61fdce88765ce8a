package shader

import (
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// Texture is a readable two-dimensional image.
type Texture interface {
	Width() int
	Height() int
	// Texel returns the color at integer coordinates inside the image.
	Texel(x, y int) f32.Vec4
}

// Sampler2D samples a texture with normalized coordinates.
// The zero value samples transparent black.
type Sampler2D struct {
	tex  Texture
	desc gputypes.SamplerDescriptor
}

// NewSampler2D returns a sampler reading tex with the filtering and
// addressing of desc. Only MagFilter selects the filter since there are no
// mip levels; undefined address modes clamp to the edge.
func NewSampler2D(tex Texture, desc gputypes.SamplerDescriptor) Sampler2D {
	return Sampler2D{tex: tex, desc: desc}
}

// Valid reports whether the sampler is bound to a texture.
func (s Sampler2D) Valid() bool {
	return s.tex != nil && s.tex.Width() > 0 && s.tex.Height() > 0
}

// Sample returns the filtered color at uv, where (0,0) is the top-left
// corner of the texture and (1,1) the bottom-right.
func (s Sampler2D) Sample(uv f32.Vec2) f32.Vec4 {
	if !s.Valid() {
		return f32.Vec4{}
	}
	w, h := s.tex.Width(), s.tex.Height()
	x := float64(uv[0]) * float64(w)
	y := float64(uv[1]) * float64(h)

	if s.desc.MagFilter != gputypes.FilterModeLinear {
		return s.texel(int(math.Floor(x)), int(math.Floor(y)))
	}

	x -= 0.5
	y -= 0.5
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := float32(x-x0), float32(y-y0)
	ix, iy := int(x0), int(y0)

	c00 := s.texel(ix, iy)
	c10 := s.texel(ix+1, iy)
	c01 := s.texel(ix, iy+1)
	c11 := s.texel(ix+1, iy+1)

	var out f32.Vec4
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

func (s Sampler2D) texel(x, y int) f32.Vec4 {
	x = address(x, s.tex.Width(), s.desc.AddressModeU)
	y = address(y, s.tex.Height(), s.desc.AddressModeV)
	return s.tex.Texel(x, y)
}

func address(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		return min(max(i, 0), n-1)
	}
}
