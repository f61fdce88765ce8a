// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package codec

import (
	"math"

	"golang.org/x/image/math/f32"
)

// SRGBToLinear applies the sRGB EOTF to a single component in [0,1].
func SRGBToLinear(s float32) float32 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return float32(math.Pow(float64((s+0.055)/1.055), 2.4))
}

// LinearToSRGB applies the sRGB OETF to a single component in [0,1].
func LinearToSRGB(l float32) float32 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*float32(math.Pow(float64(l), 1.0/2.4)) - 0.055
}

// DecodeSRGB converts the RGB channels of c from sRGB to linear.
// Alpha is never gamma-encoded.
func DecodeSRGB(c f32.Vec4) f32.Vec4 {
	return f32.Vec4{SRGBToLinear(c[0]), SRGBToLinear(c[1]), SRGBToLinear(c[2]), c[3]}
}

// EncodeSRGB converts the RGB channels of c from linear to sRGB.
func EncodeSRGB(c f32.Vec4) f32.Vec4 {
	return f32.Vec4{LinearToSRGB(c[0]), LinearToSRGB(c[1]), LinearToSRGB(c[2]), c[3]}
}
