// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package codec

import "golang.org/x/image/math/f32"

// ToUint packs a color into 0xAARRGGBB.
// Channels are clamped to [0,1] and rounded to the nearest 8-bit value.
func ToUint(c f32.Vec4) uint32 {
	return uint32(unorm8(c[3]))<<24 |
		uint32(unorm8(c[0]))<<16 |
		uint32(unorm8(c[1]))<<8 |
		uint32(unorm8(c[2]))
}

// ToVec4 unpacks a 0xAARRGGBB value into an RGBA vector.
func ToVec4(u uint32) f32.Vec4 {
	return f32.Vec4{
		float32(u>>16&0xFF) / 255,
		float32(u>>8&0xFF) / 255,
		float32(u&0xFF) / 255,
		float32(u>>24&0xFF) / 255,
	}
}

// ToRGBA8888 returns the memory bytes of a packed color: B, G, R, A.
func ToRGBA8888(c f32.Vec4) [4]byte {
	u := ToUint(c)
	return [4]byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

// FromRGBA8888 decodes memory bytes written by ToRGBA8888.
func FromRGBA8888(b [4]byte) f32.Vec4 {
	return ToVec4(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

// ToRGB565 packs the color channels into 5-6-5 bits (red in the high bits).
// Alpha is dropped.
func ToRGB565(c f32.Vec4) uint16 {
	r := uint16(unormN(c[0], 31))
	g := uint16(unormN(c[1], 63))
	b := uint16(unormN(c[2], 31))
	return r<<11 | g<<5 | b
}

// FromRGB565 expands a 5-6-5 value. Alpha is always 1.
func FromRGB565(u uint16) f32.Vec4 {
	return f32.Vec4{
		float32(u>>11&0x1F) / 31,
		float32(u>>5&0x3F) / 63,
		float32(u&0x1F) / 31,
		1,
	}
}

func unorm8(v float32) uint8 {
	return uint8(unormN(v, 255))
}

// unormN clamps v to [0,1] and scales it to [0,scale] with rounding.
func unormN(v, scale float32) uint32 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return uint32(scale)
	}
	return uint32(v*scale + 0.5)
}
