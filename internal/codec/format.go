// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package codec

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// TextureFormatB5G6R5Unorm is a packed 16-bit color format outside the
// WebGPU enumeration: red in bits 11-15, green in 5-10, blue in 0-4.
const TextureFormatB5G6R5Unorm gputypes.TextureFormat = 0x00010001

// FormatName returns the name of f, including the formats defined here.
func FormatName(f gputypes.TextureFormat) string {
	if f == TextureFormatB5G6R5Unorm {
		return "B5G6R5Unorm"
	}
	return f.String()
}

// ColorSize returns the bytes per pixel of a color format, or 0 when the
// format is not a supported color format.
func ColorSize(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatR32Float:
		return 4
	case gputypes.TextureFormatRGBA32Float:
		return 16
	case TextureFormatB5G6R5Unorm:
		return 2
	default:
		return 0
	}
}

// DepthSize returns the bytes per pixel of the depth plane of a depth
// format, or 0 when the format has no supported depth aspect.
func DepthSize(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatDepth32Float, gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth24PlusStencil8, gputypes.TextureFormatDepth32FloatStencil8:
		return 4
	case gputypes.TextureFormatDepth16Unorm:
		return 2
	default:
		return 0
	}
}

// EncodeColor writes c into dst using format f. dst must hold ColorSize(f)
// bytes; unsupported formats are ignored.
func EncodeColor(f gputypes.TextureFormat, dst []byte, c f32.Vec4) {
	switch f {
	case gputypes.TextureFormatBGRA8UnormSrgb:
		c = EncodeSRGB(c)
		fallthrough
	case gputypes.TextureFormatBGRA8Unorm:
		b := ToRGBA8888(c)
		copy(dst, b[:])
	case gputypes.TextureFormatRGBA8UnormSrgb:
		c = EncodeSRGB(c)
		fallthrough
	case gputypes.TextureFormatRGBA8Unorm:
		dst[0], dst[1], dst[2], dst[3] = unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])
	case gputypes.TextureFormatR32Float:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(c[0]))
	case gputypes.TextureFormatRGBA32Float:
		for i, v := range c {
			binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
		}
	case TextureFormatB5G6R5Unorm:
		binary.LittleEndian.PutUint16(dst, ToRGB565(c))
	}
}

// DecodeColor reads a pixel of format f from src.
func DecodeColor(f gputypes.TextureFormat, src []byte) f32.Vec4 {
	switch f {
	case gputypes.TextureFormatBGRA8Unorm:
		return FromRGBA8888([4]byte(src[:4]))
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return DecodeSRGB(FromRGBA8888([4]byte(src[:4])))
	case gputypes.TextureFormatRGBA8Unorm:
		return rgba8(src)
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return DecodeSRGB(rgba8(src))
	case gputypes.TextureFormatR32Float:
		return f32.Vec4{math.Float32frombits(binary.LittleEndian.Uint32(src)), 0, 0, 1}
	case gputypes.TextureFormatRGBA32Float:
		var c f32.Vec4
		for i := range c {
			c[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
		}
		return c
	case TextureFormatB5G6R5Unorm:
		return FromRGB565(binary.LittleEndian.Uint16(src))
	default:
		return f32.Vec4{}
	}
}

// EncodeDepth writes depth d into dst using the depth plane of format f.
func EncodeDepth(f gputypes.TextureFormat, dst []byte, d float32) {
	switch DepthSize(f) {
	case 4:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(d))
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(unormN(d, 65535)))
	}
}

// DecodeDepth reads a depth value from the depth plane of format f.
func DecodeDepth(f gputypes.TextureFormat, src []byte) float32 {
	switch DepthSize(f) {
	case 4:
		return math.Float32frombits(binary.LittleEndian.Uint32(src))
	case 2:
		return float32(binary.LittleEndian.Uint16(src)) / 65535
	default:
		return 0
	}
}

func rgba8(src []byte) f32.Vec4 {
	return f32.Vec4{
		float32(src[0]) / 255,
		float32(src[1]) / 255,
		float32(src[2]) / 255,
		float32(src[3]) / 255,
	}
}
