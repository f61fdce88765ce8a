// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package codec

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
	"golang.org/x/image/math/f32"
)

// ErrOutOfRange is returned when an access falls outside the memory slice.
var ErrOutOfRange = errors.New("codec: memory access out of range")

// Number is the set of scalar types that can be stored in device memory.
type Number interface {
	constraints.Integer | constraints.Float
}

// Read decodes a little-endian scalar of type T at byte offset off.
func Read[T Number](mem []byte, off int) (T, error) {
	var v T
	n := int(unsafe.Sizeof(v))
	if err := checkRange(mem, off, n); err != nil {
		return v, err
	}
	var bits uint64
	for i := n - 1; i >= 0; i-- {
		bits = bits<<8 | uint64(mem[off+i])
	}
	if !isFloat[T]() {
		return T(bits), nil
	}
	if n == 4 {
		return T(math.Float32frombits(uint32(bits))), nil
	}
	return T(math.Float64frombits(bits)), nil
}

// Write encodes v little-endian at byte offset off.
func Write[T Number](mem []byte, off int, v T) error {
	n := int(unsafe.Sizeof(v))
	if err := checkRange(mem, off, n); err != nil {
		return err
	}
	var bits uint64
	switch {
	case !isFloat[T]():
		bits = uint64(v)
	case n == 4:
		bits = uint64(math.Float32bits(float32(v)))
	default:
		bits = math.Float64bits(float64(v))
	}
	for i := 0; i < n; i++ {
		mem[off+i] = byte(bits >> (8 * i))
	}
	return nil
}

// ReadVec2 decodes two consecutive float32 values.
func ReadVec2(mem []byte, off int) (f32.Vec2, error) {
	var v f32.Vec2
	err := readFloats(mem, off, v[:])
	return v, err
}

// ReadVec3 decodes three consecutive float32 values.
func ReadVec3(mem []byte, off int) (f32.Vec3, error) {
	var v f32.Vec3
	err := readFloats(mem, off, v[:])
	return v, err
}

// ReadVec4 decodes four consecutive float32 values.
func ReadVec4(mem []byte, off int) (f32.Vec4, error) {
	var v f32.Vec4
	err := readFloats(mem, off, v[:])
	return v, err
}

// ReadMat4 decodes sixteen consecutive float32 values (column-major).
func ReadMat4(mem []byte, off int) (f32.Mat4, error) {
	var m f32.Mat4
	err := readFloats(mem, off, m[:])
	return m, err
}

// WriteVec4 encodes four float32 values at off.
func WriteVec4(mem []byte, off int, v f32.Vec4) error {
	if err := checkRange(mem, off, 16); err != nil {
		return err
	}
	for i, c := range v {
		_ = Write(mem, off+4*i, c)
	}
	return nil
}

func readFloats(mem []byte, off int, dst []float32) error {
	if err := checkRange(mem, off, 4*len(dst)); err != nil {
		return err
	}
	for i := range dst {
		dst[i], _ = Read[float32](mem, off+4*i)
	}
	return nil
}

func checkRange(mem []byte, off, n int) error {
	if off < 0 || off+n > len(mem) {
		return fmt.Errorf("%w: %d bytes at offset %d (size %d)", ErrOutOfRange, n, off, len(mem))
	}
	return nil
}

// isFloat reports whether T is a floating-point type.
func isFloat[T Number]() bool {
	half := 0.5
	return T(half) != 0
}
