// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package codec

import (
	"errors"
	"testing"

	"golang.org/x/image/math/f32"
)

func TestReadWriteScalars(t *testing.T) {
	mem := make([]byte, 16)

	if err := Write(mem, 0, int32(-2)); err != nil {
		t.Fatal(err)
	}
	if got, _ := Read[int32](mem, 0); got != -2 {
		t.Errorf("Read[int32] = %d, want -2", got)
	}
	if mem[0] != 0xFE || mem[3] != 0xFF {
		t.Errorf("int32 bytes = % x, want little-endian two's complement", mem[:4])
	}

	if err := Write(mem, 4, float32(1.5)); err != nil {
		t.Fatal(err)
	}
	if got, _ := Read[float32](mem, 4); got != 1.5 {
		t.Errorf("Read[float32] = %v, want 1.5", got)
	}

	if err := Write(mem, 8, uint16(0xBEEF)); err != nil {
		t.Fatal(err)
	}
	if mem[8] != 0xEF || mem[9] != 0xBE {
		t.Errorf("uint16 bytes = % x, want ef be", mem[8:10])
	}
	if got, _ := Read[uint16](mem, 8); got != 0xBEEF {
		t.Errorf("Read[uint16] = %#x, want 0xbeef", got)
	}

	if err := Write(mem, 8, -0.25); err != nil {
		t.Fatal(err)
	}
	if got, _ := Read[float64](mem, 8); got != -0.25 {
		t.Errorf("Read[float64] = %v, want -0.25", got)
	}
}

func TestReadOutOfRange(t *testing.T) {
	mem := make([]byte, 6)
	tests := []struct {
		name string
		off  int
	}{
		{"negative", -1},
		{"past end", 3},
		{"at end", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read[uint32](mem, tt.off); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Read at %d: err = %v, want ErrOutOfRange", tt.off, err)
			}
			if err := Write(mem, tt.off, uint32(1)); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Write at %d: err = %v, want ErrOutOfRange", tt.off, err)
			}
		})
	}
}

func TestReadVectors(t *testing.T) {
	mem := make([]byte, 64)
	for i := range 16 {
		_ = Write(mem, 4*i, float32(i+1))
	}

	v2, err := ReadVec2(mem, 4)
	if err != nil || v2 != (f32.Vec2{2, 3}) {
		t.Errorf("ReadVec2 = %v, %v", v2, err)
	}
	v3, err := ReadVec3(mem, 0)
	if err != nil || v3 != (f32.Vec3{1, 2, 3}) {
		t.Errorf("ReadVec3 = %v, %v", v3, err)
	}
	v4, err := ReadVec4(mem, 48)
	if err != nil || v4 != (f32.Vec4{13, 14, 15, 16}) {
		t.Errorf("ReadVec4 = %v, %v", v4, err)
	}
	m, err := ReadMat4(mem, 0)
	if err != nil || m[0] != 1 || m[15] != 16 {
		t.Errorf("ReadMat4 = %v, %v", m, err)
	}
	if _, err := ReadVec4(mem, 56); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReadVec4 past end: err = %v, want ErrOutOfRange", err)
	}

	if err := WriteVec4(mem, 0, f32.Vec4{9, 8, 7, 6}); err != nil {
		t.Fatal(err)
	}
	if v4, _ := ReadVec4(mem, 0); v4 != (f32.Vec4{9, 8, 7, 6}) {
		t.Errorf("WriteVec4/ReadVec4 = %v", v4)
	}
}
