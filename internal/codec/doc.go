// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package codec converts between packed pixel encodings and float color
// vectors, and reads and writes typed values in raw device memory.
//
// All multi-byte values are little-endian. Packed 32-bit colors use the
// 0xAARRGGBB layout: in memory the bytes are B, G, R, A.
package codec
