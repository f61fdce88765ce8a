// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package binder

import "errors"

// ErrBinding is wrapped by every diagnostic of a field left unbound.
var ErrBinding = errors.New("binder: field not bound")

// Causes of binding diagnostics.
var (
	ErrUnknownBuiltin     = errors.New("unknown built-in for stage")
	ErrNoAttribute        = errors.New("no vertex attribute at location")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrNoProducer         = errors.New("no vertex output with that name")
	ErrUnbound            = errors.New("no descriptor bound")
	ErrDescriptorMismatch = errors.New("descriptor does not match field")
	ErrBadAttachment      = errors.New("no color attachment at location")
)

// Fatal compile errors.
var (
	ErrNilProgram = errors.New("binder: missing shader stage")
	ErrNilStorage = errors.New("binder: missing inter-stage storage")
)

// ErrVertexBuffer is recorded when a draw reads a vertex buffer binding that
// is not bound.
var ErrVertexBuffer = errors.New("binder: vertex buffer not bound")
