// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package depth implements the depth/stencil test of the pipeline.
package depth

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/internal/codec"
	"github.com/gogpu/softvk/internal/resource"
)

// ErrStencilUnsupported is returned by every stencil write.
var ErrStencilUnsupported = fmt.Errorf("depth: stencil write: %w", errors.ErrUnsupported)

// Unit tests and writes fragment depth against a depth attachment.
// A disabled unit passes every test and ignores writes.
type Unit struct {
	view    resource.ImageView
	compare func(incoming, stored float32) bool
	write   bool
}

// Disabled returns a unit that always passes.
func Disabled() *Unit { return &Unit{} }

// New returns a unit for the given state and depth attachment. It returns a
// disabled unit when either is missing or the view has no depth plane.
// A compare function the unit cannot evaluate is an error.
func New(state *gputypes.DepthStencilState, view resource.ImageView) (*Unit, error) {
	switch {
	case state == nil:
		slogger().Debug("depth: test disabled, pipeline has no depth state")
		return Disabled(), nil
	case view == nil:
		slogger().Debug("depth: test disabled, subpass has no depth attachment")
		return Disabled(), nil
	case codec.DepthSize(view.Format()) == 0:
		slogger().Debug("depth: test disabled, attachment has no depth plane", "format", view.Format().String())
		return Disabled(), nil
	}

	cmp, err := compareFunc(state.DepthCompare)
	if err != nil {
		return nil, err
	}
	return &Unit{view: view, compare: cmp, write: state.DepthWriteEnabled}, nil
}

func compareFunc(f gputypes.CompareFunction) (func(incoming, stored float32) bool, error) {
	switch f {
	case gputypes.CompareFunctionNever:
		return func(float32, float32) bool { return false }, nil
	case gputypes.CompareFunctionLess:
		return func(a, b float32) bool { return a < b }, nil
	case gputypes.CompareFunctionEqual:
		return func(a, b float32) bool { return a == b }, nil
	case gputypes.CompareFunctionLessEqual:
		return func(a, b float32) bool { return a <= b }, nil
	case gputypes.CompareFunctionGreater:
		return func(a, b float32) bool { return a > b }, nil
	case gputypes.CompareFunctionNotEqual:
		return func(a, b float32) bool { return a != b }, nil
	case gputypes.CompareFunctionGreaterEqual:
		return func(a, b float32) bool { return a >= b }, nil
	case gputypes.CompareFunctionAlways:
		return func(float32, float32) bool { return true }, nil
	}
	return nil, fmt.Errorf("depth: compare function %s: %w", f, errors.ErrUnsupported)
}

// IsEnabled reports whether the unit tests against an attachment.
func (u *Unit) IsEnabled() bool { return u.view != nil }

// WritesEnabled reports whether passing fragments update the attachment.
func (u *Unit) WritesEnabled() bool { return u.view != nil && u.write }

// TestDepth compares value with the stored depth at (x, y).
func (u *Unit) TestDepth(x, y int, value float32) bool {
	if u.view == nil {
		return true
	}
	return u.compare(value, u.view.ReadDepth(x, y))
}

// ReadDepth returns the stored depth, or 0 when disabled.
func (u *Unit) ReadDepth(x, y int) float32 {
	if u.view == nil {
		return 0
	}
	return u.view.ReadDepth(x, y)
}

// WriteDepth stores value when depth writes are enabled.
func (u *Unit) WriteDepth(x, y int, value float32) {
	if u.WritesEnabled() {
		u.view.WriteDepth(x, y, value)
	}
}

// ReadStencil returns the stored stencil value, or 0 when disabled.
func (u *Unit) ReadStencil(x, y int) uint8 {
	if u.view == nil {
		return 0
	}
	return u.view.ReadStencil(x, y)
}

// WriteStencil always fails: the stencil test is not emulated.
func (u *Unit) WriteStencil(int, int, uint8) error {
	return ErrStencilUnsupported
}
