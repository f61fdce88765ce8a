// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package binder

// Action is one compiled load or store.
type Action func(*Invocation)

// Stage is the compiled program of one shader stage.
//
// Pre loads inputs into the shader, Body is the shader's Main, Export stores
// values the rasterizer needs before deciding whether the invocation
// survives (varyings, position, fragment depth) and Post writes the
// results that depend on that decision (color attachments).
type Stage struct {
	Pre    []Action
	Body   func()
	Export []Action
	Post   []Action
}

// Invoke runs the pre-actions, the body and the export actions.
func (s *Stage) Invoke(inv *Invocation) {
	for _, a := range s.Pre {
		a(inv)
	}
	if s.Body != nil {
		s.Body()
	}
	for _, a := range s.Export {
		a(inv)
	}
}

// Commit runs the post-actions.
func (s *Stage) Commit(inv *Invocation) {
	for _, a := range s.Post {
		a(inv)
	}
}

// Run invokes the stage and commits its results.
func (s *Stage) Run(inv *Invocation) {
	s.Invoke(inv)
	s.Commit(inv)
}

// Program is a compiled pipeline: both stages plus the uniform
// initialization run once per draw.
type Program struct {
	Vertex   Stage
	Fragment Stage
	Uniforms []Action
	// Defaults restores the zero value of every field left unbound.
	Defaults []Action

	// UsesFragCoord is set when the fragment shader reads gl_FragCoord or
	// gl_FragDepth.
	UsesFragCoord bool
	// UsesFragDepth is set when the fragment shader writes gl_FragDepth.
	// The depth test then runs after the shader, against its depth.
	UsesFragDepth bool

	// Diagnostics lists the fields that were left unbound.
	Diagnostics []error
}

// ResetDefaults zeroes the unbound fields. Other programs compiled from the
// same shader values may have written them since.
func (p *Program) ResetDefaults(inv *Invocation) {
	for _, a := range p.Defaults {
		a(inv)
	}
}

// InitUniforms loads uniform values and sampler handles.
func (p *Program) InitUniforms(inv *Invocation) {
	for _, a := range p.Uniforms {
		a(inv)
	}
}
