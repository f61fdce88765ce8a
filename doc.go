// Package softvk is a software implementation of a command-buffer driven
// graphics pipeline. Everything runs on the CPU: vertex and fragment shaders
// are Go values, rasterization is a scanline fill with perspective-correct
// interpolation, and attachments are plain byte slices.
//
// # Overview
//
// Applications create resources (Buffer, Image, Sampler, DescriptorSet),
// describe a RenderPass and a GraphicsPipeline, record commands into a
// CommandBuffer and submit it to a Queue:
//
//	cb := softvk.NewCommandBuffer()
//	cb.BeginRenderPass(fb, softvk.ClearValue{Color: gputypes.Color{A: 1}})
//	cb.BindPipeline(pipeline)
//	cb.BindVertexBuffers(0, []*softvk.Buffer{vertices}, nil)
//	cb.Draw(3, 1, 0, 0)
//	cb.EndRenderPass()
//	if err := cb.End(); err != nil {
//	    return err
//	}
//	err := softvk.NewQueue().Submit(nil, cb)
//
// # Shaders
//
// A shader implements shader.Program: it lists its interface fields once
// and runs Main per invocation. Fields are bound to vertex attributes,
// varyings, uniforms and attachments when a draw is prepared. A field that
// cannot be bound is logged, keeps its zero value, and the draw continues.
//
// # Command lifecycle
//
// Each command is parsed (state validation), prepared once (shader binding,
// clear setup) and executed on every submission. End runs the first two
// phases and reports failures as *CompileError; Queue.Submit runs the third.
//
// # Logging
//
// softvk is silent by default. Use SetLogger to route diagnostics to a
// log/slog handler.
package softvk
