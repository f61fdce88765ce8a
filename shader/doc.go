// Package shader describes the interface of shader programs run by the
// software pipeline.
//
// A shader is an ordinary Go value implementing [Program]. Instead of being
// discovered by reflection, its interface is declared explicitly: Interface
// returns one [Field] per input, output, uniform or built-in, each holding a
// typed pointer into the shader value. The pipeline compiles these fields
// once into load/store actions and then calls Main once per vertex or pixel.
//
// # Example
//
//	type colorVS struct {
//	    Pos      f32.Vec3
//	    Color    f32.Vec3
//	    OutColor f32.Vec3
//	    Position f32.Vec4
//	}
//
//	func (s *colorVS) Interface() []shader.Field {
//	    return []shader.Field{
//	        shader.In("inPos", 0, &s.Pos),
//	        shader.In("inColor", 1, &s.Color),
//	        shader.Out("fragColor", 0, &s.OutColor),
//	        shader.Builtin(shader.Position, &s.Position),
//	    }
//	}
//
//	func (s *colorVS) Main() {
//	    s.Position = f32.Vec4{s.Pos[0], s.Pos[1], s.Pos[2], 1}
//	    s.OutColor = s.Color
//	}
//
// Vertex outputs and fragment inputs are matched by field name. Fragment
// outputs must be [f32.Vec4] colors; their location selects the color
// attachment of the current subpass.
//
// An interface may also be cross-checked against WGSL source with
// [ReflectWGSL] and [Descriptor.CheckAgainst].
package shader
