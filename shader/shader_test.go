package shader

import (
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

const (
	stageVertex   = gputypes.ShaderStageVertex
	stageFragment = gputypes.ShaderStageFragment
)

func math32bits(v float32) uint32 { return math.Float32bits(v) }

type colorVS struct {
	Pos      f32.Vec3
	Color    f32.Vec3
	MVP      f32.Mat4
	OutColor f32.Vec3
	Position f32.Vec4
}

func (s *colorVS) Interface() []Field {
	return []Field{
		In("inPos", 0, &s.Pos),
		In("inColor", 1, &s.Color),
		Uniform("mvp", 0, 0, &s.MVP),
		Out("fragColor", 0, &s.OutColor),
		Builtin(Position, &s.Position),
	}
}

func (s *colorVS) Main() {
	s.Position = f32.Vec4{s.Pos[0], s.Pos[1], s.Pos[2], 1}
	s.OutColor = s.Color
}

type funcProgram struct {
	fields func() []Field
}

func (p funcProgram) Interface() []Field { return p.fields() }
func (p funcProgram) Main()              {}
