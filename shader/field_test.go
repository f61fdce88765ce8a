package shader

import (
	"testing"

	"golang.org/x/image/math/f32"
)

type lightBlock struct {
	Dir       f32.Vec3
	Intensity float32
	Color     f32.Vec4
}

func TestFieldConstructors(t *testing.T) {
	var (
		pos   f32.Vec3
		color f32.Vec4
		mvp   f32.Mat4
		index int32
		light lightBlock
		tex   Sampler2D
		note  string
	)
	tests := []struct {
		name    string
		field   Field
		dir     Direction
		typ     Type
		size    int
		loc     uint32
		set     uint32
		binding uint32
	}{
		{"in", In("inPos", 2, &pos), DirIn, TypeVec3, 12, 2, 0, 0},
		{"out", Out("outColor", 1, &color), DirOut, TypeVec4, 16, 1, 0, 0},
		{"uniform", Uniform("mvp", 1, 3, &mvp), DirUniform, TypeMat4, 64, 0, 1, 3},
		{"builtin", Builtin(VertexIndex, &index), DirBuiltin, TypeInt, 4, 0, 0, 0},
		{"block", Block("light", 0, 1, &light), DirUniform, TypeBlock, 32, 0, 0, 1},
		{"sampler", Sampler("tex", 2, 0, &tex), DirUniform, TypeSampler2D, 0, 0, 2, 0},
		{"plain", Plain("note", &note), DirNone, TypeInvalid, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.field
			if f.Direction != tt.dir {
				t.Errorf("Direction = %v, want %v", f.Direction, tt.dir)
			}
			if f.Type != tt.typ {
				t.Errorf("Type = %v, want %v", f.Type, tt.typ)
			}
			if f.Size != tt.size {
				t.Errorf("Size = %d, want %d", f.Size, tt.size)
			}
			if f.Location != tt.loc || f.Set != tt.set || f.Binding != tt.binding {
				t.Errorf("slot = (%d, %d, %d), want (%d, %d, %d)",
					f.Location, f.Set, f.Binding, tt.loc, tt.set, tt.binding)
			}
			if f.Ptr == nil {
				t.Error("Ptr is nil")
			}
		})
	}
}

func TestFieldReset(t *testing.T) {
	v := f32.Vec4{1, 2, 3, 4}
	f := Out("c", 0, &v)
	f.Reset()
	if v != (f32.Vec4{}) {
		t.Errorf("after Reset v = %v, want zero", v)
	}

	light := lightBlock{Intensity: 3}
	b := Block("light", 0, 0, &light)
	b.Reset()
	if light != (lightBlock{}) {
		t.Errorf("after Reset block = %+v, want zero", light)
	}
}

func TestBlockDecode(t *testing.T) {
	var light lightBlock
	f := Block("light", 0, 0, &light)

	mem := make([]byte, 32)
	put := func(off int, v float32) {
		b := math32bits(v)
		mem[off], mem[off+1], mem[off+2], mem[off+3] = byte(b), byte(b>>8), byte(b>>16), byte(b>>24)
	}
	put(0, 1)
	put(12, 0.5)
	put(28, 1)

	if err := f.Decode(mem); err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if light.Dir != (f32.Vec3{1, 0, 0}) || light.Intensity != 0.5 || light.Color[3] != 1 {
		t.Errorf("decoded %+v", light)
	}

	if err := f.Decode(mem[:16]); err == nil {
		t.Error("Decode(short) = nil, want error")
	}

	var x float32
	if err := Uniform("x", 0, 0, &x).Decode(mem); err == nil {
		t.Error("Decode on a value field = nil, want error")
	}
}

func TestDirectionString(t *testing.T) {
	tests := map[Direction]string{
		DirNone:      "none",
		DirIn:        "in",
		DirOut:       "out",
		DirUniform:   "uniform",
		DirBuiltin:   "builtin",
		Direction(9): "unknown",
	}
	for d, want := range tests {
		if got := d.String(); got != want {
			t.Errorf("Direction(%d).String() = %q, want %q", d, got, want)
		}
	}
}

func TestTypeOf(t *testing.T) {
	if got := TypeOf[f32.Vec2](); got != TypeVec2 {
		t.Errorf("TypeOf[Vec2] = %v", got)
	}
	if got := TypeOf[uint32](); got != TypeUint {
		t.Errorf("TypeOf[uint32] = %v", got)
	}
	if got := TypeOf[bool](); got != TypeBool {
		t.Errorf("TypeOf[bool] = %v", got)
	}
	if TypeInt.IsFloat() || !TypeMat4.IsFloat() {
		t.Error("IsFloat classification wrong")
	}
}

func TestLookupBuiltin(t *testing.T) {
	tests := []struct {
		stage  string
		name   string
		vertex bool
		ok     bool
		typ    Type
	}{
		{"vertex", Position, true, true, TypeVec4},
		{"vertex", VertexIndex, true, true, TypeInt},
		{"vertex", FragCoord, true, false, TypeInvalid},
		{"fragment", FragCoord, false, true, TypeVec4},
		{"fragment", FragDepth, false, true, TypeFloat},
		{"fragment", Position, false, false, TypeInvalid},
		{"fragment", "gl_Bogus", false, false, TypeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.stage+"/"+tt.name, func(t *testing.T) {
			stage := stageFragment
			if tt.vertex {
				stage = stageVertex
			}
			info, ok := LookupBuiltin(stage, tt.name)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if info.Type != tt.typ {
				t.Errorf("Type = %v, want %v", info.Type, tt.typ)
			}
		})
	}
}
