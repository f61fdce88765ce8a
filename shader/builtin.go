package shader

import "github.com/gogpu/gputypes"

// Built-in variable names.
const (
	VertexIndex   = "gl_VertexIndex"
	InstanceIndex = "gl_InstanceIndex"
	Position      = "gl_Position"
	PointSize     = "gl_PointSize"
	FragCoord     = "gl_FragCoord"
	FragDepth     = "gl_FragDepth"
	FrontFacing   = "gl_FrontFacing"
	PointCoord    = "gl_PointCoord"
)

// BuiltinInfo describes a built-in variable of one stage.
type BuiltinInfo struct {
	Name string
	Type Type
	// Output is true when the shader writes the value.
	Output bool
}

var builtins = map[gputypes.ShaderStage]map[string]BuiltinInfo{
	gputypes.ShaderStageVertex: {
		VertexIndex:   {VertexIndex, TypeInt, false},
		InstanceIndex: {InstanceIndex, TypeInt, false},
		Position:      {Position, TypeVec4, true},
		PointSize:     {PointSize, TypeFloat, true},
	},
	gputypes.ShaderStageFragment: {
		FragCoord:   {FragCoord, TypeVec4, false},
		FragDepth:   {FragDepth, TypeFloat, true},
		FrontFacing: {FrontFacing, TypeBool, false},
		PointCoord:  {PointCoord, TypeVec2, false},
	},
}

// LookupBuiltin returns the built-in called name in the given stage.
// Built-in names are namespaced per stage.
func LookupBuiltin(stage gputypes.ShaderStage, name string) (BuiltinInfo, bool) {
	info, ok := builtins[stage][name]
	return info, ok
}

// IsBuiltinName reports whether name uses the reserved gl_ prefix.
func IsBuiltinName(name string) bool {
	return len(name) > 3 && name[:3] == "gl_"
}
