package shader

import (
	"golang.org/x/image/math/f32"
)

// Type is the semantic data type of a shader field.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeFloat
	TypeVec2
	TypeVec3
	TypeVec4
	TypeMat4
	TypeInt
	TypeUint
	TypeBool
	TypeSampler2D
	// TypeBlock is a fixed-size struct read from a uniform buffer.
	TypeBlock
)

var typeNames = [...]string{
	TypeInvalid:   "invalid",
	TypeFloat:     "float",
	TypeVec2:      "vec2",
	TypeVec3:      "vec3",
	TypeVec4:      "vec4",
	TypeMat4:      "mat4",
	TypeInt:       "int",
	TypeUint:      "uint",
	TypeBool:      "bool",
	TypeSampler2D: "sampler2D",
	TypeBlock:     "block",
}

// String returns the GLSL-style name of the type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Size returns the size in bytes of a value of type t in device memory.
// Samplers and blocks have no intrinsic size and return 0.
func (t Type) Size() int {
	switch t {
	case TypeFloat, TypeInt, TypeUint, TypeBool:
		return 4
	case TypeVec2:
		return 8
	case TypeVec3:
		return 12
	case TypeVec4:
		return 16
	case TypeMat4:
		return 64
	default:
		return 0
	}
}

// IsFloat reports whether values of t are interpolated across a primitive.
// Integer and boolean values are flat.
func (t Type) IsFloat() bool {
	switch t {
	case TypeFloat, TypeVec2, TypeVec3, TypeVec4, TypeMat4:
		return true
	}
	return false
}

// Value is the set of Go types a shader field can hold directly.
type Value interface {
	float32 | f32.Vec2 | f32.Vec3 | f32.Vec4 | f32.Mat4 | int32 | uint32 | bool
}

// TypeOf returns the Type corresponding to T.
func TypeOf[T Value]() Type {
	var v T
	switch any(v).(type) {
	case float32:
		return TypeFloat
	case f32.Vec2:
		return TypeVec2
	case f32.Vec3:
		return TypeVec3
	case f32.Vec4:
		return TypeVec4
	case f32.Mat4:
		return TypeMat4
	case int32:
		return TypeInt
	case uint32:
		return TypeUint
	case bool:
		return TypeBool
	}
	return TypeInvalid
}
