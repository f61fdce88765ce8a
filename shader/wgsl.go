package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Reflection errors.
var (
	ErrEntryPointNotFound = errors.New("shader: entry point not found")
	ErrInterfaceMismatch  = errors.New("shader: interface mismatch")
)

// Decl is one interface variable of a WGSL entry point.
type Decl struct {
	Name      string
	Direction Direction
	Location  uint32
	Set       uint32
	Binding   uint32
	// Builtin is the built-in name (for example [Position]) of DirBuiltin
	// declarations.
	Builtin string
	Type    Type
}

func (d Decl) String() string {
	switch d.Direction {
	case DirIn, DirOut:
		return fmt.Sprintf("@location(%d) %s %s", d.Location, d.Direction, d.Type)
	case DirUniform:
		return fmt.Sprintf("@group(%d) @binding(%d) %s", d.Set, d.Binding, d.Type)
	case DirBuiltin:
		return fmt.Sprintf("@builtin %s", d.Builtin)
	}
	return d.Name
}

// ReflectWGSL parses WGSL source and returns the stage and interface of the
// named entry point. Struct arguments and results are flattened into their
// members. Resource bindings of the whole module are reported as uniforms;
// standalone samplers are skipped and textures report as [TypeSampler2D].
func ReflectWGSL(source, entryPoint string) (gputypes.ShaderStage, []Decl, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return gputypes.ShaderStageNone, nil, fmt.Errorf("shader: wgsl: %w", err)
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return gputypes.ShaderStageNone, nil, fmt.Errorf("shader: wgsl: %w", err)
	}

	var ep *ir.EntryPoint
	for i := range mod.EntryPoints {
		if mod.EntryPoints[i].Name == entryPoint {
			ep = &mod.EntryPoints[i]
			break
		}
	}
	if ep == nil {
		return gputypes.ShaderStageNone, nil, fmt.Errorf("%w: %q", ErrEntryPointNotFound, entryPoint)
	}

	var stage gputypes.ShaderStage
	switch ep.Stage {
	case ir.StageVertex:
		stage = gputypes.ShaderStageVertex
	case ir.StageFragment:
		stage = gputypes.ShaderStageFragment
	default:
		return gputypes.ShaderStageNone, nil, fmt.Errorf("shader: entry point %q: %w", entryPoint, errors.ErrUnsupported)
	}

	r := reflector{mod: mod, stage: stage}
	for _, arg := range ep.Function.Arguments {
		r.add(arg.Name, arg.Type, arg.Binding, DirIn)
	}
	if res := ep.Function.Result; res != nil {
		r.add("", res.Type, res.Binding, DirOut)
	}
	for _, g := range mod.GlobalVariables {
		if g.Binding == nil || (g.Space != ir.SpaceUniform && g.Space != ir.SpaceHandle) {
			continue
		}
		typ := r.typeOf(g.Type)
		if typ == TypeInvalid {
			continue
		}
		r.decls = append(r.decls, Decl{
			Name:      g.Name,
			Direction: DirUniform,
			Set:       g.Binding.Group,
			Binding:   g.Binding.Binding,
			Type:      typ,
		})
	}
	return stage, r.decls, nil
}

type reflector struct {
	mod   *ir.Module
	stage gputypes.ShaderStage
	decls []Decl
}

func (r *reflector) add(name string, h ir.TypeHandle, b *ir.Binding, dir Direction) {
	if b == nil {
		st, ok := r.mod.Types[h].Inner.(ir.StructType)
		if !ok {
			return
		}
		for _, m := range st.Members {
			r.add(m.Name, m.Type, m.Binding, dir)
		}
		return
	}
	switch b := (*b).(type) {
	case ir.LocationBinding:
		r.decls = append(r.decls, Decl{
			Name:      name,
			Direction: dir,
			Location:  b.Location,
			Type:      r.typeOf(h),
		})
	case ir.BuiltinBinding:
		builtin := r.builtinName(b.Builtin)
		if builtin == "" {
			return
		}
		info, _ := LookupBuiltin(r.stage, builtin)
		r.decls = append(r.decls, Decl{
			Name:      name,
			Direction: DirBuiltin,
			Builtin:   builtin,
			Type:      info.Type,
		})
	}
}

func (r *reflector) builtinName(v ir.BuiltinValue) string {
	switch v {
	case ir.BuiltinPosition:
		if r.stage == gputypes.ShaderStageFragment {
			return FragCoord
		}
		return Position
	case ir.BuiltinVertexIndex:
		return VertexIndex
	case ir.BuiltinInstanceIndex:
		return InstanceIndex
	case ir.BuiltinFrontFacing:
		return FrontFacing
	case ir.BuiltinFragDepth:
		return FragDepth
	case ir.BuiltinPointSize:
		return PointSize
	}
	return ""
}

func (r *reflector) typeOf(h ir.TypeHandle) Type {
	if int(h) >= len(r.mod.Types) {
		return TypeInvalid
	}
	switch t := r.mod.Types[h].Inner.(type) {
	case ir.ScalarType:
		return scalarType(t)
	case ir.VectorType:
		if t.Scalar.Kind != ir.ScalarFloat {
			return TypeInvalid
		}
		switch t.Size {
		case ir.Vec2:
			return TypeVec2
		case ir.Vec3:
			return TypeVec3
		case ir.Vec4:
			return TypeVec4
		}
	case ir.MatrixType:
		if t.Columns == ir.Vec4 && t.Rows == ir.Vec4 && t.Scalar.Kind == ir.ScalarFloat {
			return TypeMat4
		}
	case ir.StructType:
		return TypeBlock
	case ir.ImageType:
		return TypeSampler2D
	}
	return TypeInvalid
}

func scalarType(t ir.ScalarType) Type {
	switch t.Kind {
	case ir.ScalarFloat:
		return TypeFloat
	case ir.ScalarSint:
		return TypeInt
	case ir.ScalarUint:
		return TypeUint
	case ir.ScalarBool:
		return TypeBool
	}
	return TypeInvalid
}

// CheckAgainst compares the descriptor with a reflected WGSL interface.
// Inputs and outputs match by location, uniforms by set and binding, and
// built-ins by name. Every mismatch is reported; a nil result means the two
// interfaces agree.
func (d *Descriptor) CheckAgainst(decls []Decl) []error {
	var errs []error
	used := make([]bool, len(d.fields))

	for _, decl := range decls {
		i := d.match(decl)
		if i < 0 {
			errs = append(errs, fmt.Errorf("%w: %s has no matching field", ErrInterfaceMismatch, decl))
			continue
		}
		used[i] = true
		f := d.fields[i]
		if decl.Direction != DirBuiltin && f.Type != decl.Type {
			errs = append(errs, fmt.Errorf("%w: field %q is %s, %s", ErrInterfaceMismatch, f.Name, f.Type, decl))
		}
	}
	for i, f := range d.fields {
		if f.Direction == DirNone || used[i] {
			continue
		}
		errs = append(errs, fmt.Errorf("%w: field %q is not declared in WGSL", ErrInterfaceMismatch, f.Name))
	}
	return errs
}

func (d *Descriptor) match(decl Decl) int {
	for i, f := range d.fields {
		if f.Direction != decl.Direction {
			continue
		}
		switch decl.Direction {
		case DirIn, DirOut:
			if f.Location == decl.Location {
				return i
			}
		case DirUniform:
			if f.Set == decl.Set && f.Binding == decl.Binding {
				return i
			}
		case DirBuiltin:
			if f.Name == decl.Builtin {
				return i
			}
		}
	}
	return -1
}
