package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Program is a shader stage implemented in Go.
//
// Interface lists the fields the pipeline reads and writes around each call
// to Main. It is called once, when the pipeline is created.
type Program interface {
	Interface() []Field
	Main()
}

// Validation errors returned by Describe.
var (
	ErrNilProgram     = errors.New("shader: nil program")
	ErrDuplicateField = errors.New("shader: duplicate field name")
	ErrNilPointer     = errors.New("shader: field has nil pointer")
	ErrInvalidBlock   = errors.New("shader: uniform block has no fixed size")
	ErrInvalidType    = errors.New("shader: invalid field type")
)

// Descriptor is the validated interface of one shader stage.
// It is immutable once created.
type Descriptor struct {
	stage   gputypes.ShaderStage
	program Program
	fields  []Field
	byName  map[string]int
}

// Describe validates the interface of p for the given stage.
func Describe(stage gputypes.ShaderStage, p Program) (*Descriptor, error) {
	if p == nil {
		return nil, ErrNilProgram
	}
	if stage != gputypes.ShaderStageVertex && stage != gputypes.ShaderStageFragment {
		return nil, fmt.Errorf("shader: stage %s: %w", stage, errors.ErrUnsupported)
	}

	fields := p.Interface()
	d := &Descriptor{
		stage:   stage,
		program: p,
		fields:  make([]Field, 0, len(fields)),
		byName:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if _, dup := d.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		if f.nilPtr || f.Ptr == nil {
			return nil, fmt.Errorf("%w: %q", ErrNilPointer, f.Name)
		}
		if f.Direction != DirNone {
			switch {
			case f.Type == TypeBlock && f.Size <= 0:
				return nil, fmt.Errorf("%w: %q", ErrInvalidBlock, f.Name)
			case f.Type == TypeInvalid || f.Type > TypeBlock:
				return nil, fmt.Errorf("%w: %q", ErrInvalidType, f.Name)
			}
		}
		d.byName[f.Name] = len(d.fields)
		d.fields = append(d.fields, f)
	}
	return d, nil
}

// Stage returns the shader stage.
func (d *Descriptor) Stage() gputypes.ShaderStage { return d.stage }

// Program returns the described program.
func (d *Descriptor) Program() Program { return d.program }

// Fields returns the fields in declaration order. The slice must not be
// modified.
func (d *Descriptor) Fields() []Field { return d.fields }

// Field returns the field called name.
func (d *Descriptor) Field(name string) (Field, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[i], true
}

// Reset zeroes every field of the program.
func (d *Descriptor) Reset() {
	for _, f := range d.fields {
		f.Reset()
	}
}
