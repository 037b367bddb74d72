// Package volume holds the detector description data model: volume
// records, the ordered volume tree, the per-subsystem Detector that owns
// them, and structural validation.
package volume

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/chazu/detgeo/pkg/units"
)

const (
	// RootMother is the conventional mother of top-level volumes.
	RootMother = "root"

	// ComponentMaterial marks a volume that exists only as a boolean
	// operand and is never instantiated.
	ComponentMaterial = "Component"

	// DefaultRMin and DefaultRMax fill the optional trailing fields.
	DefaultRMin = 1
	DefaultRMax = 100000

	// outlineMinTransparency is the floor applied to outline-style volumes.
	outlineMinTransparency = 70
)

// Volume is one named placed solid.
type Volume struct {
	Name        string
	Mother      string
	Description string
	Pos         units.Measure
	Rot         units.Measure
	Color       string // rrggbb with an optional transparency digit in tenths
	Kind        ShapeKind
	Dims        units.Measure
	Material    string
	MagField    string
	NCopy       int
	PMany       int
	Exist       bool
	Visible     bool
	Solid       bool // false draws the outline only
	Sensitivity string
	HitType     string
	Identity    string
	RMin        int
	RMax        int
}

// New returns a volume with the catalog defaults: placed at the origin of
// root, unrotated, existing, visible and solid, not sensitive.
func New(name string, kind ShapeKind, dims units.Measure, material string) *Volume {
	return &Volume{
		Name:        name,
		Mother:      RootMother,
		Pos:         units.New([]float64{0, 0, 0}, "cm"),
		Rot:         units.New([]float64{0, 0, 0}, "deg"),
		Color:       "000000",
		Kind:        kind,
		Dims:        dims,
		Material:    material,
		MagField:    "no",
		NCopy:       1,
		PMany:       1,
		Exist:       true,
		Visible:     true,
		Solid:       true,
		Sensitivity: "no",
		HitType:     "no",
		Identity:    "no",
		RMin:        DefaultRMin,
		RMax:        DefaultRMax,
	}
}

// TestCube returns a 1 mm red vacuum cube under root at pos (cm), for
// checking placements by eye.
func TestCube(pos spatial.Vector) *Volume {
	v := New("Test_Cube", Box, units.New([]float64{0.1, 0.1, 0.1}, "cm"), "Vacuum")
	v.Description = "Test Cube"
	v.Pos = units.New([]float64{pos.X(), pos.Y(), pos.Z()}, "cm")
	v.Rot = units.New([]float64{0, 0, 90}, "deg")
	v.Color = "ff0000"
	return v
}

// IsComponent reports whether the volume is a boolean operand only.
func (v *Volume) IsComponent() bool {
	return v.Material == ComponentMaterial
}

// Operation returns the boolean operation, if the volume is one.
func (v *Volume) Operation() (Operation, bool) {
	op, ok := v.Kind.(Operation)
	return op, ok
}

// Position returns the position in centimetres.
func (v *Volume) Position() (spatial.Vector, error) {
	p, err := v.triple(v.Pos, "pos", units.Length)
	if err != nil {
		return spatial.Vector{}, err
	}
	return spatial.Vec(p[0], p[1], p[2]), nil
}

// Rotation returns the local rotation built from the rot angles as
// successive X, Y, Z elemental rotations.
func (v *Volume) Rotation() (spatial.Rotation, error) {
	a, err := v.triple(v.Rot, "rot", units.Angle)
	if err != nil {
		return spatial.Rotation{}, err
	}
	return spatial.Identity().RotateX(a[0]).RotateY(a[1]).RotateZ(a[2]), nil
}

// BaseDims returns the dimensions in base units, checked against the
// primitive's arity and the category of every entry.
func (v *Volume) BaseDims() ([]float64, error) {
	p, ok := v.Kind.(Primitive)
	if !ok {
		return nil, configErr(v.Name, fmt.Sprintf("%v has no primitive dimensions", v.Kind))
	}
	cats, err := p.Layout(v.Dims.Len())
	if err != nil {
		return nil, configErr(v.Name, err.Error())
	}
	out, err := v.Dims.Base(cats)
	if err != nil {
		return nil, fieldErr(v.Name, "dims", err)
	}
	return out, nil
}

func (v *Volume) triple(m units.Measure, field string, cat units.Category) ([]float64, error) {
	if m.Len() != 3 {
		return nil, &ConfigurationError{Volume: v.Name, Reason: fmt.Sprintf("%s needs 3 values, got %d", field, m.Len())}
	}
	out, err := m.Base(units.Uniform(cat, 3))
	if err != nil {
		return nil, fieldErr(v.Name, field, err)
	}
	return out, nil
}

// fieldErr tags a units error with the volume and field it came from.
func fieldErr(vol, field string, err error) error {
	var ume *units.UnitMismatchError
	if errors.As(err, &ume) && ume.Field == "" {
		ume.Field = vol + "." + field
	}
	return fmt.Errorf("volume %q: %s: %w", vol, field, err)
}

// RGB returns the colour without its transparency digit.
func (v *Volume) RGB() string {
	c := strings.TrimPrefix(v.Color, "#")
	if len(c) > 6 {
		return c[:6]
	}
	return c
}

// Transparency returns the transparency in percent. The optional seventh
// colour digit gives tenths; outline volumes are at least 70 percent
// transparent.
func (v *Volume) Transparency() int {
	c := strings.TrimPrefix(v.Color, "#")
	t := 0
	if len(c) == 7 {
		if d, err := strconv.Atoi(c[6:]); err == nil {
			t = d * 10
		}
	}
	if !v.Solid && t < outlineMinTransparency {
		t = outlineMinTransparency
	}
	return t
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	cp := *v
	cp.Pos = cloneMeasure(v.Pos)
	cp.Rot = cloneMeasure(v.Rot)
	cp.Dims = cloneMeasure(v.Dims)
	return &cp
}

func cloneMeasure(m units.Measure) units.Measure {
	return units.Measure{
		Values: append([]float64(nil), m.Values...),
		Units:  append([]string(nil), m.Units...),
	}
}
