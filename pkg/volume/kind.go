package volume

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chazu/detgeo/pkg/units"
)

// ShapeKind is the parsed shape tag of a volume: either a Primitive or an
// Operation.
type ShapeKind interface {
	shapeKind() // marker method restricting implementations to this package
	String() string
}

// Primitive enumerates the solid primitives.
type Primitive int

const (
	Box            Primitive = iota // 3 half-widths
	Tube                            // rmin, rmax, half-z [, sphi, dphi]
	Sphere                          // rmin, rmax, sphi, dphi, stheta, dtheta
	Parallelepiped                  // 3 half-widths, alpha, theta, phi
	Trd                             // x at -z, x at +z, y at -z, y at +z, half-z
	Trap                            // general trapezoid, 11 parameters
	EllipticalTube                  // semi-axes x, y, half-z
	Cone                            // rmin1, rmax1, rmin2, rmax2, half-z, sphi, dphi
)

func (Primitive) shapeKind() {}

func (p Primitive) String() string {
	switch p {
	case Box:
		return "Box"
	case Tube:
		return "Tube"
	case Sphere:
		return "Sphere"
	case Parallelepiped:
		return "Parallelepiped"
	case Trd:
		return "Trd"
	case Trap:
		return "G4Trap"
	case EllipticalTube:
		return "Eltu"
	case Cone:
		return "Cons"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

const (
	lng = units.Length
	ang = units.Angle
)

// layouts lists the dimension categories of each primitive, in argument
// order. Tube also accepts its first three entries alone.
var layouts = map[Primitive][]units.Category{
	Box:            {lng, lng, lng},
	Tube:           {lng, lng, lng, ang, ang},
	Sphere:         {lng, lng, ang, ang, ang, ang},
	Parallelepiped: {lng, lng, lng, ang, ang, ang},
	Trd:            {lng, lng, lng, lng, lng},
	Trap:           {lng, ang, ang, lng, lng, lng, ang, lng, lng, lng, ang},
	EllipticalTube: {lng, lng, lng},
	Cone:           {lng, lng, lng, lng, lng, ang, ang},
}

// Layout returns the dimension categories for n dimensions, or an error
// if n is not a valid arity for p.
func (p Primitive) Layout(n int) ([]units.Category, error) {
	cats, ok := layouts[p]
	if !ok {
		return nil, fmt.Errorf("unknown primitive %v", p)
	}
	if p == Tube && n == 3 {
		return cats[:3], nil
	}
	if n != len(cats) {
		if p == Tube {
			return nil, fmt.Errorf("%v takes 3 or 5 dimensions, got %d", p, n)
		}
		return nil, fmt.Errorf("%v takes %d dimensions, got %d", p, len(cats), n)
	}
	return cats, nil
}

var primitiveNames = map[string]Primitive{
	"Box":            Box,
	"Tube":           Tube,
	"Sphere":         Sphere,
	"Parallelepiped": Parallelepiped,
	"Trd":            Trd,
	"Trap":           Trap,
	"G4Trap":         Trap,
	"EllipticalTube": EllipticalTube,
	"Eltu":           EllipticalTube,
	"Cone":           Cone,
	"Cons":           Cone,
}

// Op is a boolean solid operator.
type Op byte

const (
	Union        Op = '+'
	Subtraction  Op = '-'
	Intersection Op = '*'
)

func (o Op) String() string {
	switch o {
	case Union:
		return "union"
	case Subtraction:
		return "subtraction"
	case Intersection:
		return "intersection"
	default:
		return fmt.Sprintf("Op(%q)", byte(o))
	}
}

// Marker is the optional prefix of an operation.
type Marker byte

const (
	NoMarker       Marker = 0
	Tilde          Marker = '~'
	MotherRelative Marker = '@'
)

// Operation is a boolean combination of two named volumes.
type Operation struct {
	Marker Marker
	Left   string
	Op     Op
	Right  string
}

func (Operation) shapeKind() {}

// String renders the operation in tag form.
func (o Operation) String() string {
	var b strings.Builder
	b.WriteString(operationPrefix)
	if o.Marker != NoMarker {
		b.WriteByte(byte(o.Marker))
	}
	b.WriteString(o.Left)
	b.WriteByte(' ')
	b.WriteByte(byte(o.Op))
	b.WriteByte(' ')
	b.WriteString(o.Right)
	return b.String()
}

// IsMotherRelative reports whether the right operand is positioned
// relative to the left one.
func (o Operation) IsMotherRelative() bool {
	return o.Marker == MotherRelative
}

const operationPrefix = "Operation:"

var operationPattern = regexp.MustCompile(`^Operation:\s*([~@])?\s*(\w+)\s*([-+*])\s*(\w+)\s*$`)

// ParseKind parses a shape tag.
func ParseKind(tag string) (ShapeKind, error) {
	tag = strings.TrimSpace(tag)
	if p, ok := primitiveNames[tag]; ok {
		return p, nil
	}
	if !strings.HasPrefix(tag, operationPrefix) {
		return nil, &ShapeKindError{Kind: tag}
	}
	m := operationPattern.FindStringSubmatch(tag)
	if m == nil {
		return nil, &ShapeKindError{Kind: tag}
	}
	op := Operation{Left: m[2], Op: Op(m[3][0]), Right: m[4]}
	if m[1] != "" {
		op.Marker = Marker(m[1][0])
	}
	return op, nil
}

// MustParseKind is like ParseKind but panics on error.
func MustParseKind(tag string) ShapeKind {
	k, err := ParseKind(tag)
	if err != nil {
		panic(err)
	}
	return k
}
