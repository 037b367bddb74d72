package shape

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/chazu/detgeo/pkg/volume"
)

// fullTurn is 360 degrees in radians.
const fullTurn = 2 * math.Pi

// Build converts a primitive volume into its solid. It is a pure function
// of the volume's fields. Boolean operations are built with Combine once
// their operands exist.
func Build(v *volume.Volume) (Solid, error) {
	p, ok := v.Kind.(volume.Primitive)
	if !ok {
		if _, isOp := v.Kind.(volume.Operation); isOp {
			return nil, &volume.ConfigurationError{Volume: v.Name, Reason: "boolean operation built without operands"}
		}
		return nil, &volume.ShapeKindError{Volume: v.Name, Kind: fmt.Sprint(v.Kind)}
	}
	d, err := v.BaseDims()
	if err != nil {
		return nil, err
	}
	n := named{name: v.Name + "_shape"}

	switch p {
	case volume.Box:
		return &Box{named: n, DX: d[0], DY: d[1], DZ: d[2]}, nil

	case volume.Tube:
		// A plain tube unless a real phi segment is requested.
		if len(d) == 3 || (d[0] <= 0 && d[4] >= fullTurn-1e-9) {
			return &Tube{named: n, RMin: d[0], RMax: d[1], DZ: d[2]}, nil
		}
		return &TubeSeg{named: n, RMin: d[0], RMax: d[1], DZ: d[2], PhiStart: d[3], PhiEnd: d[3] + d[4]}, nil

	case volume.Sphere:
		return &Sphere{named: n, RMin: d[0], RMax: d[1],
			PhiStart: d[2], PhiEnd: d[2] + d[3],
			ThetaStart: d[4], ThetaEnd: d[4] + d[5]}, nil

	case volume.Parallelepiped:
		return &Para{named: n, DX: d[0], DY: d[1], DZ: d[2], Alpha: d[3], Theta: d[4], Phi: d[5]}, nil

	case volume.Trd:
		return &Trd{named: n, DX1: d[0], DX2: d[1], DY1: d[2], DY2: d[3], DZ: d[4]}, nil

	case volume.Trap:
		return &Trap{named: n, DZ: d[0], Theta: d[1], Phi: d[2],
			H1: d[3], BL1: d[4], TL1: d[5], Alpha1: d[6],
			H2: d[7], BL2: d[8], TL2: d[9], Alpha2: d[10]}, nil

	case volume.EllipticalTube:
		return &EllipticalTube{named: n, DX: d[0], DY: d[1], DZ: d[2]}, nil

	case volume.Cone:
		// Input order is rmin1, rmax1, rmin2, rmax2, dz, sphi, dphi.
		return &ConeSeg{named: n, DZ: d[4],
			RMin1: d[0], RMax1: d[1], RMin2: d[2], RMax2: d[3],
			PhiStart: d[5], PhiEnd: d[5] + d[6]}, nil
	}
	return nil, &volume.ShapeKindError{Volume: v.Name, Kind: p.String()}
}

// Combine builds the boolean solid name from two operand solids. left sits
// at the composite origin and right is placed by rightPlacement.
func Combine(name string, op volume.Op, left, right Solid, rightPlacement spatial.Transform) (Solid, error) {
	switch op {
	case volume.Union, volume.Subtraction, volume.Intersection:
	default:
		return nil, &volume.ShapeKindError{Volume: name, Kind: op.String()}
	}
	if left == nil || right == nil {
		return nil, &volume.ConfigurationError{Volume: name, Reason: "boolean operand not built"}
	}
	return &Composite{
		named:          named{name: name + "_shape"},
		Op:             op,
		Left:           left,
		Right:          right,
		RightPlacement: rightPlacement,
	}, nil
}
