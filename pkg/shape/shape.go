// Package shape converts volume records into solid descriptions: the
// primitive parameters in base units (cm, rad) in the argument order scene
// backends expect, plus boolean composites of two solids.
package shape

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/chazu/detgeo/pkg/volume"
)

// Solid is a built solid description. Implementations are the types in
// this package.
type Solid interface {
	Name() string
	// Bounds returns a conservative axis-aligned box in the solid's frame.
	Bounds() (min, max spatial.Vector)
	solid()
}

type named struct{ name string }

func (n named) Name() string { return n.name }
func (named) solid()         {}

// Box has three half-widths.
type Box struct {
	named
	DX, DY, DZ float64
}

func (b *Box) Bounds() (spatial.Vector, spatial.Vector) {
	return spatial.Vec(-b.DX, -b.DY, -b.DZ), spatial.Vec(b.DX, b.DY, b.DZ)
}

// Tube is a full cylindrical shell.
type Tube struct {
	named
	RMin, RMax, DZ float64
}

func (t *Tube) Bounds() (spatial.Vector, spatial.Vector) {
	return spatial.Vec(-t.RMax, -t.RMax, -t.DZ), spatial.Vec(t.RMax, t.RMax, t.DZ)
}

// TubeSeg is a cylindrical shell limited in phi.
type TubeSeg struct {
	named
	RMin, RMax, DZ float64
	PhiStart       float64
	PhiEnd         float64
}

// Full reports whether the segment spans a whole turn.
func (t *TubeSeg) Full() bool {
	return t.PhiEnd-t.PhiStart >= 2*math.Pi-1e-12
}

func (t *TubeSeg) Bounds() (spatial.Vector, spatial.Vector) {
	return spatial.Vec(-t.RMax, -t.RMax, -t.DZ), spatial.Vec(t.RMax, t.RMax, t.DZ)
}

// Sphere is a spherical shell section.
type Sphere struct {
	named
	RMin, RMax           float64
	PhiStart, PhiEnd     float64
	ThetaStart, ThetaEnd float64
}

func (s *Sphere) Bounds() (spatial.Vector, spatial.Vector) {
	return spatial.Vec(-s.RMax, -s.RMax, -s.RMax), spatial.Vec(s.RMax, s.RMax, s.RMax)
}

// Para is a parallelepiped: half-widths and the alpha, theta, phi skew
// angles.
type Para struct {
	named
	DX, DY, DZ        float64
	Alpha, Theta, Phi float64
}

// Vertices returns the eight corners.
func (p *Para) Vertices() []spatial.Vector {
	tx := math.Tan(p.Theta) * math.Cos(p.Phi)
	ty := math.Tan(p.Theta) * math.Sin(p.Phi)
	ta := math.Tan(p.Alpha)
	var out []spatial.Vector
	for _, z := range []float64{-p.DZ, p.DZ} {
		for _, y := range []float64{-p.DY, p.DY} {
			for _, x := range []float64{-p.DX, p.DX} {
				out = append(out, spatial.Vec(x+y*ta+z*tx, y+z*ty, z))
			}
		}
	}
	return out
}

func (p *Para) Bounds() (spatial.Vector, spatial.Vector) {
	return extent(p.Vertices())
}

// Trd is a trapezoid with x and y half-widths at -z and +z.
type Trd struct {
	named
	DX1, DX2, DY1, DY2, DZ float64
}

func (t *Trd) Bounds() (spatial.Vector, spatial.Vector) {
	x := math.Max(t.DX1, t.DX2)
	y := math.Max(t.DY1, t.DY2)
	return spatial.Vec(-x, -y, -t.DZ), spatial.Vec(x, y, t.DZ)
}

// Trap is the general trapezoid: half-length, polar and azimuthal angles
// of the axis, then half-height, half-widths at low and high y and skew
// angle for the -z and +z faces.
type Trap struct {
	named
	DZ, Theta, Phi       float64
	H1, BL1, TL1, Alpha1 float64
	H2, BL2, TL2, Alpha2 float64
}

// Vertices returns the eight corners, -z face first.
func (t *Trap) Vertices() []spatial.Vector {
	tx := math.Tan(t.Theta) * math.Cos(t.Phi)
	ty := math.Tan(t.Theta) * math.Sin(t.Phi)
	face := func(z, h, bl, tl, alpha float64) []spatial.Vector {
		ta := math.Tan(alpha)
		cx, cy := z*tx, z*ty
		return []spatial.Vector{
			spatial.Vec(cx-h*ta-bl, cy-h, z),
			spatial.Vec(cx-h*ta+bl, cy-h, z),
			spatial.Vec(cx+h*ta-tl, cy+h, z),
			spatial.Vec(cx+h*ta+tl, cy+h, z),
		}
	}
	return append(face(-t.DZ, t.H1, t.BL1, t.TL1, t.Alpha1), face(t.DZ, t.H2, t.BL2, t.TL2, t.Alpha2)...)
}

func (t *Trap) Bounds() (spatial.Vector, spatial.Vector) {
	return extent(t.Vertices())
}

// EllipticalTube has two semi-axes and a half-length.
type EllipticalTube struct {
	named
	DX, DY, DZ float64
}

func (e *EllipticalTube) Bounds() (spatial.Vector, spatial.Vector) {
	return spatial.Vec(-e.DX, -e.DY, -e.DZ), spatial.Vec(e.DX, e.DY, e.DZ)
}

// ConeSeg is a conical shell section. Radii 1 are at -z, radii 2 at +z.
type ConeSeg struct {
	named
	DZ               float64
	RMin1, RMax1     float64
	RMin2, RMax2     float64
	PhiStart, PhiEnd float64
}

func (c *ConeSeg) Bounds() (spatial.Vector, spatial.Vector) {
	r := math.Max(c.RMax1, c.RMax2)
	return spatial.Vec(-r, -r, -c.DZ), spatial.Vec(r, r, c.DZ)
}

// Composite is a boolean combination. Left sits at the composite origin;
// Right is placed by RightPlacement.
type Composite struct {
	named
	Op             volume.Op
	Left, Right    Solid
	RightPlacement spatial.Transform
}

func (c *Composite) Bounds() (spatial.Vector, spatial.Vector) {
	lmin, lmax := c.Left.Bounds()
	rmin, rmax := TransformBounds(c.Right, c.RightPlacement)
	switch c.Op {
	case volume.Union:
		return vmin(lmin, rmin), vmax(lmax, rmax)
	case volume.Intersection:
		lo, hi := vmax(lmin, rmin), vmin(lmax, rmax)
		// Disjoint operands leave an empty solid; collapse to a point.
		for i := 0; i < 3; i++ {
			if lo.Array()[i] > hi.Array()[i] {
				return spatial.Vector{}, spatial.Vector{}
			}
		}
		return lo, hi
	default:
		return lmin, lmax
	}
}

// TransformBounds returns the bounds of s after placement by t.
func TransformBounds(s Solid, t spatial.Transform) (spatial.Vector, spatial.Vector) {
	lo, hi := s.Bounds()
	a, b := lo.Array(), hi.Array()
	var corners []spatial.Vector
	for _, x := range []float64{a[0], b[0]} {
		for _, y := range []float64{a[1], b[1]} {
			for _, z := range []float64{a[2], b[2]} {
				corners = append(corners, t.Apply(spatial.Vec(x, y, z)))
			}
		}
	}
	return extent(corners)
}

func extent(pts []spatial.Vector) (spatial.Vector, spatial.Vector) {
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo, hi = vmin(lo, p), vmax(hi, p)
	}
	return lo, hi
}

func vmin(a, b spatial.Vector) spatial.Vector {
	return spatial.Vec(math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()), math.Min(a.Z(), b.Z()))
}

func vmax(a, b spatial.Vector) spatial.Vector {
	return spatial.Vec(math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()), math.Max(a.Z(), b.Z()))
}

// Describe renders a solid and its parameters on one line.
func Describe(s Solid) string {
	switch v := s.(type) {
	case *Box:
		return fmt.Sprintf("Box(%g, %g, %g)", v.DX, v.DY, v.DZ)
	case *Tube:
		return fmt.Sprintf("Tube(%g, %g, %g)", v.RMin, v.RMax, v.DZ)
	case *TubeSeg:
		return fmt.Sprintf("TubeSeg(%g, %g, %g, %g, %g)", v.RMin, v.RMax, v.DZ, v.PhiStart, v.PhiEnd)
	case *Sphere:
		return fmt.Sprintf("Sphere(%g, %g, %g, %g, %g, %g)", v.RMin, v.RMax, v.PhiStart, v.PhiEnd, v.ThetaStart, v.ThetaEnd)
	case *Para:
		return fmt.Sprintf("Para(%g, %g, %g, %g, %g, %g)", v.DX, v.DY, v.DZ, v.Alpha, v.Theta, v.Phi)
	case *Trd:
		return fmt.Sprintf("Trd(%g, %g, %g, %g, %g)", v.DX1, v.DX2, v.DY1, v.DY2, v.DZ)
	case *Trap:
		return fmt.Sprintf("Trap(%g, %g, %g, %g, %g, %g, %g, %g, %g, %g, %g)",
			v.DZ, v.Theta, v.Phi, v.H1, v.BL1, v.TL1, v.Alpha1, v.H2, v.BL2, v.TL2, v.Alpha2)
	case *EllipticalTube:
		return fmt.Sprintf("Eltu(%g, %g, %g)", v.DX, v.DY, v.DZ)
	case *ConeSeg:
		return fmt.Sprintf("ConeSeg(%g, %g, %g, %g, %g, %g, %g)", v.DZ, v.RMin1, v.RMax1, v.RMin2, v.RMax2, v.PhiStart, v.PhiEnd)
	case *Composite:
		return fmt.Sprintf("%s(%s, %s)", v.Op, v.Left.Name(), v.Right.Name())
	default:
		return fmt.Sprintf("%T", s)
	}
}
