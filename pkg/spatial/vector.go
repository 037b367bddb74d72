// Package spatial provides the vector and rotation algebra used to place
// volumes: elemental-axis rotation builders, composition, and the two
// angle decompositions (active "XYZ" and passive "G4XYZ").
//
// All lengths are centimetres and all angles are radians.
package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector is an immutable 3-D point or displacement in centimetres.
type Vector struct {
	v mgl64.Vec3
}

// Vec returns the vector (x, y, z).
func Vec(x, y, z float64) Vector {
	return Vector{v: mgl64.Vec3{x, y, z}}
}

func (a Vector) X() float64 { return a.v[0] }
func (a Vector) Y() float64 { return a.v[1] }
func (a Vector) Z() float64 { return a.v[2] }

// Array returns the components as a plain array.
func (a Vector) Array() [3]float64 {
	return [3]float64{a.v[0], a.v[1], a.v[2]}
}

// Add returns a + b.
func (a Vector) Add(b Vector) Vector {
	return Vector{v: a.v.Add(b.v)}
}

// Sub returns a - b.
func (a Vector) Sub(b Vector) Vector {
	return Vector{v: a.v.Sub(b.v)}
}

// Scale returns a scaled by s.
func (a Vector) Scale(s float64) Vector {
	return Vector{v: a.v.Mul(s)}
}

// Len returns the Euclidean length.
func (a Vector) Len() float64 {
	return a.v.Len()
}

// IsZero reports whether all components are exactly zero.
func (a Vector) IsZero() bool {
	return a.v[0] == 0 && a.v[1] == 0 && a.v[2] == 0
}

// Dot returns the scalar product a.b.
func (a Vector) Dot(b Vector) float64 {
	return a.v.Dot(b.v)
}

// Cross returns the vector product a x b.
func (a Vector) Cross(b Vector) Vector {
	return Vector{v: a.v.Cross(b.v)}
}

// ApproxEqual reports whether every component differs by at most tol.
func (a Vector) ApproxEqual(b Vector, tol float64) bool {
	return a.v.ApproxFuncEqual(b.v, within(tol))
}

// within is an absolute-difference comparison. mgl64's threshold helpers
// are relative, which rejects rounding noise next to zero.
func within(tol float64) func(a, b float64) bool {
	return func(a, b float64) bool { return math.Abs(a-b) <= tol }
}

func (a Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", a.v[0], a.v[1], a.v[2])
}
