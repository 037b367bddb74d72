package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// gimbalEpsilon is the threshold on cos(y) below which a decomposition is
// treated as gimbal locked.
const gimbalEpsilon = 1e-9

// Rotation is a 3x3 orthonormal matrix describing an active rotation.
// The zero value is not a valid rotation; use Identity.
type Rotation struct {
	m mgl64.Mat3
}

// Identity returns the identity rotation.
func Identity() Rotation {
	return Rotation{m: mgl64.Ident3()}
}

// At returns the element at row, col.
func (r Rotation) At(row, col int) float64 {
	return r.m.At(row, col)
}

// Mul returns r*o; o is applied first.
func (r Rotation) Mul(o Rotation) Rotation {
	return Rotation{m: r.m.Mul3(o.m)}
}

// Apply rotates v.
func (r Rotation) Apply(v Vector) Vector {
	return Vector{v: r.m.Mul3x1(v.v)}
}

// Inverse returns the inverse rotation (the transpose).
func (r Rotation) Inverse() Rotation {
	return Rotation{m: r.m.Transpose()}
}

// Det returns the determinant. It is 1 within rounding for every rotation
// produced by this package.
func (r Rotation) Det() float64 {
	return r.m.Det()
}

// RotateX returns Rx(angle)*r, so chained calls apply in written order.
func (r Rotation) RotateX(angle float64) Rotation {
	return Rotation{m: mgl64.Rotate3DX(angle).Mul3(r.m)}
}

// RotateY returns Ry(angle)*r.
func (r Rotation) RotateY(angle float64) Rotation {
	return Rotation{m: mgl64.Rotate3DY(angle).Mul3(r.m)}
}

// RotateZ returns Rz(angle)*r.
func (r Rotation) RotateZ(angle float64) Rotation {
	return Rotation{m: mgl64.Rotate3DZ(angle).Mul3(r.m)}
}

// IsIdentity reports whether r is the identity within tol.
func (r Rotation) IsIdentity(tol float64) bool {
	return r.ApproxEqual(Identity(), tol)
}

// ApproxEqual reports whether every element differs by at most tol.
func (r Rotation) ApproxEqual(o Rotation, tol float64) bool {
	return r.m.ApproxFuncEqual(o.m, within(tol))
}

func (r Rotation) String() string {
	return fmt.Sprintf("[[%g %g %g] [%g %g %g] [%g %g %g]]",
		r.At(0, 0), r.At(0, 1), r.At(0, 2),
		r.At(1, 0), r.At(1, 1), r.At(1, 2),
		r.At(2, 0), r.At(2, 1), r.At(2, 2))
}

// Angles is an ordered (x, y, z) triple of elemental rotation angles.
type Angles struct {
	X, Y, Z float64

	// GimbalLock is set when the decomposition hit the |y| = 90 degree
	// boundary. Z is then fixed at zero and the triple is not unique.
	GimbalLock bool
}

// Degrees returns the triple converted to degrees.
func (a Angles) Degrees() [3]float64 {
	return [3]float64{a.X * 180 / math.Pi, a.Y * 180 / math.Pi, a.Z * 180 / math.Pi}
}

// ComposeActive rebuilds the rotation whose active decomposition is a:
// X applied first, then Y, then Z.
func ComposeActive(a Angles) Rotation {
	return Identity().RotateX(a.X).RotateY(a.Y).RotateZ(a.Z)
}

// ComposePassive rebuilds the rotation whose passive decomposition is a.
func ComposePassive(a Angles) Rotation {
	return Identity().RotateZ(-a.Z).RotateY(-a.Y).RotateX(-a.X)
}

// DecomposeActive returns angles such that ComposeActive reproduces r.
func (r Rotation) DecomposeActive() Angles {
	m := func(i, j int) float64 { return r.m.At(i, j) }

	cy := math.Hypot(m(0, 0), m(1, 0))
	if cy < gimbalEpsilon {
		// y is +-90 degrees; only x-z (or x+z) is recoverable.
		if m(2, 0) < 0 {
			return Angles{X: math.Atan2(m(0, 1), m(1, 1)), Y: math.Pi / 2, GimbalLock: true}
		}
		return Angles{X: math.Atan2(-m(0, 1), m(1, 1)), Y: -math.Pi / 2, GimbalLock: true}
	}

	return Angles{
		X: math.Atan2(m(2, 1), m(2, 2)),
		Y: math.Atan2(-m(2, 0), cy),
		Z: math.Atan2(m(1, 0), m(0, 0)),
	}
}

// DecomposePassive returns the active decomposition of the inverse
// rotation, the convention of rotate-then-place consumers.
func (r Rotation) DecomposePassive() Angles {
	return r.Inverse().DecomposeActive()
}
