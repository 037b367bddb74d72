package shape

import (
	"fmt"
	"math"
)

// TrapezoidFit is the placement and size of a trapezoid fitted between two
// edge lines.
type TrapezoidFit struct {
	CX, CZ   float64 // centre in the x-z plane
	Theta    float64 // skew of the centre line relative to z
	DX1, DX2 float64 // half-widths at the front and back faces
}

// FitTrapezoid computes the trapezoid whose front face sits at z=front and
// whose back face is depth further along z, bounded on low x by the line
// through (p1x, p1z) at angle theta1 to z and on high x by the line through
// (p2x, p2z) at angle theta2. It returns an error if the edges cross inside
// the trapezoid.
func FitTrapezoid(front, depth, p1x, p1z, theta1, p2x, p2z, theta2 float64) (TrapezoidFit, error) {
	z1 := front
	z2 := front + depth
	t1, t2 := math.Tan(theta1), math.Tan(theta2)

	dx1 := ((p2x - p1x) - (z1-p1z)*t1 + (z1-p2z)*t2) / 2
	dx2 := ((p2x - p1x) - (z2-p1z)*t1 + (z2-p2z)*t2) / 2

	mid := (z1 + z2) / 2
	lowX := p1x + (mid-p1z)*t1
	highX := p2x + (mid-p2z)*t2

	c1x := p2x + (z1-p2z)*t2 - dx1
	c2x := p2x + (z2-p2z)*t2 - dx2

	fit := TrapezoidFit{
		CX:    (c1x + c2x) / 2,
		CZ:    front + depth/2,
		Theta: math.Atan2(c2x-c1x, depth),
		DX1:   dx1,
		DX2:   dx2,
	}
	if dx1 <= 0 || dx2 <= 0 || lowX > highX {
		return fit, fmt.Errorf("trapezoid: degenerate fit (dx1=%g dx2=%g, low edge %g above high edge %g at z=%g)",
			dx1, dx2, lowX, highX, mid)
	}
	return fit, nil
}
