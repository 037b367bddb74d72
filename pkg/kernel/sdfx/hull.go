package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// hexFaces lists the six faces of a hexahedron whose corners are indexed
// x + 2y + 4z, with x, y, z in {0, 1}.
var hexFaces = [6][3]int{
	{0, 1, 3}, // -z
	{4, 6, 7}, // +z
	{0, 4, 5}, // -y
	{2, 3, 7}, // +y
	{0, 2, 6}, // -x
	{1, 5, 7}, // +x
}

type plane struct {
	n spatial.Vector // outward unit normal
	d float64        // n.p for points p on the plane
}

// hull is a convex hexahedron bounded by six planes. Evaluate returns the
// largest signed plane distance, which bounds the true distance from below
// outside the solid and is exact inside.
type hull struct {
	planes [6]plane
	bb     sdf.Box3
}

// newHull builds the hexahedron with the given eight corners.
func newHull(corners []spatial.Vector) (sdf.SDF3, error) {
	if len(corners) != 8 {
		return nil, fmt.Errorf("hexahedron needs 8 corners, got %d", len(corners))
	}
	var centre spatial.Vector
	for _, c := range corners {
		centre = centre.Add(c)
	}
	centre = centre.Scale(1.0 / 8)

	h := &hull{}
	for i, f := range hexFaces {
		a, b, c := corners[f[0]], corners[f[1]], corners[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		l := n.Len()
		if l == 0 {
			return nil, fmt.Errorf("degenerate hexahedron face %d", i)
		}
		n = n.Scale(1 / l)
		if n.Dot(centre.Sub(a)) > 0 {
			n = n.Scale(-1)
		}
		h.planes[i] = plane{n: n, d: n.Dot(a)}
	}

	lo, hi := corners[0].Array(), corners[0].Array()
	for _, c := range corners[1:] {
		p := c.Array()
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	h.bb = sdf.Box3{
		Min: v3.Vec{X: lo[0], Y: lo[1], Z: lo[2]},
		Max: v3.Vec{X: hi[0], Y: hi[1], Z: hi[2]},
	}
	return h, nil
}

// Evaluate returns the signed distance estimate at p.
func (h *hull) Evaluate(p v3.Vec) float64 {
	q := spatial.Vec(p.X, p.Y, p.Z)
	d := math.Inf(-1)
	for _, pl := range h.planes {
		d = math.Max(d, pl.n.Dot(q)-pl.d)
	}
	return d
}

// BoundingBox returns the box spanned by the corners.
func (h *hull) BoundingBox() sdf.Box3 {
	return h.bb
}
