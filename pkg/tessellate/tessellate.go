// Package tessellate turns a placement result into triangle meshes. One
// mesh is produced per instantiated volume, in world coordinates.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/placement"
	"github.com/chazu/detgeo/pkg/spatial"
)

// Tessellate meshes every instantiated volume of res with m and moves the
// vertices into world coordinates. Components and placeholders produce no
// mesh. The result is read-only.
func Tessellate(res *placement.Result, m kernel.Mesher) ([]*kernel.Mesh, error) {
	if res == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, p := range res.Instantiated() {
		mesh, err := Volume(p, m)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Volume meshes one placed volume in world coordinates.
func Volume(p placement.Placed, m kernel.Mesher) (*kernel.Mesh, error) {
	if p.Solid == nil {
		return nil, fmt.Errorf("tessellate: %s has no solid", p.Name)
	}
	mesh, err := m.Mesh(p.Solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: mesh failed for %s: %w", p.Name, err)
	}
	mesh.Transform(p.World)
	mesh.Volume = p.Name
	return mesh, nil
}

// Bounds returns the axis-aligned extent of a set of meshes.
func Bounds(meshes []*kernel.Mesh) (min, max spatial.Vector, ok bool) {
	for _, m := range meshes {
		lo, hi, found := m.Bounds()
		if !found {
			continue
		}
		if !ok {
			min, max, ok = lo, hi, true
			continue
		}
		min = spatial.Vec(math.Min(min.X(), lo.X()), math.Min(min.Y(), lo.Y()), math.Min(min.Z(), lo.Z()))
		max = spatial.Vec(math.Max(max.X(), hi.X()), math.Max(max.Y(), hi.Y()), math.Max(max.Z(), hi.Z()))
	}
	return min, max, ok
}
