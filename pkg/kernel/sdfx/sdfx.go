// Package sdfx implements kernel.Backend and kernel.Mesher using the
// github.com/deadsy/sdfx SDF-based CAD library. Every instantiated volume
// keeps its realized SDF and world transform, so the scene can be meshed
// per volume or written out as STL.
package sdfx

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/chazu/detgeo/pkg/volume"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Backend = (*Backend)(nil)
	_ kernel.Mesher  = (*Backend)(nil)
)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// wedgeStep is the largest arc step, in radians, of a phi wedge outline.
const wedgeStep = math.Pi / 36

type medium struct{ name string }

func (m *medium) MediumName() string { return m.name }

type node struct {
	name   string
	parent *node
	solid  shape.Solid
	sdf    sdf.SDF3
	world  spatial.Transform
}

func (n *node) NodeName() string { return n.name }

// Backend realizes placed solids as SDFs. It is not safe for concurrent
// use.
type Backend struct {
	cells int
	media map[string]*medium
	world *node
	nodes []*node
}

// Option configures a Backend.
type Option func(*Backend)

// WithMeshCells sets the marching cubes resolution along the longest axis.
func WithMeshCells(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.cells = n
		}
	}
}

// New returns an empty sdfx backend.
func New(opts ...Option) *Backend {
	b := &Backend{cells: defaultMeshCells, media: make(map[string]*medium)}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Medium returns the shared medium for material.
func (b *Backend) Medium(material string, transparency int) (kernel.Medium, error) {
	if material == "" {
		return nil, errors.New("sdfx: empty material")
	}
	name := kernel.MediumName(material, transparency)
	if m, ok := b.media[name]; ok {
		return m, nil
	}
	m := &medium{name: name}
	b.media[name] = m
	return m, nil
}

// Top creates the world box.
func (b *Backend) Top(m kernel.Medium, halfSize spatial.Vector) (kernel.Node, error) {
	if b.world != nil {
		return nil, errors.New("sdfx: world volume already created")
	}
	s, err := sdf.Box3D(toV3(halfSize.Scale(2)), 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: world: %w", err)
	}
	b.world = &node{name: "world", sdf: s, world: spatial.IdentityTransform()}
	return b.world, nil
}

// AddChild realizes s and records it under parent.
func (b *Backend) AddChild(parent kernel.Node, name string, s shape.Solid, m kernel.Medium, local spatial.Transform) (kernel.Node, error) {
	p, ok := parent.(*node)
	if !ok || p == nil {
		return nil, fmt.Errorf("sdfx: %s: parent %v is not an sdfx node", name, parent)
	}
	if _, ok := m.(*medium); !ok {
		return nil, fmt.Errorf("sdfx: %s: medium %v is not an sdfx medium", name, m)
	}
	realized, err := Realize(s)
	if err != nil {
		return nil, fmt.Errorf("sdfx: %s: %w", name, err)
	}
	n := &node{name: name, parent: p, solid: s, sdf: realized, world: p.world.Compose(local)}
	b.nodes = append(b.nodes, n)
	return n, nil
}

// Names returns the instantiated volume names in placement order.
func (b *Backend) Names() []string {
	out := make([]string, len(b.nodes))
	for i, n := range b.nodes {
		out[i] = n.name
	}
	return out
}

// WorldSDF returns the named volume's solid placed in world coordinates.
func (b *Backend) WorldSDF(name string) (sdf.SDF3, error) {
	for _, n := range b.nodes {
		if n.name == name {
			return sdf.Transform3D(n.sdf, matrix(n.world)), nil
		}
	}
	return nil, fmt.Errorf("sdfx: no volume %q", name)
}

// Mesh converts a solid in its own frame to a triangle mesh.
func (b *Backend) Mesh(s shape.Solid) (*kernel.Mesh, error) {
	realized, err := Realize(s)
	if err != nil {
		return nil, err
	}
	mesh := b.toMesh(realized)
	mesh.Volume = s.Name()
	return mesh, nil
}

// MeshVolume meshes an instantiated volume in world coordinates.
func (b *Backend) MeshVolume(name string) (*kernel.Mesh, error) {
	s, err := b.WorldSDF(name)
	if err != nil {
		return nil, err
	}
	mesh := b.toMesh(s)
	mesh.Volume = name
	return mesh, nil
}

// WriteSTL writes the union of the named volumes, or of every volume when
// names is empty, to path.
func (b *Backend) WriteSTL(path string, names ...string) error {
	if len(names) == 0 {
		names = b.Names()
	}
	if len(names) == 0 {
		return errors.New("sdfx: no volumes to write")
	}
	sort.Strings(names)
	var parts []sdf.SDF3
	for _, name := range names {
		s, err := b.WorldSDF(name)
		if err != nil {
			return err
		}
		parts = append(parts, s)
	}
	render.ToSTL(sdf.Union3D(parts...), path, render.NewMarchingCubesOctree(b.cells))
	return nil
}

func (b *Backend) toMesh(s sdf.SDF3) *kernel.Mesh {
	renderer := render.NewMarchingCubesUniform(b.cells)
	triangles := render.ToTriangles(s, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}
	return &kernel.Mesh{Vertices: vertices, Normals: normals, Indices: indices}
}

// Realize converts a solid into an SDF in the solid's own frame.
func Realize(s shape.Solid) (sdf.SDF3, error) {
	switch v := s.(type) {
	case *shape.Box:
		return sdf.Box3D(v3.Vec{X: 2 * v.DX, Y: 2 * v.DY, Z: 2 * v.DZ}, 0)

	case *shape.Tube:
		return shell(v.RMin, v.RMax, v.DZ)

	case *shape.TubeSeg:
		out, err := shell(v.RMin, v.RMax, v.DZ)
		if err != nil || v.Full() {
			return out, err
		}
		return phiCut(out, v.PhiStart, v.PhiEnd, v.RMax, v.DZ)

	case *shape.Sphere:
		out, err := sdf.Sphere3D(v.RMax)
		if err != nil {
			return nil, err
		}
		if v.RMin > 0 {
			inner, err := sdf.Sphere3D(v.RMin)
			if err != nil {
				return nil, err
			}
			out = sdf.Difference3D(out, inner)
		}
		if v.PhiEnd-v.PhiStart < 2*math.Pi-1e-9 {
			return phiCut(out, v.PhiStart, v.PhiEnd, v.RMax, v.RMax)
		}
		return out, nil

	case *shape.Para:
		return newHull(v.Vertices())

	case *shape.Trap:
		return newHull(v.Vertices())

	case *shape.Trd:
		var pts []spatial.Vector
		for _, f := range []struct{ z, dx, dy float64 }{{-v.DZ, v.DX1, v.DY1}, {v.DZ, v.DX2, v.DY2}} {
			pts = append(pts,
				spatial.Vec(-f.dx, -f.dy, f.z), spatial.Vec(f.dx, -f.dy, f.z),
				spatial.Vec(-f.dx, f.dy, f.z), spatial.Vec(f.dx, f.dy, f.z))
		}
		return newHull(pts)

	case *shape.EllipticalTube:
		c, err := sdf.Cylinder3D(2*v.DZ, 1, 0)
		if err != nil {
			return nil, err
		}
		return sdf.Transform3D(c, sdf.Scale3d(v3.Vec{X: v.DX, Y: v.DY, Z: 1})), nil

	case *shape.ConeSeg:
		out, err := sdf.Cone3D(2*v.DZ, v.RMax1, v.RMax2, 0)
		if err != nil {
			return nil, err
		}
		if v.RMin1 > 0 || v.RMin2 > 0 {
			inner, err := sdf.Cone3D(2*v.DZ, v.RMin1, v.RMin2, 0)
			if err != nil {
				return nil, err
			}
			out = sdf.Difference3D(out, inner)
		}
		if v.PhiEnd-v.PhiStart < 2*math.Pi-1e-9 {
			return phiCut(out, v.PhiStart, v.PhiEnd, math.Max(v.RMax1, v.RMax2), v.DZ)
		}
		return out, nil

	case *shape.Composite:
		left, err := Realize(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := Realize(v.Right)
		if err != nil {
			return nil, err
		}
		right = sdf.Transform3D(right, matrix(v.RightPlacement))
		switch v.Op {
		case volume.Union:
			return sdf.Union3D(left, right), nil
		case volume.Subtraction:
			return sdf.Difference3D(left, right), nil
		case volume.Intersection:
			return sdf.Intersect3D(left, right), nil
		}
		return nil, fmt.Errorf("unsupported operation %v", v.Op)
	}
	return nil, fmt.Errorf("unsupported solid %T", s)
}

// shell is a cylinder of half-length dz with an optional bore.
func shell(rmin, rmax, dz float64) (sdf.SDF3, error) {
	out, err := sdf.Cylinder3D(2*dz, rmax, 0)
	if err != nil {
		return nil, err
	}
	if rmin <= 0 {
		return out, nil
	}
	bore, err := sdf.Cylinder3D(2*dz*1.01, rmin, 0)
	if err != nil {
		return nil, err
	}
	return sdf.Difference3D(out, bore), nil
}

// phiCut keeps the part of s between the start and end azimuths.
func phiCut(s sdf.SDF3, start, end, r, dz float64) (sdf.SDF3, error) {
	r *= 1.5
	pts := []v2.Vec{{X: 0, Y: 0}}
	steps := int(math.Ceil((end - start) / wedgeStep))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		a := start + (end-start)*float64(i)/float64(steps)
		pts = append(pts, v2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)})
	}
	outline, err := sdf.Polygon2D(pts)
	if err != nil {
		return nil, err
	}
	wedge := sdf.Extrude3D(outline, 2*dz*1.01)
	return sdf.Intersect3D(s, wedge), nil
}

// matrix converts a transform into an sdfx matrix. The rotation is
// rebuilt from its active angles, applied X, Y, Z.
func matrix(t spatial.Transform) sdf.M44 {
	a := t.Rotation.DecomposeActive()
	rot := sdf.RotateZ(a.Z).Mul(sdf.RotateY(a.Y)).Mul(sdf.RotateX(a.X))
	return sdf.Translate3d(toV3(t.Translation)).Mul(rot)
}

func toV3(v spatial.Vector) v3.Vec {
	return v3.Vec{X: v.X(), Y: v.Y(), Z: v.Z()}
}
