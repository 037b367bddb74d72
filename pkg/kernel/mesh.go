package kernel

import "github.com/chazu/detgeo/pkg/spatial"

// Mesh holds the triangles of one volume, in cm. Arrays are flat: three
// floats per vertex and per normal, three indices per triangle.
type Mesh struct {
	Volume   string
	Vertices []float32
	Normals  []float32
	Indices  []uint32
}

func (m *Mesh) VertexCount() int   { return len(m.Vertices) / 3 }
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }
func (m *Mesh) IsEmpty() bool      { return len(m.Vertices) == 0 }

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) spatial.Vector {
	v := m.Vertices[3*i : 3*i+3]
	return spatial.Vec(float64(v[0]), float64(v[1]), float64(v[2]))
}

// Transform moves the mesh by t in place; normals are only rotated.
func (m *Mesh) Transform(t spatial.Transform) {
	for i := 0; i < m.VertexCount(); i++ {
		setVec(m.Vertices[3*i:], t.Apply(m.Vertex(i)))
	}
	for i := 0; i+2 < len(m.Normals); i += 3 {
		n := spatial.Vec(float64(m.Normals[i]), float64(m.Normals[i+1]), float64(m.Normals[i+2]))
		setVec(m.Normals[i:], t.Rotation.Apply(n))
	}
}

// Bounds returns the axis-aligned extent of the vertices. ok is false for
// an empty mesh.
func (m *Mesh) Bounds() (lo, hi spatial.Vector, ok bool) {
	if m.IsEmpty() {
		return spatial.Vector{}, spatial.Vector{}, false
	}
	var l, h [3]float64
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Vertex(i).Array()
		for k := range p {
			if i == 0 || p[k] < l[k] {
				l[k] = p[k]
			}
			if i == 0 || p[k] > h[k] {
				h[k] = p[k]
			}
		}
	}
	return spatial.Vec(l[0], l[1], l[2]), spatial.Vec(h[0], h[1], h[2]), true
}

func setVec(dst []float32, v spatial.Vector) {
	dst[0], dst[1], dst[2] = float32(v.X()), float32(v.Y()), float32(v.Z())
}
