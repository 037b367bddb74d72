package kernel

import (
	"math"
	"testing"

	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/spatial"
)

func TestMeshCounts(t *testing.T) {
	tests := []struct {
		name      string
		mesh      Mesh
		verts     int
		triangles int
		empty     bool
	}{
		{"empty", Mesh{}, 0, 0, true},
		{"one triangle", Mesh{Vertices: make([]float32, 9), Indices: []uint32{0, 1, 2}}, 3, 1, false},
		{"quad", Mesh{Vertices: make([]float32, 12), Indices: []uint32{0, 1, 2, 2, 3, 0}}, 4, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mesh.VertexCount(); got != tt.verts {
				t.Errorf("VertexCount() = %d, want %d", got, tt.verts)
			}
			if got := tt.mesh.TriangleCount(); got != tt.triangles {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.triangles)
			}
			if got := tt.mesh.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestMeshTransformAndBounds(t *testing.T) {
	m := &Mesh{
		Vertices: []float32{1, 0, 0, 0, 2, 0, 0, 0, 3},
		Normals:  []float32{1, 0, 0, 1, 0, 0, 1, 0, 0},
		Indices:  []uint32{0, 1, 2},
	}
	lo, hi, ok := m.Bounds()
	if !ok || !lo.ApproxEqual(spatial.Vec(0, 0, 0), 1e-6) || !hi.ApproxEqual(spatial.Vec(1, 2, 3), 1e-6) {
		t.Fatalf("Bounds() = %v %v %v", lo, hi, ok)
	}

	// Quarter turn about z, then shift 10 cm along x.
	tr := spatial.Transform{Translation: spatial.Vec(10, 0, 0), Rotation: spatial.Identity().RotateZ(math.Pi / 2)}
	m.Transform(tr)

	if got := m.Vertex(0); !got.ApproxEqual(spatial.Vec(10, 1, 0), 1e-5) {
		t.Errorf("vertex 0 = %v, want (10, 1, 0)", got)
	}
	if got := m.Vertex(1); !got.ApproxEqual(spatial.Vec(8, 0, 0), 1e-5) {
		t.Errorf("vertex 1 = %v, want (8, 0, 0)", got)
	}
	// Normals rotate but do not translate.
	n := spatial.Vec(float64(m.Normals[0]), float64(m.Normals[1]), float64(m.Normals[2]))
	if !n.ApproxEqual(spatial.Vec(0, 1, 0), 1e-5) {
		t.Errorf("normal = %v, want (0, 1, 0)", n)
	}

	if _, _, ok := (&Mesh{}).Bounds(); ok {
		t.Error("empty mesh reported bounds")
	}
}

// --- Contract checks with a stub backend ---

type stubMedium string

func (m stubMedium) MediumName() string { return string(m) }

type stubNode string

func (n stubNode) NodeName() string { return string(n) }

// stubBackend proves the Backend contract is satisfiable and counts calls.
type stubBackend struct {
	children int
}

func (b *stubBackend) Medium(material string, transparency int) (Medium, error) {
	return stubMedium(MediumName(material, transparency)), nil
}

func (b *stubBackend) Top(m Medium, _ spatial.Vector) (Node, error) {
	return stubNode("world"), nil
}

func (b *stubBackend) AddChild(_ Node, name string, _ shape.Solid, _ Medium, _ spatial.Transform) (Node, error) {
	b.children++
	return stubNode(name), nil
}

var _ Backend = (*stubBackend)(nil)

func TestStubBackend(t *testing.T) {
	b := &stubBackend{}
	var k Backend = b
	m, err := k.Medium("Air", 0)
	if err != nil {
		t.Fatal(err)
	}
	top, _ := k.Top(m, spatial.Vec(10, 10, 10))
	n, err := k.AddChild(top, "crystal", &shape.Box{DX: 1, DY: 1, DZ: 1}, m, spatial.IdentityTransform())
	if err != nil {
		t.Fatal(err)
	}
	if n.NodeName() != "crystal" || b.children != 1 {
		t.Errorf("AddChild = %q after %d calls", n.NodeName(), b.children)
	}
}

func TestMediumName(t *testing.T) {
	tests := []struct {
		material     string
		transparency int
		want         string
	}{
		{"G4_AIR", 0, "G4_AIR"},
		{"G4_AIR", 70, "G4_AIR_7"},
		{"Vacuum", 35, "Vacuum_3"},
	}
	for _, tt := range tests {
		if got := MediumName(tt.material, tt.transparency); got != tt.want {
			t.Errorf("MediumName(%q, %d) = %q, want %q", tt.material, tt.transparency, got, tt.want)
		}
	}
}
