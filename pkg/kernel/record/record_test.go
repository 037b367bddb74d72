package record

import (
	"math"
	"testing"

	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/spatial"
)

func TestMediaShared(t *testing.T) {
	b := New()
	m1, _ := b.Medium("G4_AIR", 0)
	m2, _ := b.Medium("G4_AIR", 0)
	m3, _ := b.Medium("G4_AIR", 70)
	if m1 != m2 {
		t.Error("same material and transparency should share a medium")
	}
	if m3.MediumName() != "G4_AIR_7" {
		t.Errorf("transparent medium = %q", m3.MediumName())
	}
	if len(b.Media()) != 2 {
		t.Errorf("media = %d, want 2", len(b.Media()))
	}
	if _, err := b.Medium("", 0); err == nil {
		t.Error("empty material accepted")
	}
}

func TestWorldTransforms(t *testing.T) {
	b := New()
	air, _ := b.Medium("G4_AIR", 0)
	top, err := b.Top(air, spatial.Vec(100, 100, 100))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Top(air, spatial.Vec(1, 1, 1)); err == nil {
		t.Error("second Top accepted")
	}

	box := &shape.Box{DX: 1, DY: 1, DZ: 1}
	motherLocal := spatial.Transform{
		Translation: spatial.Vec(10, 0, 0),
		Rotation:    spatial.Identity().RotateZ(math.Pi / 2),
	}
	mother, err := b.AddChild(top, "mother", box, air, motherLocal)
	if err != nil {
		t.Fatal(err)
	}
	childLocal := spatial.Transform{Translation: spatial.Vec(1, 0, 0), Rotation: spatial.Identity()}
	if _, err := b.AddChild(mother, "child", box, air, childLocal); err != nil {
		t.Fatal(err)
	}

	child := b.Lookup("child")
	// The mother's 90 degree turn about z maps the child's +x offset onto +y.
	if want := spatial.Vec(10, 1, 0); !child.World.Translation.ApproxEqual(want, 1e-9) {
		t.Errorf("child world = %v, want %v", child.World.Translation, want)
	}
	if !child.Local.ApproxEqual(childLocal, 1e-12) {
		t.Errorf("local transform altered: %v", child.Local)
	}
	if child.Parent.Name != "mother" || len(b.World().Children) != 1 {
		t.Errorf("tree links wrong")
	}
	if got := len(b.Nodes()); got != 2 {
		t.Errorf("nodes = %d, want 2", got)
	}
}

func TestAddChildErrors(t *testing.T) {
	b := New()
	air, _ := b.Medium("G4_AIR", 0)
	top, _ := b.Top(air, spatial.Vec(1, 1, 1))
	box := &shape.Box{DX: 1, DY: 1, DZ: 1}

	if _, err := b.AddChild(nil, "a", box, air, spatial.IdentityTransform()); err == nil {
		t.Error("nil parent accepted")
	}
	if _, err := b.AddChild(top, "a", nil, air, spatial.IdentityTransform()); err == nil {
		t.Error("nil solid accepted")
	}
	if _, err := b.AddChild(top, "a", box, air, spatial.IdentityTransform()); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddChild(top, "a", box, air, spatial.IdentityTransform()); err == nil {
		t.Error("duplicate node accepted")
	}
}
