package placement

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/kernel/record"
	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/chazu/detgeo/pkg/units"
	"github.com/chazu/detgeo/pkg/volume"
)

const tol = 1e-9

// countingBackend counts every backend call.
type countingBackend struct {
	*record.Backend
	calls int
}

func (c *countingBackend) Medium(material string, transparency int) (kernel.Medium, error) {
	c.calls++
	return c.Backend.Medium(material, transparency)
}

func (c *countingBackend) Top(m kernel.Medium, half spatial.Vector) (kernel.Node, error) {
	c.calls++
	return c.Backend.Top(m, half)
}

func (c *countingBackend) AddChild(parent kernel.Node, name string, s shape.Solid, m kernel.Medium, local spatial.Transform) (kernel.Node, error) {
	c.calls++
	return c.Backend.AddChild(parent, name, s, m, local)
}

// box returns a 1 cm half-width box under mother at pos (cm) with rot
// (deg).
func box(name, mother, pos, rot string) *volume.Volume {
	v := volume.New(name, volume.Box, units.MustParse("1*cm 1*cm 1*cm"), "G4_Si")
	v.Mother = mother
	if pos != "" {
		v.Pos = units.MustParse(pos)
	}
	if rot != "" {
		v.Rot = units.MustParse(rot)
	}
	return v
}

func op(name, mother, kind string) *volume.Volume {
	v := volume.New(name, volume.MustParseKind(kind), units.Measure{}, "G4_AIR")
	v.Mother = mother
	return v
}

func component(v *volume.Volume) *volume.Volume {
	v.Material = volume.ComponentMaterial
	return v
}

func tree(t *testing.T, vols ...*volume.Volume) *volume.Tree {
	t.Helper()
	tr := volume.NewTree()
	for _, v := range vols {
		if err := tr.Add(v); err != nil {
			t.Fatalf("Add(%s): %v", v.Name, err)
		}
	}
	return tr
}

func place(t *testing.T, tr *volume.Tree, b kernel.Backend, opts ...Option) *Result {
	t.Helper()
	res, err := New(b, opts...).Place(tr, volume.RootMother)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	return res
}

func TestPlaceUnionExample(t *testing.T) {
	tr := tree(t,
		component(box("A", volume.RootMother, "0*cm 0*cm 0*cm", "")),
		component(box("B", volume.RootMother, "2*cm 0*cm 0*cm", "")),
		op("U", volume.RootMother, "Operation: A + B"),
	)
	b := record.New()
	res := place(t, tr, b)

	if got := len(b.Nodes()); got != 1 {
		t.Fatalf("instantiated %d volumes, want only the union", got)
	}
	for _, name := range []string{"A", "B"} {
		p := res.Lookup(name)
		if p == nil || p.Instantiated || p.Solid == nil {
			t.Errorf("component %s: %+v, want built but not instantiated", name, p)
		}
	}
	u := b.Lookup("U")
	lo, hi := u.Solid.Bounds()
	if lo.X() > -1+tol || hi.X() < 3-tol {
		t.Errorf("union x extent = [%g, %g], want at least [-1, 3]", lo.X(), hi.X())
	}
}

func TestPlaceIdempotent(t *testing.T) {
	build := func() *volume.Tree {
		return tree(t,
			box("hall", volume.RootMother, "0*cm 0*cm 100*cm", "0*deg 0*deg 45*deg"),
			box("crate", "hall", "10*cm 0*cm 0*cm", "30*deg 0*deg 0*deg"),
			box("crystal", "crate", "0*cm 5*mm 0*cm", "0*deg 20*deg 10*deg"),
			component(box("hole", "hall", "0.5*cm 0*cm 0*cm", "")),
			op("shell", "hall", "Operation: crate - hole"),
		)
	}
	b1, b2 := record.New(), record.New()
	r1 := place(t, build(), b1)
	r2 := place(t, build(), b2)

	if r1.PassID == r2.PassID {
		t.Error("passes share an id")
	}
	n1, n2 := b1.Nodes(), b2.Nodes()
	if len(n1) != len(n2) {
		t.Fatalf("volume counts differ: %d vs %d", len(n1), len(n2))
	}
	for i := range n1 {
		if n1[i].Name != n2[i].Name {
			t.Errorf("node %d: %s vs %s", i, n1[i].Name, n2[i].Name)
		}
		if !n1[i].World.ApproxEqual(n2[i].World, tol) {
			t.Errorf("%s: world transforms differ", n1[i].Name)
		}
	}
}

func TestPlaceLocalAndWorld(t *testing.T) {
	tr := tree(t,
		box("mother", volume.RootMother, "10*cm 0*cm 0*cm", "0*deg 0*deg 90*deg"),
		box("child", "mother", "1*cm 0*cm 0*cm", ""),
	)
	b := record.New()
	res := place(t, tr, b)

	child := res.Lookup("child")
	if !child.Local.Translation.ApproxEqual(spatial.Vec(1, 0, 0), tol) {
		t.Errorf("backend got %v, want the mother-relative position", child.Local.Translation)
	}
	// The scene rotation of the mother is the inverse of its volume
	// rotation, so the child's +x offset lands on -y.
	if want := spatial.Vec(10, -1, 0); !child.World.Translation.ApproxEqual(want, tol) {
		t.Errorf("world = %v, want %v", child.World.Translation, want)
	}
	if !b.Lookup("child").World.ApproxEqual(child.World, tol) {
		t.Error("result and backend disagree on the world transform")
	}
}

func TestMotherRelativeAsymmetry(t *testing.T) {
	composite := func(aPos, bPos string) *shape.Composite {
		tr := tree(t,
			component(box("A", volume.RootMother, aPos, "0*deg 0*deg 30*deg")),
			component(box("B", volume.RootMother, bPos, "0*deg 0*deg 30*deg")),
			op("C", volume.RootMother, "Operation:@A - B"),
		)
		b := record.New()
		place(t, tr, b)
		return b.Lookup("C").Solid.(*shape.Composite)
	}

	base := composite("5*cm 1*cm 0*cm", "6*cm 1*cm 0*cm")
	moved := composite("15*cm -2*cm 2*cm", "16*cm -2*cm 2*cm")

	if !base.RightPlacement.ApproxEqual(moved.RightPlacement, 1e-9) {
		t.Errorf("moving A and B together changed the composite:\n%v\n%v",
			base.RightPlacement, moved.RightPlacement)
	}
	blo, bhi := base.Bounds()
	mlo, mhi := moved.Bounds()
	if !blo.ApproxEqual(mlo, 1e-9) || !bhi.ApproxEqual(mhi, 1e-9) {
		t.Errorf("bounds changed: %v %v vs %v %v", blo, bhi, mlo, mhi)
	}

	// Same rotation on both, so the offset is B's rotation applied to
	// B - A and the relative rotation is the identity.
	want := spatial.Identity().RotateZ(math.Pi/6).Apply(spatial.Vec(1, 0, 0))
	if !base.RightPlacement.Translation.ApproxEqual(want, 1e-9) {
		t.Errorf("right operand at %v, want %v", base.RightPlacement.Translation, want)
	}
	if !base.RightPlacement.Rotation.IsIdentity(1e-9) {
		t.Errorf("relative rotation = %v, want identity", base.RightPlacement.Rotation)
	}
}

// With differing operand rotations the right operand's offset is taken in
// its own rotated frame and only the relative rotation sees the left
// operand's rotation. Rotating A alone therefore changes the composite.
func TestMotherRelativeWithRelativeRotation(t *testing.T) {
	composite := func(aRot string) *shape.Composite {
		tr := tree(t,
			component(box("A", volume.RootMother, "1*cm 0*cm 0*cm", aRot)),
			component(box("B", volume.RootMother, "2*cm 1*cm 0*cm", "0*deg 0*deg 90*deg")),
			op("C", volume.RootMother, "Operation:@A - B"),
		)
		b := record.New()
		place(t, tr, b)
		return b.Lookup("C").Solid.(*shape.Composite)
	}

	// Rz(90) applied to B - A = (1, 1, 0).
	wantPos := spatial.Vec(-1, 1, 0)

	flat := composite("0*deg 0*deg 0*deg")
	if !flat.RightPlacement.Translation.ApproxEqual(wantPos, tol) {
		t.Errorf("right operand at %v, want %v", flat.RightPlacement.Translation, wantPos)
	}
	// The scene rotation is the inverse of the relative rotation.
	wantRot := spatial.Identity().RotateZ(-math.Pi / 2)
	if !flat.RightPlacement.Rotation.ApproxEqual(wantRot, tol) {
		t.Errorf("right operand rotation = %v, want %v", flat.RightPlacement.Rotation, wantRot)
	}

	tilted := composite("40*deg 0*deg 0*deg")
	if !tilted.RightPlacement.Translation.ApproxEqual(wantPos, tol) {
		t.Errorf("tilting A moved the right operand to %v", tilted.RightPlacement.Translation)
	}
	rel := spatial.Identity().RotateZ(math.Pi / 2).RotateX(-40 * math.Pi / 180)
	if !tilted.RightPlacement.Rotation.ApproxEqual(rel.Inverse(), tol) {
		t.Errorf("right operand rotation = %v, want %v", tilted.RightPlacement.Rotation, rel.Inverse())
	}
	if tilted.RightPlacement.ApproxEqual(flat.RightPlacement, 1e-3) {
		t.Error("rotating the left operand left the composite unchanged")
	}
}

func TestPlainOperationUsesRightPose(t *testing.T) {
	tr := tree(t,
		component(box("A", volume.RootMother, "7*cm 0*cm 0*cm", "")),
		component(box("B", volume.RootMother, "2*cm 0*cm 0*cm", "")),
		op("C", volume.RootMother, "Operation: A * B"),
	)
	b := record.New()
	place(t, tr, b)
	c := b.Lookup("C").Solid.(*shape.Composite)
	if !c.RightPlacement.Translation.ApproxEqual(spatial.Vec(2, 0, 0), tol) {
		t.Errorf("right operand at %v, want its own position", c.RightPlacement.Translation)
	}
}

func TestPlaceMissingMother(t *testing.T) {
	tr := tree(t,
		box("hall", volume.RootMother, "", ""),
		box("crystal", "ghost", "", ""),
	)
	b := &countingBackend{Backend: record.New()}
	_, err := New(b).Place(tr, volume.RootMother)

	var ce *volume.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "crystal") || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q must name crystal and ghost", err)
	}
	if b.calls != 0 {
		t.Errorf("backend called %d times on an invalid tree", b.calls)
	}
}

func TestPlaceMotherCycle(t *testing.T) {
	tr := tree(t,
		box("a", "b", "", ""),
		box("b", "a", "", ""),
	)
	b := &countingBackend{Backend: record.New()}
	if _, err := New(b).Place(tr, volume.RootMother); !errors.Is(err, volume.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if b.calls != 0 {
		t.Errorf("backend called %d times", b.calls)
	}
}

func TestPlaceholderStopsDescent(t *testing.T) {
	ghost := box("frame", volume.RootMother, "", "")
	ghost.Exist = false
	tr := tree(t,
		ghost,
		box("inner", "frame", "", ""),
		box("other", volume.RootMother, "3*cm 0*cm 0*cm", ""),
	)
	b := record.New()
	res := place(t, tr, b)

	if p := res.Lookup("frame"); p == nil || p.Instantiated || p.Solid != nil {
		t.Errorf("placeholder entry = %+v", p)
	}
	if res.Lookup("inner") != nil {
		t.Error("daughter of a placeholder was placed")
	}
	if b.Lookup("other") == nil {
		t.Error("sibling of a placeholder was not placed")
	}
	found := false
	for _, w := range res.Warnings {
		if w.Volume == "frame" {
			found = true
		}
	}
	if !found {
		t.Errorf("no warning about skipped daughters: %v", res.Warnings)
	}
}

func TestPlaceholderOperand(t *testing.T) {
	a := component(box("A", volume.RootMother, "", ""))
	a.Exist = false
	tr := tree(t,
		a,
		component(box("B", volume.RootMother, "", "")),
		op("C", volume.RootMother, "Operation: A + B"),
	)
	_, err := New(record.New()).Place(tr, volume.RootMother)
	var ce *volume.ConfigurationError
	if !errors.As(err, &ce) || ce.Volume != "C" || ce.Ref != "A" {
		t.Fatalf("expected error naming C and A, got %v", err)
	}
}

func TestOperandPlacedUnderCompositeMother(t *testing.T) {
	// The operand is declared after the operation, so it is resolved on
	// demand under the operation's mother.
	tr := tree(t,
		box("hall", volume.RootMother, "", ""),
		op("C", "hall", "Operation: A + B"),
		component(box("A", "hall", "", "")),
		box("B", "hall", "4*cm 0*cm 0*cm", ""),
	)
	b := record.New()
	res := place(t, tr, b)

	if n := b.Lookup("B"); n == nil || n.Parent.Name != "hall" {
		t.Fatalf("operand B not instantiated under hall")
	}
	count := 0
	for _, p := range res.Placed {
		if p.Name == "B" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("B placed %d times, want once", count)
	}
}

func TestGimbalLockLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := tree(t, box("tilted", volume.RootMother, "", "0*deg 90*deg 0*deg"))
	res := place(t, tr, record.New(), WithLogger(zap.New(core)))

	if n := logs.FilterMessageSnippet("gimbal").Len(); n != 1 {
		t.Errorf("gimbal warnings logged = %d, want 1", n)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Volume != "tilted" {
		t.Errorf("result warnings = %v", res.Warnings)
	}
}

func TestWorldOptions(t *testing.T) {
	b := record.New()
	place(t, tree(t, box("a", volume.RootMother, "", "")), b, WithWorld("G4_Galactic", spatial.Vec(5, 6, 7)))
	w := b.World()
	if w.Medium.Material != "G4_Galactic" {
		t.Errorf("world material = %s", w.Medium.Material)
	}
	lo, hi := w.Solid.Bounds()
	if !lo.ApproxEqual(spatial.Vec(-5, -6, -7), tol) || !hi.ApproxEqual(spatial.Vec(5, 6, 7), tol) {
		t.Errorf("world bounds = %v %v", lo, hi)
	}
}

func TestPlaceAll(t *testing.T) {
	jobs := []Job{
		{Name: "ecal", Tree: tree(t, box("ecal", volume.RootMother, "", "")), Backend: record.New()},
		{Name: "svt", Tree: tree(t, box("svt", volume.RootMother, "", ""), box("layer", "svt", "", "")), Backend: record.New()},
	}
	res, err := PlaceAll(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || len(res[0].Placed) != 1 || len(res[1].Placed) != 2 {
		t.Fatalf("unexpected results: %+v", res)
	}
	if res[0].PassID == res[1].PassID {
		t.Error("passes share an id")
	}

	jobs[1].Backend = jobs[0].Backend
	if _, err := PlaceAll(context.Background(), jobs); err == nil {
		t.Error("shared backend accepted")
	}

	bad := []Job{
		{Name: "ok", Tree: tree(t, box("a", volume.RootMother, "", "")), Backend: record.New()},
		{Name: "broken", Tree: tree(t, box("b", "nowhere", "", "")), Backend: record.New()},
	}
	if _, err := PlaceAll(context.Background(), bad); !errors.Is(err, volume.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
