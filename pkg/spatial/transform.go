package spatial

// Transform is a rigid placement: rotate, then translate.
// The zero value is not usable; start from IdentityTransform.
type Transform struct {
	Translation Vector
	Rotation    Rotation
}

// IdentityTransform returns the transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Rotation: Identity()}
}

// Apply maps p from the local frame into the parent frame.
func (t Transform) Apply(p Vector) Vector {
	return t.Rotation.Apply(p).Add(t.Translation)
}

// Compose returns the transform equivalent to applying child first and
// then t, i.e. the placement of child expressed in t's parent frame.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Translation: t.Apply(child.Translation),
		Rotation:    t.Rotation.Mul(child.Rotation),
	}
}

// Inverse returns the transform mapping parent coordinates back to local.
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Inverse()
	return Transform{
		Translation: inv.Apply(t.Translation).Scale(-1),
		Rotation:    inv,
	}
}

// ApproxEqual compares translation and rotation within tol.
func (t Transform) ApproxEqual(o Transform, tol float64) bool {
	return t.Translation.ApproxEqual(o.Translation, tol) && t.Rotation.ApproxEqual(o.Rotation, tol)
}

// PlacementTransform converts a volume's position and active rotation into
// the transform handed to a scene backend. Volume rotations follow the
// rotate-the-frame convention, so the scene rotation is rebuilt from the
// active angles negated and applied Z, Y, X. The returned Angles carry the
// gimbal-lock flag of that decomposition.
func PlacementTransform(pos Vector, rot Rotation) (Transform, Angles) {
	a := rot.DecomposeActive()
	scene := Identity().RotateZ(-a.Z).RotateY(-a.Y).RotateX(-a.X)
	return Transform{Translation: pos, Rotation: scene}, a
}
