package placement

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/chazu/detgeo/pkg/volume"
)

// localPose is a volume's own position and rotation before any mother
// composition. Boolean operands are combined from these.
type localPose struct {
	pos spatial.Vector
	rot spatial.Rotation
}

// pass holds the caches of one placement run.
type pass struct {
	e      *Engine
	tree   *volume.Tree
	mother string
	log    *zap.Logger

	poses      map[string]localPose
	shapes     map[string]shape.Solid
	nodes      map[string]kernel.Node
	worlds     map[string]spatial.Transform
	done       map[string]bool
	inProgress map[string]bool
	walked     map[string]bool
	stack      []string

	res *Result
}

func newPass(e *Engine, t *volume.Tree, mother string) *pass {
	id := uuid.New()
	return &pass{
		e:          e,
		tree:       t,
		mother:     mother,
		log:        e.logger.With(zap.String("pass", id.String())),
		poses:      make(map[string]localPose),
		shapes:     make(map[string]shape.Solid),
		nodes:      make(map[string]kernel.Node),
		worlds:     make(map[string]spatial.Transform),
		done:       make(map[string]bool),
		inProgress: make(map[string]bool),
		walked:     make(map[string]bool),
		res:        &Result{PassID: id, Root: mother},
	}
}

func (p *pass) warn(vol, msg string) {
	p.res.Warnings = append(p.res.Warnings, Warning{Volume: vol, Message: msg})
}

// top creates the world volume that stands in for the pass mother.
func (p *pass) top() error {
	m, err := p.e.backend.Medium(p.e.worldMaterial, 0)
	if err != nil {
		return fmt.Errorf("placement: world medium: %w", err)
	}
	n, err := p.e.backend.Top(m, p.e.worldHalfSize)
	if err != nil {
		return fmt.Errorf("placement: world volume: %w", err)
	}
	p.nodes[p.mother] = n
	p.worlds[p.mother] = spatial.IdentityTransform()
	return nil
}

// walk places the children of mother in tree order and descends into
// each child that became a scene volume.
func (p *pass) walk(mother string) error {
	if p.walked[mother] {
		return p.configErr(mother, "", "mother cycle")
	}
	p.walked[mother] = true

	for _, c := range p.tree.Children(mother) {
		if err := p.place(c, mother); err != nil {
			return err
		}
		if _, ok := p.nodes[c.Name]; !ok {
			if len(p.tree.Children(c.Name)) > 0 {
				p.warn(c.Name, "daughters skipped: volume is not instantiated")
			}
			continue
		}
		if err := p.walk(c.Name); err != nil {
			return err
		}
	}
	return nil
}

// place runs the placement steps for one volume under mother.
func (p *pass) place(v *volume.Volume, mother string) error {
	if p.done[v.Name] {
		return nil
	}
	if p.inProgress[v.Name] {
		return p.configErr(v.Name, "", "operand cycle")
	}
	p.inProgress[v.Name] = true
	p.stack = append(p.stack, v.Name)
	defer func() {
		delete(p.inProgress, v.Name)
		p.stack = p.stack[:len(p.stack)-1]
	}()

	parent, ok := p.nodes[mother]
	if !ok {
		return p.configErr(v.Name, mother, "mother not instantiated")
	}

	pos, err := v.Position()
	if err != nil {
		return err
	}
	rot, err := v.Rotation()
	if err != nil {
		return err
	}
	p.poses[v.Name] = localPose{pos: pos, rot: rot}

	local, angles := spatial.PlacementTransform(pos, rot)
	p.checkGimbal(v.Name, angles)
	entry := Placed{
		Name:   v.Name,
		Mother: mother,
		Local:  local,
		World:  p.worlds[mother].Compose(local),
	}

	if !v.Exist {
		p.done[v.Name] = true
		p.res.Placed = append(p.res.Placed, entry)
		return nil
	}

	s, err := p.buildShape(v, mother)
	if err != nil {
		return err
	}
	p.shapes[v.Name] = s
	entry.Solid = s
	p.done[v.Name] = true

	if v.IsComponent() {
		p.log.Debug("component kept for boolean use", zap.String("volume", v.Name))
		p.res.Placed = append(p.res.Placed, entry)
		return nil
	}

	m, err := p.e.backend.Medium(v.Material, v.Transparency())
	if err != nil {
		return fmt.Errorf("placement: %s: medium: %w", v.Name, err)
	}
	n, err := p.e.backend.AddChild(parent, v.Name, s, m, local)
	if err != nil {
		return fmt.Errorf("placement: %s: %w", v.Name, err)
	}
	p.nodes[v.Name] = n
	p.worlds[v.Name] = entry.World
	entry.Instantiated = true
	entry.Medium = m.MediumName()
	p.res.Placed = append(p.res.Placed, entry)

	p.log.Debug("volume placed",
		zap.String("volume", v.Name),
		zap.String("mother", mother),
		zap.String("solid", shape.Describe(s)),
		zap.Stringer("position", local.Translation))
	return nil
}

// buildShape builds a primitive or resolves a boolean operation.
func (p *pass) buildShape(v *volume.Volume, mother string) (shape.Solid, error) {
	op, ok := v.Operation()
	if !ok {
		return shape.Build(v)
	}

	var operands [2]shape.Solid
	for i, name := range []string{op.Left, op.Right} {
		o := p.tree.Lookup(name)
		if o == nil {
			return nil, p.configErr(v.Name, name, "operand not found")
		}
		if !o.Exist {
			return nil, p.configErr(v.Name, name, "operand is a placeholder (exist=false)")
		}
		if _, built := p.shapes[name]; !built {
			if err := p.place(o, mother); err != nil {
				return nil, err
			}
		}
		s, built := p.shapes[name]
		if !built {
			return nil, p.configErr(v.Name, name, "operand was not built")
		}
		operands[i] = s
	}

	right := p.poses[op.Right]
	var placement spatial.Transform
	var angles spatial.Angles
	if op.IsMotherRelative() {
		// The left operand's own placement is dropped: the right operand is
		// expressed in the left operand's frame.
		left := p.poses[op.Left]
		netPos := right.rot.Apply(right.pos.Sub(left.pos))
		netRot := left.rot.Inverse().Mul(right.rot)
		placement, angles = spatial.PlacementTransform(netPos, netRot)
	} else {
		placement, angles = spatial.PlacementTransform(right.pos, right.rot)
	}
	p.checkGimbal(v.Name, angles)

	return shape.Combine(v.Name, op.Op, operands[0], operands[1], placement)
}

func (p *pass) checkGimbal(name string, a spatial.Angles) {
	if !a.GimbalLock {
		return
	}
	deg := a.Degrees()
	p.log.Warn("rotation decomposition hit gimbal lock; angles are not unique",
		zap.String("volume", name),
		zap.Float64s("angles_deg", deg[:]))
	p.warn(name, fmt.Sprintf("gimbal lock in rotation decomposition (x=%.3g y=%.3g z=%.3g deg)", deg[0], deg[1], deg[2]))
}

// configErr builds a configuration error carrying the current placement
// chain: the pass mother, then every volume being placed.
func (p *pass) configErr(vol, ref, reason string) error {
	chain := append([]string{p.mother}, p.stack...)
	if ref != "" {
		chain = append(chain, ref)
	}
	return &volume.ConfigurationError{Volume: vol, Ref: ref, Reason: reason, Chain: chain}
}
