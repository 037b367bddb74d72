// Package record implements kernel.Backend by recording every call. The
// recorded scene keeps each node's local and world transform, so tests and
// the CLI can inspect a placement without a geometry library.
package record

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/spatial"
)

// Compile-time interface check.
var _ kernel.Backend = (*Backend)(nil)

// Medium is a recorded medium.
type Medium struct {
	Name         string
	Material     string
	Transparency int
}

func (m *Medium) MediumName() string { return m.Name }

// Node is a recorded scene volume.
type Node struct {
	Name     string
	Parent   *Node
	Solid    shape.Solid
	Medium   *Medium
	Local    spatial.Transform
	World    spatial.Transform
	Children []*Node
}

func (n *Node) NodeName() string { return n.Name }

// Backend records a scene. It is not safe for concurrent use.
type Backend struct {
	media map[string]*Medium
	world *Node
	nodes []*Node
	index map[string]*Node
}

// New returns an empty recording backend.
func New() *Backend {
	return &Backend{
		media: make(map[string]*Medium),
		index: make(map[string]*Node),
	}
}

// Medium returns the medium for material, creating it on first use.
func (b *Backend) Medium(material string, transparency int) (kernel.Medium, error) {
	if material == "" {
		return nil, errors.New("record: empty material")
	}
	name := kernel.MediumName(material, transparency)
	if m, ok := b.media[name]; ok {
		return m, nil
	}
	m := &Medium{Name: name, Material: material, Transparency: transparency}
	b.media[name] = m
	return m, nil
}

// Top creates the world volume.
func (b *Backend) Top(m kernel.Medium, halfSize spatial.Vector) (kernel.Node, error) {
	if b.world != nil {
		return nil, errors.New("record: world volume already created")
	}
	med, err := b.medium(m)
	if err != nil {
		return nil, err
	}
	b.world = &Node{
		Name:   "world",
		Solid:  &shape.Box{DX: halfSize.X(), DY: halfSize.Y(), DZ: halfSize.Z()},
		Medium: med,
		Local:  spatial.IdentityTransform(),
		World:  spatial.IdentityTransform(),
	}
	return b.world, nil
}

// AddChild records s under parent.
func (b *Backend) AddChild(parent kernel.Node, name string, s shape.Solid, m kernel.Medium, local spatial.Transform) (kernel.Node, error) {
	p, ok := parent.(*Node)
	if !ok || p == nil {
		return nil, fmt.Errorf("record: %s: parent %v is not a recorded node", name, parent)
	}
	if s == nil {
		return nil, fmt.Errorf("record: %s: nil solid", name)
	}
	if _, dup := b.index[name]; dup {
		return nil, fmt.Errorf("record: %s: already instantiated", name)
	}
	med, err := b.medium(m)
	if err != nil {
		return nil, fmt.Errorf("record: %s: %w", name, err)
	}
	n := &Node{
		Name:   name,
		Parent: p,
		Solid:  s,
		Medium: med,
		Local:  local,
		World:  p.World.Compose(local),
	}
	p.Children = append(p.Children, n)
	b.nodes = append(b.nodes, n)
	b.index[name] = n
	return n, nil
}

func (b *Backend) medium(m kernel.Medium) (*Medium, error) {
	med, ok := m.(*Medium)
	if !ok || med == nil {
		return nil, fmt.Errorf("medium %v is not a recorded medium", m)
	}
	return med, nil
}

// World returns the world node, or nil before Top.
func (b *Backend) World() *Node { return b.world }

// Nodes returns the instantiated nodes in call order, without the world.
func (b *Backend) Nodes() []*Node { return b.nodes }

// Lookup returns the node with the given name, or nil.
func (b *Backend) Lookup(name string) *Node { return b.index[name] }

// Media returns the media sorted by name.
func (b *Backend) Media() []*Medium {
	out := make([]*Medium, 0, len(b.media))
	for _, m := range b.media {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
