// Package kernel defines the scene contract the placement engine drives.
// Implementations (record, sdfx) receive media, a top volume and one call
// per instantiated daughter with its transform relative to the mother.
// The abstraction allows swapping backends without changing placement.
package kernel

import (
	"fmt"

	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/spatial"
)

// Medium is an opaque handle to a backend material/medium.
type Medium interface {
	MediumName() string
}

// Node is an opaque handle to an instantiated scene volume.
type Node interface {
	NodeName() string
}

// Backend is a target scene.
type Backend interface {
	// Medium returns the medium for a material. Backends cache media by
	// MediumName so repeated requests share one handle.
	Medium(material string, transparency int) (Medium, error)

	// Top creates the world volume: a box of the given half-widths.
	Top(m Medium, halfSize spatial.Vector) (Node, error)

	// AddChild instantiates s under parent. local is relative to the
	// parent's frame.
	AddChild(parent Node, name string, s shape.Solid, m Medium, local spatial.Transform) (Node, error)
}

// Mesher turns solids into triangle meshes.
type Mesher interface {
	Mesh(s shape.Solid) (*Mesh, error)
}

// MediumName is the name a backend gives the medium of a material drawn
// with the given transparency in percent.
func MediumName(material string, transparency int) string {
	if transparency == 0 {
		return material
	}
	return fmt.Sprintf("%s_%d", material, transparency/10)
}
