// Package placement walks a volume tree and instantiates it in a scene
// backend. Each call to Place runs one pass with its own caches; nothing
// is shared between passes, so independent trees can be placed
// concurrently as long as each pass has its own backend.
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

const (
	// DefaultWorldMaterial fills the top volume.
	DefaultWorldMaterial = "Vacuum"

	// DefaultWorldHalfSize is the half-width of the top volume box, in cm.
	DefaultWorldHalfSize = 1000.0
)

// Engine places volume trees into a backend.
type Engine struct {
	backend       kernel.Backend
	logger        *zap.Logger
	worldMaterial string
	worldHalfSize spatial.Vector
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Gimbal-lock warnings are logged at warn
// level and each placed volume at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWorld sets the top volume material and half-widths.
func WithWorld(material string, halfSize spatial.Vector) Option {
	return func(e *Engine) {
		if material != "" {
			e.worldMaterial = material
		}
		if !halfSize.IsZero() {
			e.worldHalfSize = halfSize
		}
	}
}

// New returns an engine driving b.
func New(b kernel.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:       b,
		logger:        zap.NewNop(),
		worldMaterial: DefaultWorldMaterial,
		worldHalfSize: spatial.Vec(DefaultWorldHalfSize, DefaultWorldHalfSize, DefaultWorldHalfSize),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Placed is the outcome for one volume visited by a pass.
type Placed struct {
	Name   string
	Mother string
	// Solid is nil for placeholders (exist=false).
	Solid shape.Solid
	// Local is the transform handed to the backend, relative to Mother.
	Local spatial.Transform
	// World is Local composed with every mother up to the top volume.
	World        spatial.Transform
	Instantiated bool
	Medium       string
}

// Warning is a non-fatal observation made during a pass.
type Warning struct {
	Volume  string
	Message string
}

func (w Warning) String() string {
	return w.Volume + ": " + w.Message
}

// Result is the outcome of one pass.
type Result struct {
	PassID   uuid.UUID
	Root     string
	Placed   []Placed
	Warnings []Warning
}

// Lookup returns the entry for name, or nil.
func (r *Result) Lookup(name string) *Placed {
	for i := range r.Placed {
		if r.Placed[i].Name == name {
			return &r.Placed[i]
		}
	}
	return nil
}

// Instantiated returns the entries that became scene volumes, in
// placement order.
func (r *Result) Instantiated() []Placed {
	var out []Placed
	for _, p := range r.Placed {
		if p.Instantiated {
			out = append(out, p)
		}
	}
	return out
}

// Place validates t and places every volume reachable from mother. The
// top volume is created under the name mother. A tree that fails
// validation produces no backend calls at all.
func (e *Engine) Place(t *volume.Tree, mother string) (*Result, error) {
	if t == nil {
		return nil, fmt.Errorf("placement: nil tree")
	}
	if mother == "" {
		mother = volume.RootMother
	}

	findings := volume.Validate(t, mother)
	if err := findings.Err(); err != nil {
		return nil, fmt.Errorf("placement: %w", err)
	}

	p := newPass(e, t, mother)
	for _, f := range findings.Warnings() {
		p.warn(f.Volume, f.Err.Error())
	}

	p.log.Debug("placement pass started", zap.String("mother", mother), zap.Int("volumes", t.Len()))
	if err := p.top(); err != nil {
		return nil, err
	}
	if err := p.walk(mother); err != nil {
		p.log.Error("placement pass failed", zap.Error(err))
		return nil, err
	}
	p.log.Info("placement pass finished",
		zap.Int("placed", len(p.res.Placed)),
		zap.Int("instantiated", len(p.res.Instantiated())),
		zap.Int("warnings", len(p.res.Warnings)))
	return p.res, nil
}
