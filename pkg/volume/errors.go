package volume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/detgeo/pkg/units"
)

// ErrConfiguration matches every ConfigurationError and ShapeKindError
// with errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a malformed record, a duplicate name, an
// unresolvable mother or operand, or a mother cycle.
type ConfigurationError struct {
	Volume string   // offending volume
	Ref    string   // missing mother or operand, if any
	Chain  []string // mother/operand chain leading to Volume, outermost first
	Reason string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "volume %q: %s", e.Volume, e.Reason)
	if e.Ref != "" {
		fmt.Fprintf(&b, " %q", e.Ref)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " (chain: %s)", strings.Join(e.Chain, " -> "))
	}
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ShapeKindError reports a shape kind outside the known set.
type ShapeKindError struct {
	Volume string
	Kind   string
}

func (e *ShapeKindError) Error() string {
	if e.Volume == "" {
		return fmt.Sprintf("unknown shape kind %q", e.Kind)
	}
	return fmt.Sprintf("volume %q: unknown shape kind %q", e.Volume, e.Kind)
}

func (e *ShapeKindError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnitMismatchError is the units package error, re-exported for callers
// that only import volume.
type UnitMismatchError = units.UnitMismatchError

func configErr(vol, reason string) error {
	return &ConfigurationError{Volume: vol, Reason: reason}
}
