// Package units parses catalog-style unit strings ("10*mm 2.5*deg") and
// converts values to the base units: centimetres for lengths and radians
// for angles.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Category is the physical dimension a value is expected to carry.
type Category int

const (
	Length Category = iota
	Angle
)

func (c Category) String() string {
	switch c {
	case Length:
		return "length"
	case Angle:
		return "angle"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Base unit names.
const (
	BaseLength = "cm"
	BaseAngle  = "rad"
)

type unitDef struct {
	cat    Category
	factor float64 // multiplier to the base unit
}

var table = map[string]unitDef{
	"um":     {Length, 1e-4},
	"mm":     {Length, 0.1},
	"cm":     {Length, 1},
	"m":      {Length, 100},
	"inch":   {Length, 2.54},
	"inches": {Length, 2.54},
	"rad":    {Angle, 1},
	"mrad":   {Angle, 0.001},
	"deg":    {Angle, math.Pi / 180},
}

// Known reports whether unit is a recognised unit name.
func Known(unit string) bool {
	_, ok := table[unit]
	return ok
}

// CategoryOf returns the category of unit.
func CategoryOf(unit string) (Category, bool) {
	d, ok := table[unit]
	return d.cat, ok
}

// Convert converts value expressed in unit to the base unit of want.
// An empty unit means the value is already in base units. A unit of the
// wrong category is an error unless the value is zero, where the unit
// carries no information.
func Convert(value float64, unit string, want Category) (float64, error) {
	if unit == "" {
		return value, nil
	}
	d, ok := table[unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	if d.cat != want {
		if value == 0 {
			return 0, nil
		}
		return 0, &UnitMismatchError{Reason: fmt.Sprintf("unit %q is a %s, expected %s", unit, d.cat, want)}
	}
	return value * d.factor, nil
}

// FromBase converts a base-unit value into unit.
func FromBase(value float64, unit string) (float64, error) {
	if unit == "" {
		return value, nil
	}
	d, ok := table[unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	return value / d.factor, nil
}

// UnitMismatchError reports a unit list that cannot be paired with its
// values, or a unit of the wrong category.
type UnitMismatchError struct {
	Field  string
	Values int
	Units  int
	Reason string
}

func (e *UnitMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("unit mismatch")
	if e.Field != "" {
		fmt.Fprintf(&b, " in %s", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	} else {
		fmt.Fprintf(&b, ": %d values, %d units", e.Values, e.Units)
	}
	return b.String()
}

// Measure is a list of numbers with their units as written.
// Units may hold a single entry shared by every value until Broadcast.
type Measure struct {
	Values []float64
	Units  []string
}

// Parse reads a whitespace-separated list of "value*unit" items.
// A bare number gets an empty unit.
func Parse(s string) (Measure, error) {
	var m Measure
	for _, item := range strings.Fields(s) {
		num, unit, _ := strings.Cut(item, "*")
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return Measure{}, fmt.Errorf("parse %q: %w", item, err)
		}
		unit = strings.TrimSpace(unit)
		if unit != "" && !Known(unit) {
			return Measure{}, fmt.Errorf("parse %q: unknown unit %q", item, unit)
		}
		m.Values = append(m.Values, v)
		m.Units = append(m.Units, unit)
	}
	return m, nil
}

// MustParse is like Parse but panics on error. For literals in tests and
// examples.
func MustParse(s string) Measure {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// New builds a measure from values and a unit list, which may be a single
// shared unit.
func New(values []float64, unit ...string) Measure {
	return Measure{Values: values, Units: unit}
}

// Len returns the number of values.
func (m Measure) Len() int {
	return len(m.Values)
}

// Broadcast returns m with one unit per value. A single shared unit is
// replicated; any other length mismatch is a UnitMismatchError.
func (m Measure) Broadcast() (Measure, error) {
	switch {
	case len(m.Units) == len(m.Values):
		return m, nil
	case len(m.Units) == 0:
		return Measure{Values: m.Values, Units: make([]string, len(m.Values))}, nil
	case len(m.Units) == 1:
		u := make([]string, len(m.Values))
		for i := range u {
			u[i] = m.Units[0]
		}
		return Measure{Values: m.Values, Units: u}, nil
	}
	return Measure{}, &UnitMismatchError{Values: len(m.Values), Units: len(m.Units)}
}

// Base converts every value to the base unit of the matching category.
// cats must be as long as the measure.
func (m Measure) Base(cats []Category) ([]float64, error) {
	b, err := m.Broadcast()
	if err != nil {
		return nil, err
	}
	if len(cats) != len(b.Values) {
		return nil, fmt.Errorf("expected %d values, got %d", len(cats), len(b.Values))
	}
	out := make([]float64, len(b.Values))
	for i, v := range b.Values {
		c, err := Convert(v, b.Units[i], cats[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// Uniform returns a category list of length n filled with c.
func Uniform(c Category, n int) []Category {
	out := make([]Category, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// String renders m in catalog form: "value*unit " per entry.
func (m Measure) String() string {
	b, err := m.Broadcast()
	if err != nil {
		b = m
	}
	var sb strings.Builder
	for i, v := range b.Values {
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		if i < len(b.Units) && b.Units[i] != "" {
			sb.WriteByte('*')
			sb.WriteString(b.Units[i])
		}
		sb.WriteByte(' ')
	}
	return sb.String()
}
