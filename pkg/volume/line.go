package volume

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/detgeo/pkg/units"
)

const (
	lineFields     = 18
	lineFieldsRMax = 20
)

// Fields returns the record in the fixed text order, without rmin/rmax.
func (v *Volume) Fields() []string {
	kind := ""
	if v.Kind != nil {
		kind = v.Kind.String()
	}
	return []string{
		v.Name,
		v.Mother,
		v.Description,
		v.Pos.String(),
		v.Rot.String(),
		v.Color,
		kind,
		v.Dims.String(),
		v.Material,
		v.MagField,
		strconv.Itoa(v.NCopy),
		strconv.Itoa(v.PMany),
		boolField(v.Exist),
		boolField(v.Visible),
		boolField(v.Solid),
		v.Sensitivity,
		v.HitType,
		v.Identity,
	}
}

// String renders the pipe-separated text line. The line ends with a space
// after the identity field and no trailing bar.
func (v *Volume) String() string {
	return strings.Join(v.Fields(), " | ") + " "
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseLine parses a pipe-separated record of 18 or 20 fields.
func ParseLine(line string) (*Volume, error) {
	raw := strings.Split(strings.TrimRight(line, "\r\n"), "|")
	if len(raw) != lineFields && len(raw) != lineFieldsRMax {
		return nil, fmt.Errorf("volume line: expected %d or %d fields, got %d", lineFields, lineFieldsRMax, len(raw))
	}
	f := make([]string, len(raw))
	for i, s := range raw {
		f[i] = strings.TrimSpace(s)
	}
	return FromFields(f)
}

// FromFields builds a volume from already split fields, in text order,
// with optional rmin and rmax.
func FromFields(f []string) (*Volume, error) {
	if len(f) != lineFields && len(f) != lineFieldsRMax {
		return nil, fmt.Errorf("volume: expected %d or %d fields, got %d", lineFields, lineFieldsRMax, len(f))
	}
	v := &Volume{
		Name:        f[0],
		Mother:      f[1],
		Description: f[2],
		Color:       f[5],
		Material:    f[8],
		MagField:    f[9],
		Sensitivity: f[15],
		HitType:     f[16],
		Identity:    f[17],
		RMin:        DefaultRMin,
		RMax:        DefaultRMax,
	}
	if v.Name == "" {
		return nil, fmt.Errorf("volume: empty name")
	}

	var err error
	if v.Pos, err = parseMeasure(v.Name, "pos", f[3], "cm"); err != nil {
		return nil, err
	}
	if v.Rot, err = parseMeasure(v.Name, "rot", f[4], "deg"); err != nil {
		return nil, err
	}
	if v.Dims, err = parseMeasure(v.Name, "dims", f[7], ""); err != nil {
		return nil, err
	}

	if v.Kind, err = ParseKind(f[6]); err != nil {
		if ske, ok := err.(*ShapeKindError); ok {
			ske.Volume = v.Name
		}
		return nil, err
	}

	ints := []intField{
		{"ncopy", f[10], &v.NCopy},
		{"pmany", f[11], &v.PMany},
	}
	if len(f) == lineFieldsRMax {
		ints = append(ints, intField{"rmin", f[18], &v.RMin}, intField{"rmax", f[19], &v.RMax})
	}
	for _, it := range ints {
		n, err := strconv.Atoi(it.src)
		if err != nil {
			return nil, configErr(v.Name, fmt.Sprintf("%s: %v", it.name, err))
		}
		*it.dst = n
	}

	flags := []struct {
		name string
		src  string
		dst  *bool
	}{
		{"exist", f[12], &v.Exist},
		{"visible", f[13], &v.Visible},
		{"style", f[14], &v.Solid},
	}
	for _, b := range flags {
		n, err := strconv.Atoi(b.src)
		if err != nil {
			return nil, configErr(v.Name, fmt.Sprintf("%s: %v", b.name, err))
		}
		*b.dst = n != 0
	}
	return v, nil
}

type intField struct {
	name string
	src  string
	dst  *int
}

// parseMeasure parses a catalog measure; bare numbers take defUnit.
func parseMeasure(vol, field, s, defUnit string) (units.Measure, error) {
	m, err := units.Parse(s)
	if err != nil {
		return units.Measure{}, configErr(vol, fmt.Sprintf("%s: %v", field, err))
	}
	for i, u := range m.Units {
		if u == "" {
			m.Units[i] = defUnit
		}
	}
	return m, nil
}
