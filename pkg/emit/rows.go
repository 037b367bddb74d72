package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/detgeo/pkg/volume"
)

// Key identifies a row across variations and revisions.
type Key struct {
	Variation string
	ID        int
	Name      string
}

// GeometryRow is one volume in relational form. The numeric flags are
// stored as 0/1 like the text format.
type GeometryRow struct {
	Key
	Mother      string
	Description string
	Pos         string
	Rot         string
	Col         string
	Type        string
	Dimensions  string
	Material    string
	MagField    string
	NCopy       int
	PMany       int
	Exist       int
	Visible     int
	Style       int
	Sensitivity string
	HitType     string
	Identity    string
	RMin        int
	RMax        int
}

// HitRow is one sensitive descriptor in relational form.
type HitRow struct {
	Key
	Description     string
	Identifiers     string
	SignalThreshold string
	TimeWindow      string
	ProdThreshold   string
	MaxStep         string
	RiseTime        string
	FallTime        string
	MVToMeV         float64
	Pedestal        float64
	Delay           string
}

// BankRow is one declared readout field of a bank.
type BankRow struct {
	Variation   string
	ID          int
	BankName    string
	Name        string
	Description string
	Num         int
	Type        string
}

// GeometryRows returns one row per volume in tree order.
func GeometryRows(d *volume.Detector) []GeometryRow {
	rows := make([]GeometryRow, 0, d.Tree.Len())
	for _, v := range d.Tree.Volumes() {
		f := v.Fields()
		rows = append(rows, GeometryRow{
			Key:         Key{Variation: d.Variation, ID: d.ID, Name: v.Name},
			Mother:      v.Mother,
			Description: v.Description,
			Pos:         strings.TrimSpace(f[3]),
			Rot:         strings.TrimSpace(f[4]),
			Col:         v.Color,
			Type:        f[6],
			Dimensions:  strings.TrimSpace(f[7]),
			Material:    v.Material,
			MagField:    v.MagField,
			NCopy:       v.NCopy,
			PMany:       v.PMany,
			Exist:       flag(v.Exist),
			Visible:     flag(v.Visible),
			Style:       flag(v.Solid),
			Sensitivity: v.Sensitivity,
			HitType:     v.HitType,
			Identity:    v.Identity,
			RMin:        v.RMin,
			RMax:        v.RMax,
		})
	}
	return rows
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FromGeometryRow rebuilds a volume. The key's variation and id are
// bookkeeping only and do not affect the volume.
func FromGeometryRow(r GeometryRow) (*volume.Volume, error) {
	return volume.FromFields([]string{
		r.Name, r.Mother, r.Description, r.Pos, r.Rot, r.Col, r.Type, r.Dimensions,
		r.Material, r.MagField,
		strconv.Itoa(r.NCopy), strconv.Itoa(r.PMany),
		strconv.Itoa(r.Exist), strconv.Itoa(r.Visible), strconv.Itoa(r.Style),
		r.Sensitivity, r.HitType, r.Identity,
		strconv.Itoa(r.RMin), strconv.Itoa(r.RMax),
	})
}

// HitRows returns one row per sensitivity tag in use.
func HitRows(d *volume.Detector) ([]HitRow, error) {
	used, err := d.UsedSensitive()
	if err != nil {
		return nil, err
	}
	rows := make([]HitRow, 0, len(used))
	for _, s := range used {
		mv, err := strconv.ParseFloat(strings.TrimSpace(s.MVToMeV), 64)
		if err != nil {
			return nil, fmt.Errorf("emit: hit %s: mvToMeV: %w", s.Name, err)
		}
		ped, err := strconv.ParseFloat(strings.TrimSpace(s.Pedestal), 64)
		if err != nil {
			return nil, fmt.Errorf("emit: hit %s: pedestal: %w", s.Name, err)
		}
		rows = append(rows, HitRow{
			Key:             Key{Variation: d.Variation, ID: d.ID, Name: s.Name},
			Description:     s.Description,
			Identifiers:     s.Identifiers,
			SignalThreshold: s.SignalThreshold,
			TimeWindow:      s.TimeWindow,
			ProdThreshold:   s.ProdThreshold,
			MaxStep:         s.MaxStep,
			RiseTime:        s.RiseTime,
			FallTime:        s.FallTime,
			MVToMeV:         mv,
			Pedestal:        ped,
			Delay:           s.Delay,
		})
	}
	return rows, nil
}

// BankRows returns one row per declared readout field of every
// sensitivity tag in use.
func BankRows(d *volume.Detector) ([]BankRow, error) {
	used, err := d.UsedSensitive()
	if err != nil {
		return nil, err
	}
	var rows []BankRow
	for _, s := range used {
		for _, r := range s.Rows {
			rows = append(rows, BankRow{
				Variation:   d.Variation,
				ID:          d.ID,
				BankName:    s.Name,
				Name:        r.Name,
				Description: r.Comment,
				Num:         r.ID,
				Type:        r.Type,
			})
		}
	}
	return rows, nil
}
