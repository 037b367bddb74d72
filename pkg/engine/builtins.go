package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/detgeo/pkg/sensitive"
	"github.com/chazu/detgeo/pkg/shape"
	"github.com/chazu/detgeo/pkg/volume"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSensitive wraps a sensitive descriptor so it can be returned from
// `sensitive` and consumed by `bank-row` and `identity`.
type sexpSensitive struct {
	desc *sensitive.Descriptor
}

func (s *sexpSensitive) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(sensitive %q)", s.desc.Name)
}
func (s *sexpSensitive) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Volume fields
// ---------------------------------------------------------------------------

// volumeKeys maps keyword names to their position in the text record.
var volumeKeys = map[string]int{
	"mother":      1,
	"description": 2,
	"pos":         3,
	"rot":         4,
	"color":       5,
	"type":        6,
	"dims":        7,
	"material":    8,
	"mfield":      9,
	"ncopy":       10,
	"pmany":       11,
	"exist":       12,
	"visible":     13,
	"style":       14,
	"sensitivity": 15,
	"hit-type":    16,
	"identity":    17,
	"rmin":        18,
	"rmax":        19,
}

// defaultFields returns the text record of a volume with catalog defaults.
func defaultFields(name string) []string {
	return []string{
		name, volume.RootMother, "", "0*cm 0*cm 0*cm", "0*deg 0*deg 0*deg", "000000",
		"", "", "", "no",
		"1", "1", "1", "1", "1",
		"no", "no", "no",
		strconv.Itoa(volume.DefaultRMin), strconv.Itoa(volume.DefaultRMax),
	}
}

// sensitiveKeys maps keyword names to descriptor threshold fields.
func sensitiveKeys(d *sensitive.Descriptor) map[string]*string {
	return map[string]*string{
		"description":      &d.Description,
		"identifiers":      &d.Identifiers,
		"signal-threshold": &d.SignalThreshold,
		"time-window":      &d.TimeWindow,
		"prod-threshold":   &d.ProdThreshold,
		"max-step":         &d.MaxStep,
		"rise-time":        &d.RiseTime,
		"fall-time":        &d.FallTime,
		"mv-to-mev":        &d.MVToMeV,
		"pedestal":         &d.Pedestal,
		"delay":            &d.Delay,
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// session is the per-evaluation state the builtins populate.
type session struct {
	det      *volume.Detector
	declared bool
}

// registerBuiltins installs the detector DSL builtins into a zygomys
// environment. The builtins populate s.det during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {

	// -----------------------------------------------------------------------
	// (detector "ctof" :variation "original" :id 1)
	// -----------------------------------------------------------------------
	env.AddFunction("detector", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("detector requires a name argument")
		}
		if s.declared {
			return zygo.SexpNull, fmt.Errorf("detector: already declared as %q", s.det.Name)
		}
		detName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("detector: name: %w", err)
		}
		s.det.Name = detName
		if v, ok := pa.kw["variation"]; ok {
			str, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("detector: variation: %w", err)
			}
			s.det.Variation = str
		}
		if v, ok := pa.kw["id"]; ok {
			id, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("detector: id: %w", err)
			}
			s.det.ID = id
		}
		s.declared = true
		return &zygo.SexpStr{S: detName}, nil
	})

	// -----------------------------------------------------------------------
	// (volume "paddle" :mother "sector" :type "G4Box" :dims "1*cm 2*cm 3*cm"
	//         :material "scintillator" :pos (list 0 0 10))
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("volume requires a name argument")
		}
		volName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: name: %w", err)
		}

		fields := defaultFields(volName)
		for _, key := range pa.order {
			idx, ok := volumeKeys[key]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("volume %s: unknown keyword :%s", volName, key)
			}
			f, err := toField(pa.kw[key])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("volume %s: %s: %w", volName, key, err)
			}
			fields[idx] = f
		}
		if fields[6] == "" {
			return zygo.SexpNull, fmt.Errorf("volume %s: :type is required", volName)
		}

		v, err := volume.FromFields(fields)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := s.det.Add(v); err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpStr{S: volName}, nil
	})

	// -----------------------------------------------------------------------
	// (sensitive "ctof" :identifiers "paddle side" :bank-id 350
	//            :signal-threshold "0.5*MeV")
	// -----------------------------------------------------------------------
	env.AddFunction("sensitive", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("sensitive requires a name argument")
		}
		sdName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sensitive: name: %w", err)
		}

		bankID := 0
		if v, ok := pa.kw["bank-id"]; ok {
			if bankID, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("sensitive %s: bank-id: %w", sdName, err)
			}
		}
		d := sensitive.New(sdName, "", "", bankID)
		fields := sensitiveKeys(d)
		for _, key := range pa.order {
			if key == "bank-id" {
				continue
			}
			dst, ok := fields[key]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("sensitive %s: unknown keyword :%s", sdName, key)
			}
			f, err := toField(pa.kw[key])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sensitive %s: %s: %w", sdName, key, err)
			}
			*dst = f
		}

		if err := s.det.AddSensitive(d); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSensitive{desc: d}, nil
	})

	// -----------------------------------------------------------------------
	// (bank-row sd "paddle" "paddle number" 1 "Di")
	//
	// Registered as "bank_row": the preprocessor rewrites the hyphen.
	// -----------------------------------------------------------------------
	env.AddFunction("bank_row", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 5 {
			return zygo.SexpNull, fmt.Errorf("bank-row requires 5 arguments (sensitive name comment id type), got %d", len(args))
		}
		d, err := s.lookupSensitive(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bank-row: %w", err)
		}
		rowName, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bank-row: name: %w", err)
		}
		comment, err := toString(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bank-row: comment: %w", err)
		}
		id, err := toInt(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bank-row: id: %w", err)
		}
		typ, err := toString(args[4])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bank-row: type: %w", err)
		}
		if err := d.AddBankRow(rowName, comment, id, typ); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSensitive{desc: d}, nil
	})

	// -----------------------------------------------------------------------
	// (identity sd 3 1) => "paddle manual 3 side manual 1 "
	// -----------------------------------------------------------------------
	env.AddFunction("identity", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("identity requires a sensitive detector argument")
		}
		d, err := s.lookupSensitive(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("identity: %w", err)
		}
		idx := make([]int, 0, len(args)-1)
		for i, a := range args[1:] {
			n, err := toInt(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("identity: index %d: %w", i, err)
			}
			idx = append(idx, n)
		}
		id, err := d.Identity(idx...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpStr{S: id}, nil
	})

	// -----------------------------------------------------------------------
	// (fit-trapezoid front depth p1x p1z theta1 p2x p2z theta2)
	// => [cx cz theta dx1 dx2]
	// -----------------------------------------------------------------------
	env.AddFunction("fit_trapezoid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 8 {
			return zygo.SexpNull, fmt.Errorf("fit-trapezoid requires 8 arguments, got %d", len(args))
		}
		var in [8]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fit-trapezoid: argument %d: %w", i+1, err)
			}
			in[i] = f
		}
		fit, err := shape.FitTrapezoid(in[0], in[1], in[2], in[3], in[4], in[5], in[6], in[7])
		if err != nil {
			return zygo.SexpNull, err
		}
		vals := []zygo.Sexp{
			&zygo.SexpFloat{Val: fit.CX},
			&zygo.SexpFloat{Val: fit.CZ},
			&zygo.SexpFloat{Val: fit.Theta},
			&zygo.SexpFloat{Val: fit.DX1},
			&zygo.SexpFloat{Val: fit.DX2},
		}
		return &zygo.SexpArray{Val: vals, Env: env}, nil
	})

	// -----------------------------------------------------------------------
	// (deg 90) => 1.5707963...
	// -----------------------------------------------------------------------
	env.AddFunction("deg", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("deg requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deg: %w", err)
		}
		return &zygo.SexpFloat{Val: f * math.Pi / 180}, nil
	})
}

// lookupSensitive accepts a descriptor returned by `sensitive` or its name.
func (s *session) lookupSensitive(arg zygo.Sexp) (*sensitive.Descriptor, error) {
	if sd, ok := arg.(*sexpSensitive); ok {
		return sd.desc, nil
	}
	n, err := toString(arg)
	if err != nil {
		return nil, fmt.Errorf("expected sensitive detector or name: %w", err)
	}
	d := s.det.FindSensitive(n)
	if d == nil {
		return nil, fmt.Errorf("no sensitive detector named %q", n)
	}
	return d, nil
}
