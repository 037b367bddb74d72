// Package sensitive describes sensitive-detector readout: which identifier
// fields a hit carries, the digitization thresholds, and the bank rows a
// readout produces.
package sensitive

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BankRow is one declared readout field.
type BankRow struct {
	Name    string `yaml:"name"`
	Comment string `yaml:"comment"`
	ID      int    `yaml:"id"`
	Type    string `yaml:"type"`
}

func (r BankRow) String() string {
	return fmt.Sprintf("%s | %s | %d | %s", r.Name, r.Comment, r.ID, r.Type)
}

// Descriptor is a sensitive-detector definition. Threshold and timing
// fields keep their unit strings as written.
type Descriptor struct {
	Name            string    `yaml:"name"`
	Description     string    `yaml:"description"`
	Identifiers     string    `yaml:"identifiers"`
	SignalThreshold string    `yaml:"signalThreshold"`
	TimeWindow      string    `yaml:"timeWindow"`
	ProdThreshold   string    `yaml:"prodThreshold"`
	MaxStep         string    `yaml:"maxStep"`
	RiseTime        string    `yaml:"riseTime"`
	FallTime        string    `yaml:"fallTime"`
	MVToMeV         string    `yaml:"mvToMeV"`
	Pedestal        string    `yaml:"pedestal"`
	Delay           string    `yaml:"delay"`
	BankID          int       `yaml:"bankId"`
	Rows            []BankRow `yaml:"rows"`
}

// New returns a descriptor with default thresholds and the automatic
// bank id row.
func New(name, description, identifiers string, bankID int) *Descriptor {
	d := &Descriptor{
		Name:        name,
		Description: description,
		Identifiers: identifiers,
		BankID:      bankID,
	}
	d.applyDefaults()
	d.Rows = []BankRow{bankIDRow(name, bankID)}
	return d
}

func bankIDRow(name string, id int) BankRow {
	return BankRow{Name: "bankid", Comment: name + " bank id", ID: id, Type: "Di"}
}

func (d *Descriptor) applyDefaults() {
	set := func(p *string, v string) {
		if *p == "" {
			*p = v
		}
	}
	set(&d.SignalThreshold, "0*MeV")
	set(&d.TimeWindow, "10*ns")
	set(&d.ProdThreshold, "0*mm")
	set(&d.MaxStep, "1*mm")
	set(&d.RiseTime, "1*ns")
	set(&d.FallTime, "1*ns")
	set(&d.MVToMeV, "1")
	set(&d.Pedestal, "0")
	set(&d.Delay, "0*ns")
}

// ValidType reports whether code is a bank type: a storage class
// (R raw, D digitized, S, M, V) followed by i (int) or d (double).
func ValidType(code string) bool {
	if len(code) != 2 {
		return false
	}
	return strings.ContainsRune("RDSMV", rune(code[0])) && strings.ContainsRune("id", rune(code[1]))
}

// AddBankRow appends a readout field.
func (d *Descriptor) AddBankRow(name, comment string, id int, typ string) error {
	if !ValidType(typ) {
		return fmt.Errorf("sensitive %s: bank row %q: invalid type %q", d.Name, name, typ)
	}
	for _, r := range d.Rows {
		if r.Name == name {
			return fmt.Errorf("sensitive %s: duplicate bank row %q", d.Name, name)
		}
	}
	d.Rows = append(d.Rows, BankRow{Name: name, Comment: comment, ID: id, Type: typ})
	return nil
}

// IdentifierNames returns the declared identifier fields in order.
func (d *Descriptor) IdentifierNames() []string {
	return strings.Fields(d.Identifiers)
}

// Identity encodes one index per identifier field as
// "name manual value " pairs. Indexes beyond the identifier count are
// ignored; too few is an error.
func (d *Descriptor) Identity(indexes ...int) (string, error) {
	names := d.IdentifierNames()
	if len(indexes) < len(names) {
		return "", fmt.Errorf("sensitive %s: %d identifiers, %d indexes", d.Name, len(names), len(indexes))
	}
	var b strings.Builder
	for i, n := range names {
		b.WriteString(n)
		b.WriteString(" manual ")
		b.WriteString(strconv.Itoa(indexes[i]))
		b.WriteByte(' ')
	}
	return b.String(), nil
}

// HitFields returns the hit definition in output order.
func (d *Descriptor) HitFields() []string {
	return []string{
		d.Name, d.Description, d.Identifiers,
		d.SignalThreshold, d.TimeWindow, d.ProdThreshold, d.MaxStep,
		d.RiseTime, d.FallTime, d.MVToMeV, d.Pedestal, d.Delay,
	}
}

// HitString is the one-line hit definition.
func (d *Descriptor) HitString() string {
	return strings.Join(d.HitFields(), " | ")
}

// BankString is the bank definition, one line per row.
func (d *Descriptor) BankString() string {
	var b strings.Builder
	for _, r := range d.Rows {
		b.WriteString(d.Name)
		b.WriteString(" | ")
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// LoadYAML reads a list of descriptors. Missing thresholds take their
// defaults and the bank id row is added when absent.
func LoadYAML(r io.Reader) ([]*Descriptor, error) {
	var doc struct {
		Sensitive []*Descriptor `yaml:"sensitive"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("sensitive: decode: %w", err)
	}
	for _, d := range doc.Sensitive {
		if d.Name == "" {
			return nil, fmt.Errorf("sensitive: descriptor without name")
		}
		d.applyDefaults()
		hasID := false
		for _, row := range d.Rows {
			if !ValidType(row.Type) {
				return nil, fmt.Errorf("sensitive %s: bank row %q: invalid type %q", d.Name, row.Name, row.Type)
			}
			if row.Name == "bankid" {
				hasID = true
			}
		}
		if !hasID {
			d.Rows = append([]BankRow{bankIDRow(d.Name, d.BankID)}, d.Rows...)
		}
	}
	return doc.Sensitive, nil
}

// WriteYAML writes descriptors in the format LoadYAML reads.
func WriteYAML(w io.Writer, ds []*Descriptor) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := struct {
		Sensitive []*Descriptor `yaml:"sensitive"`
	}{Sensitive: ds}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("sensitive: encode: %w", err)
	}
	return enc.Close()
}
