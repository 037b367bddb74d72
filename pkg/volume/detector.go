package volume

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/detgeo/pkg/sensitive"
)

// DefaultVariation is the variation used when none is given.
const DefaultVariation = "original"

// Detector accumulates the geometry and sensitive-detector descriptors of
// one detector subsystem for one variation and run id.
type Detector struct {
	Name      string
	Variation string
	ID        int
	Tree      *Tree
	Sensitive []*sensitive.Descriptor
}

// NewDetector returns an empty detector.
func NewDetector(name, variation string, id int) *Detector {
	if variation == "" {
		variation = DefaultVariation
	}
	return &Detector{Name: name, Variation: variation, ID: id, Tree: NewTree()}
}

// Add appends a volume to the detector tree.
func (d *Detector) Add(v *Volume) error {
	return d.Tree.Add(v)
}

// AddSensitive registers a descriptor. Names must be unique.
func (d *Detector) AddSensitive(s *sensitive.Descriptor) error {
	if d.FindSensitive(s.Name) != nil {
		return fmt.Errorf("detector %s: duplicate sensitive detector %q", d.Name, s.Name)
	}
	d.Sensitive = append(d.Sensitive, s)
	return nil
}

// FindSensitive returns the descriptor with the given name, or nil.
func (d *Detector) FindSensitive(name string) *sensitive.Descriptor {
	for _, s := range d.Sensitive {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// UsedSensitive returns the descriptors whose tag is carried by at least
// one volume, in tree order. Tags without a descriptor are reported.
func (d *Detector) UsedSensitive() ([]*sensitive.Descriptor, error) {
	var out []*sensitive.Descriptor
	var missing []string
	for _, tag := range d.Tree.SensitivityTags() {
		s := d.FindSensitive(tag)
		if s == nil {
			missing = append(missing, tag)
			continue
		}
		out = append(out, s)
	}
	if len(missing) > 0 {
		return out, fmt.Errorf("detector %s: no descriptor for sensitivity %s", d.Name, strings.Join(missing, ", "))
	}
	return out, nil
}

// Summary writes a short description of the detector contents.
func (d *Detector) Summary(w io.Writer) {
	fmt.Fprintf(w, "Detector %s variation %s id %d\n", d.Name, d.Variation, d.ID)
	fmt.Fprintf(w, "  volumes: %d\n", d.Tree.Len())
	for _, s := range d.Sensitive {
		fmt.Fprintf(w, "  sensitive %s (%d bank rows, %d volumes)\n", s.Name, len(s.Rows), len(d.Tree.BySensitivity(s.Name)))
	}
}
