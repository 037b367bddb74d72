// Package emit writes a detector in its interchange formats: pipe-delimited
// text files, relational rows keyed by (variation, id, name), and a DSL
// script that rebuilds the detector. It also reads the text and row forms
// back.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/detgeo/pkg/volume"
)

// FileSet names the text files of one detector variation.
type FileSet struct {
	Geometry string
	Hits     string
	Banks    string
}

// FileNames returns the conventional file names for det and variation.
// Bank definitions do not depend on the variation.
func FileNames(det, variation string) FileSet {
	if variation == "" {
		variation = volume.DefaultVariation
	}
	return FileSet{
		Geometry: det + "__geometry_" + variation + ".txt",
		Hits:     det + "__hit_" + variation + ".txt",
		Banks:    det + "__bank.txt",
	}
}

// WriteGeometry writes one line per volume in tree order.
func WriteGeometry(w io.Writer, d *volume.Detector) error {
	bw := bufio.NewWriter(w)
	for _, v := range d.Tree.Volumes() {
		if _, err := fmt.Fprintln(bw, v.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteHits writes one hit definition line per sensitive descriptor.
func WriteHits(w io.Writer, d *volume.Detector) error {
	bw := bufio.NewWriter(w)
	for _, s := range d.Sensitive {
		if _, err := fmt.Fprintln(bw, s.HitString()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteBanks writes the bank rows of every descriptor, one blank line
// after each descriptor.
func WriteBanks(w io.Writer, d *volume.Detector) error {
	bw := bufio.NewWriter(w)
	for _, s := range d.Sensitive {
		if _, err := fmt.Fprintln(bw, s.BankString()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFiles writes the geometry, hit and bank files of d into dir and
// returns their paths. Hit and bank files are skipped when d declares no
// sensitive descriptors.
func WriteFiles(dir string, d *volume.Detector) (FileSet, error) {
	names := FileNames(d.Name, d.Variation)
	out := FileSet{Geometry: filepath.Join(dir, names.Geometry)}
	if err := writeFile(out.Geometry, d, WriteGeometry); err != nil {
		return FileSet{}, err
	}
	if len(d.Sensitive) == 0 {
		return out, nil
	}
	out.Hits = filepath.Join(dir, names.Hits)
	if err := writeFile(out.Hits, d, WriteHits); err != nil {
		return FileSet{}, err
	}
	out.Banks = filepath.Join(dir, names.Banks)
	if err := writeFile(out.Banks, d, WriteBanks); err != nil {
		return FileSet{}, err
	}
	return out, nil
}

func writeFile(path string, d *volume.Detector, write func(io.Writer, *volume.Detector) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	if err := write(f, d); err != nil {
		f.Close()
		return fmt.Errorf("emit: write %s: %w", path, err)
	}
	return f.Close()
}

// ReadGeometry parses a geometry text file into d. Blank lines and lines
// starting with '#' are skipped; errors carry the line number.
func ReadGeometry(r io.Reader, d *volume.Detector) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		v, err := volume.ParseLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := d.Add(v); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return sc.Err()
}

// ReadGeometryFile reads a geometry text file into a new detector. The
// detector name and variation come from the conventional file name when
// it has one.
func ReadGeometryFile(path string) (*volume.Detector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name, variation := splitFileName(filepath.Base(path))
	d := volume.NewDetector(name, variation, 1)
	if err := ReadGeometry(f, d); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func splitFileName(base string) (name, variation string) {
	base = strings.TrimSuffix(base, ".txt")
	name, variation, ok := strings.Cut(base, "__geometry_")
	if !ok {
		return base, volume.DefaultVariation
	}
	return name, variation
}
