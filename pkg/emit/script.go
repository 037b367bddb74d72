package emit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/detgeo/pkg/sensitive"
	"github.com/chazu/detgeo/pkg/volume"
)

// bankIDRowName is the readout field sensitive.New adds on its own.
const bankIDRowName = "bankid"

// WriteScript writes a detector script that rebuilds d when evaluated.
// Every volume field is written out so the script does not depend on the
// evaluator's defaults.
func WriteScript(w io.Writer, d *volume.Detector) error {
	sw := &scriptWriter{w: bufio.NewWriter(w)}

	sw.printf("; %s geometry, variation %s, run id %d\n", d.Name, d.Variation, d.ID)
	sw.printf("(detector %s :variation %s :id %d)\n", q(d.Name), q(d.Variation), d.ID)

	for _, s := range d.Sensitive {
		sw.printf("\n")
		writeSensitive(sw, s)
	}
	if d.Tree.Len() > 0 {
		sw.printf("\n")
	}
	for _, v := range d.Tree.Volumes() {
		writeVolume(sw, v)
	}

	if sw.err != nil {
		return sw.err
	}
	return sw.w.Flush()
}

func writeSensitive(sw *scriptWriter, s *sensitive.Descriptor) {
	sw.printf("(sensitive %s\n", q(s.Name))
	sw.printf("  :description %s :identifiers %s :bank-id %d\n", q(s.Description), q(s.Identifiers), s.BankID)
	sw.printf("  :signal-threshold %s :time-window %s :prod-threshold %s :max-step %s\n",
		q(s.SignalThreshold), q(s.TimeWindow), q(s.ProdThreshold), q(s.MaxStep))
	sw.printf("  :rise-time %s :fall-time %s :mv-to-mev %s :pedestal %s :delay %s)\n",
		q(s.RiseTime), q(s.FallTime), q(s.MVToMeV), q(s.Pedestal), q(s.Delay))
	for i, r := range s.Rows {
		if i == 0 && r.Name == bankIDRowName {
			continue
		}
		sw.printf("(bank-row %s %s %s %d %s)\n", q(s.Name), q(r.Name), q(r.Comment), r.ID, q(r.Type))
	}
}

func writeVolume(sw *scriptWriter, v *volume.Volume) {
	f := v.Fields()
	sw.printf("(volume %s\n", q(v.Name))
	sw.printf("  :mother %s :description %s\n", q(v.Mother), q(v.Description))
	sw.printf("  :type %s :dims %s\n", q(f[6]), q(strings.TrimSpace(f[7])))
	sw.printf("  :pos %s :rot %s\n", q(strings.TrimSpace(f[3])), q(strings.TrimSpace(f[4])))
	sw.printf("  :material %s :color %s :mfield %s\n", q(v.Material), q(v.Color), q(v.MagField))
	sw.printf("  :ncopy %d :pmany %d :exist %s :visible %s :style %s\n", v.NCopy, v.PMany, f[12], f[13], f[14])
	sw.printf("  :sensitivity %s :hit-type %s :identity %s\n", q(v.Sensitivity), q(v.HitType), q(v.Identity))
	sw.printf("  :rmin %d :rmax %d)\n", v.RMin, v.RMax)
}

// scriptWriter keeps the first write error so the emitters stay linear.
type scriptWriter struct {
	w   *bufio.Writer
	err error
}

func (sw *scriptWriter) printf(format string, args ...any) {
	if sw.err != nil {
		return
	}
	_, sw.err = fmt.Fprintf(sw.w, format, args...)
}

func q(s string) string {
	return strconv.Quote(s)
}
