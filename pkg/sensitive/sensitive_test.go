package sensitive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIdentity(t *testing.T) {
	d := New("ECAL", "ecal crystals", "idx idy", 700)
	got, err := d.Identity(3, 7)
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if want := "idx manual 3 idy manual 7 "; got != want {
		t.Errorf("Identity(3,7) = %q, want %q", got, want)
	}
}

func TestIdentityArity(t *testing.T) {
	d := New("ECAL", "", "idx idy", 700)
	if _, err := d.Identity(3); err == nil {
		t.Fatal("expected error for missing index")
	}

	got, err := d.Identity(3, 7, 11)
	if err != nil {
		t.Fatalf("extra index rejected: %v", err)
	}
	if want := "idx manual 3 idy manual 7 "; got != want {
		t.Errorf("Identity(3,7,11) = %q, want %q", got, want)
	}
}

func TestNewAddsBankIDRow(t *testing.T) {
	d := New("HODO", "hodoscope", "ilayer ix", 900)
	want := []BankRow{{Name: "bankid", Comment: "HODO bank id", ID: 900, Type: "Di"}}
	if diff := cmp.Diff(want, d.Rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if d.TimeWindow != "10*ns" || d.MaxStep != "1*mm" || d.MVToMeV != "1" {
		t.Errorf("defaults not applied: %+v", d)
	}
}

func TestAddBankRow(t *testing.T) {
	d := New("HODO", "hodoscope", "ilayer ix", 900)
	if err := d.AddBankRow("ix", "x index", 1, "Di"); err != nil {
		t.Fatalf("AddBankRow: %v", err)
	}
	if err := d.AddBankRow("adc", "adc", 2, "Xq"); err == nil {
		t.Error("expected error for invalid type code")
	}
	if err := d.AddBankRow("ix", "again", 3, "Di"); err == nil {
		t.Error("expected error for duplicate row")
	}
}

func TestHitAndBankStrings(t *testing.T) {
	d := New("HODO", "hodoscope", "ilayer ix", 900)
	if err := d.AddBankRow("adc", "adc counts", 2, "Di"); err != nil {
		t.Fatal(err)
	}

	hit := d.HitString()
	if !strings.HasPrefix(hit, "HODO | hodoscope | ilayer ix | 0*MeV | 10*ns") {
		t.Errorf("unexpected hit string %q", hit)
	}
	if n := strings.Count(hit, " | "); n != 11 {
		t.Errorf("hit string has %d separators, want 11", n)
	}

	want := "HODO | bankid | HODO bank id | 900 | Di\n" +
		"HODO | adc | adc counts | 2 | Di\n"
	if got := d.BankString(); got != want {
		t.Errorf("BankString() =\n%s\nwant\n%s", got, want)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	src := `
sensitive:
  - name: ECAL
    description: ecal crystals
    identifiers: idx idy
    bankId: 700
    timeWindow: 20*ns
    rows:
      - {name: idx, comment: x index, id: 1, type: Di}
`
	ds, err := LoadYAML(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if len(ds) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(ds))
	}
	d := ds[0]
	if d.TimeWindow != "20*ns" || d.RiseTime != "1*ns" {
		t.Errorf("thresholds: timeWindow=%q riseTime=%q", d.TimeWindow, d.RiseTime)
	}
	if len(d.Rows) != 2 || d.Rows[0].Name != "bankid" {
		t.Fatalf("expected bankid row first, got %+v", d.Rows)
	}

	var buf bytes.Buffer
	if err := WriteYAML(&buf, ds); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := LoadYAML(&buf)
	if err != nil {
		t.Fatalf("LoadYAML(WriteYAML): %v", err)
	}
	if diff := cmp.Diff(ds, back); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}
