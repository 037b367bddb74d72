package units

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	m, err := Parse("10*mm 12*cm 1*m 3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Measure{
		Values: []float64{10, 12, 1, 3},
		Units:  []string{"mm", "cm", "m", ""},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsUnknownUnit(t *testing.T) {
	if _, err := Parse("1*furlong"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
	if _, err := Parse("abc*cm"); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestBroadcastSingleUnit(t *testing.T) {
	m := New([]float64{1, 2, 3}, "mm")
	b, err := m.Broadcast()
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if diff := cmp.Diff([]string{"mm", "mm", "mm"}, b.Units); diff != "" {
		t.Errorf("units (-want +got):\n%s", diff)
	}
}

func TestBroadcastMismatch(t *testing.T) {
	m := New([]float64{1, 2, 3}, "mm", "cm")
	_, err := m.Broadcast()
	var ume *UnitMismatchError
	if !errors.As(err, &ume) {
		t.Fatalf("expected UnitMismatchError, got %v", err)
	}
	if ume.Values != 3 || ume.Units != 2 {
		t.Errorf("got %d values / %d units, want 3 / 2", ume.Values, ume.Units)
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		value float64
		unit  string
		cat   Category
		want  float64
	}{
		{10, "mm", Length, 1},
		{1, "m", Length, 100},
		{2, "inches", Length, 5.08},
		{5, "", Length, 5},
		{180, "deg", Angle, math.Pi},
		{250, "mrad", Angle, 0.25},
	}
	for _, tt := range tests {
		got, err := Convert(tt.value, tt.unit, tt.cat)
		if err != nil {
			t.Errorf("Convert(%v, %q): %v", tt.value, tt.unit, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Convert(%v, %q) = %v, want %v", tt.value, tt.unit, got, tt.want)
		}
	}
}

func TestBaseFlagsSharedUnitAcrossMixedCategories(t *testing.T) {
	// A trapezoid-like list: half-length, then two angles, all in "cm".
	m := New([]float64{10, 5, 0}, "cm")
	_, err := m.Base([]Category{Length, Angle, Angle})
	var ume *UnitMismatchError
	if !errors.As(err, &ume) {
		t.Fatalf("expected UnitMismatchError, got %v", err)
	}

	// Zero-valued angles carry no unit information and pass.
	m = New([]float64{10, 0, 0}, "cm")
	got, err := m.Base([]Category{Length, Angle, Angle})
	if err != nil {
		t.Fatalf("Base: %v", err)
	}
	if diff := cmp.Diff([]float64{10, 0, 0}, got); diff != "" {
		t.Errorf("Base (-want +got):\n%s", diff)
	}
}

func TestMeasureString(t *testing.T) {
	m := New([]float64{1, 2.5, 0}, "mm")
	if got, want := m.String(), "1*mm 2.5*mm 0*mm "; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	back, err := Parse(m.String())
	if err != nil {
		t.Fatalf("Parse(String()): %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2.5, 0}, back.Values); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
}
