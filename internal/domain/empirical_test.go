package domain

import (
	"math"
	"testing"
)

func newEmpiricalFixture() *EmpiricalDistribution {
	// One cell: 30% dry, then linear cumulative growth over the amount axis.
	return &EmpiricalDistribution{
		Amounts: []float64{0, 1, 2, 5, 10, 25},
		CDFs:    []float64{0.30, 0.55, 0.70, 0.85, 0.95, 1.0},
	}
}

// TestEmpiricalCDF_Interpolation checks linear interpolation between
// tabulated amounts.
func TestEmpiricalCDF_Interpolation(t *testing.T) {
	e := newEmpiricalFixture()

	cases := []struct {
		x, want float64
	}{
		{-1, 0.30},   // Below the axis: zero-amount mass.
		{0, 0.30},    // Exactly the zero mass.
		{0.5, 0.425}, // Halfway between 0.30 and 0.55.
		{1, 0.55},
		{3.5, 0.775}, // Halfway between 0.70 and 0.85.
		{25, 1.0},
		{100, 1.0}, // Beyond the axis: last tabulated value.
	}
	for _, c := range cases {
		got, ok := e.CDF(0, c.x)
		if !ok {
			t.Fatalf("CDF(%.2f) not defined", c.x)
		}
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("CDF(%.2f): expected %.4f, got %.4f", c.x, c.want, got)
		}
	}
}

// TestEmpiricalInvCDF checks inversion including the zero mass and the
// finite upper bound.
func TestEmpiricalInvCDF(t *testing.T) {
	e := newEmpiricalFixture()

	if x, ok := e.InvCDF(0, 0.2); !ok || x != 0 {
		t.Errorf("InvCDF below zero mass: expected 0, got %.4f (ok=%v)", x, ok)
	}
	if x, ok := e.InvCDF(0, 0.425); !ok || math.Abs(x-0.5) > 1e-12 {
		t.Errorf("InvCDF(0.425): expected 0.5, got %.4f (ok=%v)", x, ok)
	}
	// p beyond the table returns the last finite amount, never infinity.
	if x, ok := e.InvCDF(0, 1.0); !ok || x != 25 {
		t.Errorf("InvCDF(1.0): expected 25, got %.4f (ok=%v)", x, ok)
	}
}

// TestEmpirical_RoundTrip verifies invCdf(cdf(x)) ≈ x on the strictly
// increasing part of the table.
func TestEmpirical_RoundTrip(t *testing.T) {
	e := newEmpiricalFixture()
	for _, x := range []float64{0.25, 1.5, 3.0, 7.5, 20.0} {
		p, ok := e.CDF(0, x)
		if !ok {
			t.Fatalf("CDF(%.2f) not defined", x)
		}
		back, ok := e.InvCDF(0, p)
		if !ok {
			t.Fatalf("InvCDF(%.4f) not defined", p)
		}
		if math.Abs(back-x) > 1e-9 {
			t.Errorf("round trip of %.2f gave %.6f", x, back)
		}
	}
}

// TestEmpirical_InvalidTable checks that malformed tables report undefined.
func TestEmpirical_InvalidTable(t *testing.T) {
	e := &EmpiricalDistribution{
		Amounts: []float64{0, 1, 2},
		CDFs:    []float64{0.2, math.NaN(), 0.9},
	}
	if _, ok := e.CDF(0, 1.0); ok {
		t.Errorf("CDF over a NaN table should be undefined")
	}
	// A cell index beyond the table is undefined, not a panic.
	if _, ok := e.InvCDF(5, 0.5); ok {
		t.Errorf("InvCDF at out-of-table cell should be undefined")
	}
}
