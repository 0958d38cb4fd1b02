package domain

import (
	"math"
	"testing"
)

// TestFitFromSamples_MixedWetDry checks the fraction-zero estimate and the
// moment relations of the fitted positive part.
func TestFitFromSamples_MixedWetDry(t *testing.T) {
	samples := []float64{0, 0, 0, 0, 1.2, 2.5, 4.0, 8.5, 0.4, 3.1}
	p := FitFromSamples(samples)

	if math.Abs(p.FracZero-0.4) > 1e-12 {
		t.Errorf("FracZero: expected 0.4, got %.6f", p.FracZero)
	}
	if !p.PositiveDefined() {
		t.Fatalf("positive part should be defined, got %+v", p)
	}

	// shape*scale must reproduce the positive-sample mean.
	mean := (1.2 + 2.5 + 4.0 + 8.5 + 0.4 + 3.1) / 6
	if math.Abs(p.Shape*p.Scale-mean) > 1e-9 {
		t.Errorf("shape*scale: expected %.6f, got %.6f", mean, p.Shape*p.Scale)
	}
}

// TestFitFromSamples_AllZero checks the degenerate dry-cell fit.
func TestFitFromSamples_AllZero(t *testing.T) {
	p := FitFromSamples([]float64{0, 0, 0})

	if p.FracZero != 1 {
		t.Errorf("FracZero: expected 1, got %.6f", p.FracZero)
	}
	if p.PositiveDefined() {
		t.Errorf("positive part should be undefined for an all-zero cell")
	}
	if !p.Defined() {
		t.Errorf("an all-zero cell is still a defined (certain zero) distribution")
	}

	// Queries behave as certain zero.
	g := &GammaDistribution{Params: []DistParams{p}}
	if c, ok := g.CDF(0, 3.0); !ok || c != 1 {
		t.Errorf("CDF at dry cell: expected (1, true), got (%.6f, %v)", c, ok)
	}
	if x, ok := g.InvCDF(0, 0.99); !ok || x != 0 {
		t.Errorf("InvCDF at dry cell: expected (0, true), got (%.6f, %v)", x, ok)
	}
}

// TestFitFromSamples_EqualPositives checks the collapsed D-statistic branch.
func TestFitFromSamples_EqualPositives(t *testing.T) {
	p := FitFromSamples([]float64{5, 5, 5, 5})
	if !p.PositiveDefined() {
		t.Fatalf("expected defined positive part, got %+v", p)
	}
	if math.Abs(p.Shape*p.Scale-5.0) > 1e-9 {
		t.Errorf("mean: expected 5.0, got %.6f", p.Shape*p.Scale)
	}
}

// TestGammaDistribution_RoundTrip verifies invCdf(cdf(x)) ≈ x for cells
// without a zero mass.
func TestGammaDistribution_RoundTrip(t *testing.T) {
	g := &GammaDistribution{Params: []DistParams{
		{FracZero: 0, Shape: 0.7, Scale: 3.2},
		{FracZero: 0, Shape: 2.5, Scale: 1.1},
	}}

	for cell := 0; cell < 2; cell++ {
		for _, x := range []float64{0.1, 0.5, 1.0, 2.5, 5.0, 12.0, 30.0} {
			p, ok := g.CDF(cell, x)
			if !ok {
				t.Fatalf("cell %d: CDF(%.1f) not defined", cell, x)
			}
			back, ok := g.InvCDF(cell, p)
			if !ok {
				t.Fatalf("cell %d: InvCDF(%.6f) not defined", cell, p)
			}
			if math.Abs(back-x) > 1e-6*math.Max(1, x) {
				t.Errorf("cell %d: round trip of %.3f gave %.6f", cell, x, back)
			}
		}
	}
}

// TestGammaDistribution_ZeroMass verifies the discrete jump at zero.
func TestGammaDistribution_ZeroMass(t *testing.T) {
	g := &GammaDistribution{Params: []DistParams{
		{FracZero: 0.6, Shape: 1.5, Scale: 2.0},
	}}

	// Any probability at or below the zero mass inverts to 0.
	for _, p := range []float64{0, 0.1, 0.3, 0.6} {
		if x, ok := g.InvCDF(0, p); !ok || x != 0 {
			t.Errorf("InvCDF(%.2f): expected (0, true), got (%.6f, %v)", p, x, ok)
		}
	}

	// CDF at zero equals the zero mass.
	if c, ok := g.CDF(0, 0); !ok || math.Abs(c-0.6) > 1e-12 {
		t.Errorf("CDF(0): expected 0.6, got %.6f (ok=%v)", c, ok)
	}

	// The inverse at p -> 1 is finite.
	x, ok := g.InvCDF(0, 1)
	if !ok || math.IsInf(x, 0) || math.IsNaN(x) {
		t.Errorf("InvCDF(1): expected finite value, got %.6f (ok=%v)", x, ok)
	}
}

// TestGammaDistribution_InvalidParams checks that broken parameters report
// undefined rather than producing NaN amounts.
func TestGammaDistribution_InvalidParams(t *testing.T) {
	g := &GammaDistribution{Params: []DistParams{
		{FracZero: 0.2, Shape: math.NaN(), Scale: 1.0},
		{FracZero: 0.2, Shape: -1.0, Scale: 1.0},
		{FracZero: math.NaN(), Shape: 1.0, Scale: 1.0},
	}}
	for cell := 0; cell < 3; cell++ {
		if _, ok := g.CDF(cell, 1.0); ok {
			t.Errorf("cell %d: CDF should be undefined", cell)
		}
		if _, ok := g.InvCDF(cell, 0.5); ok {
			t.Errorf("cell %d: InvCDF should be undefined", cell)
		}
	}
}

// TestFitFromStats_SufficientStats verifies the incremental accumulator path
// agrees with the sample path.
func TestFitFromStats_SufficientStats(t *testing.T) {
	samples := []float64{0, 1.5, 0, 2.25, 7.75, 0.5}
	var s SufficientStats
	for _, v := range samples {
		s.Add(v)
	}
	got := FitFromStats(s)
	want := FitFromSamples(samples)

	if math.Abs(got.FracZero-want.FracZero) > 1e-12 ||
		math.Abs(got.Shape-want.Shape) > 1e-12 ||
		math.Abs(got.Scale-want.Scale) > 1e-12 {
		t.Errorf("stats fit %+v differs from sample fit %+v", got, want)
	}
}
