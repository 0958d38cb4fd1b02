package domain

import (
	"math"
	"testing"
)

// uniformHistogram builds equal weights over ranks for every category.
func uniformHistogram(ranks int) *ClosestHistogram {
	h := &ClosestHistogram{Ranks: ranks, Freq: make([]float64, ranks*NMeanCategories)}
	for k := range h.Freq {
		h.Freq[k] = 1
	}
	h.Normalize()
	return h
}

// broadKernel returns fitted kernel params with the same moderate spread in
// every stratum.
func broadKernel() *GammaKernelParams {
	n := NAmountBins * int(NRankClasses)
	kp := &GammaKernelParams{Shape: make([]float64, n), Scale: make([]float64, n)}
	for k := 0; k < n; k++ {
		kp.Shape[k] = 1.0
		kp.Scale[k] = 2.0
	}
	return kp
}

func quietZeroMean() *ZeroMeanKernel {
	z := &ZeroMeanKernel{
		WetFrac: make([]float64, NPOPBins),
		Shape:   make([]float64, NPOPBins),
		Scale:   make([]float64, NPOPBins),
	}
	for b := 0; b < NPOPBins; b++ {
		z.WetFrac[b] = float64(b) / float64(NPOPBins)
		z.Shape[b] = 0.5
		z.Scale[b] = 1.0
	}
	return z
}

// degenerateMapped builds an expanded ensemble with every slot equal to v.
func degenerateMapped(geom *Geometry, perCell int, v float64) *ExpandedEnsemble {
	x := &ExpandedEnsemble{NY: geom.NY, NX: geom.NX, PerCell: perCell, Values: make([]float64, geom.Cells()*perCell)}
	for k := range x.Values {
		x.Values[k] = v
	}
	return x
}

// TestDress_DegenerateEnsembleSpreads verifies dressing restores spread
// around a collapsed quantile-mapped ensemble: mass both below and above the
// member value, with monotone exceedance across thresholds.
func TestDress_DegenerateEnsembleSpreads(t *testing.T) {
	geom := fullMaskGeometry(2, 2)
	perCell := 50 * StencilSize
	mapped := degenerateMapped(geom, perCell, 6.0)

	engine := &DressingEngine{
		Histogram: uniformHistogram(perCell),
		Kernel:    &GammaKernel{Params: broadKernel()},
		ZeroMean:  quietZeroMean(),
	}
	climPOP := NewGridField(2, 2, 0.3)
	thresholds := []float64{0.254, 1.0, 2.5, 5.0, 10.0, 25.0, 50.0}
	fields := engine.Dress(mapped, climPOP, geom, thresholds)

	p5 := fields[3].At(0, 0)  // Threshold 5.0 mm, below the member value.
	p10 := fields[4].At(0, 0) // Threshold 10.0 mm, above it.
	if p5 <= p10 {
		t.Errorf("P(>=5.0)=%.4f should exceed P(>=10.0)=%.4f", p5, p10)
	}
	if p5 != 1 {
		// Members sit at 6.0; thresholds below that are certain under the
		// one-sided kernel.
		t.Errorf("P(>=5.0): expected 1, got %.4f", p5)
	}
	if p10 <= 0 || p10 >= 1 {
		t.Errorf("P(>=10.0): expected dressing to spread mass above 6.0, got %.4f", p10)
	}

	// Monotone exceedance across the full threshold list.
	for ti := 1; ti < len(thresholds); ti++ {
		lo := fields[ti-1].At(1, 1)
		hi := fields[ti].At(1, 1)
		if lo < hi {
			t.Errorf("exceedance not monotone: P(>=%.3f)=%.4f < P(>=%.3f)=%.4f",
				thresholds[ti-1], lo, thresholds[ti], hi)
		}
	}
}

// TestDress_ZeroMeanUsesPOPTable verifies cells with a zero ensemble mean
// route through the climatological-POP table.
func TestDress_ZeroMeanUsesPOPTable(t *testing.T) {
	geom := fullMaskGeometry(1, 2)
	perCell := 10 * StencilSize
	mapped := degenerateMapped(geom, perCell, 0)

	engine := &DressingEngine{
		Histogram: uniformHistogram(perCell),
		Kernel:    SimpleKernel{},
		ZeroMean:  quietZeroMean(),
	}
	climPOP := NewGridField(1, 2, 0)
	climPOP.Set(0, 0, 0.05) // Bin 0: wet fraction 0.
	climPOP.Set(0, 1, 0.95) // Bin 9: wet fraction 0.9.

	thresholds := []float64{0.254, 1.0}
	fields := engine.Dress(mapped, climPOP, geom, thresholds)

	if p := fields[0].At(0, 0); p != 0 {
		t.Errorf("dry-climate zero-mean cell: expected 0, got %.4f", p)
	}
	p := fields[0].At(0, 1)
	if p <= 0 || p > 0.9 {
		t.Errorf("wet-climate zero-mean cell: expected (0, 0.9], got %.4f", p)
	}
	if pHigh := fields[1].At(0, 1); pHigh >= p {
		t.Errorf("zero-mean exceedance not monotone: %.4f >= %.4f", pHigh, p)
	}
}

// TestDress_MaskedCellsSentinel verifies out-of-mask cells hold the sentinel
// and in-mask probabilities stay in [0, 1].
func TestDress_MaskedCellsSentinel(t *testing.T) {
	geom := fullMaskGeometry(2, 2)
	geom.Mask[3] = 0
	perCell := 5 * StencilSize
	mapped := degenerateMapped(geom, perCell, 2.0)

	engine := &DressingEngine{
		Histogram: uniformHistogram(perCell),
		Kernel:    &GammaKernel{Params: broadKernel()},
		ZeroMean:  quietZeroMean(),
	}
	fields := engine.Dress(mapped, NewGridField(2, 2, 0.5), geom, []float64{1.0, 5.0})

	for _, f := range fields {
		if !IsMissing(f.At(1, 1)) {
			t.Errorf("masked cell: expected sentinel, got %.4f", f.At(1, 1))
		}
		for _, jk := range [][2]int{{0, 0}, {0, 1}, {1, 0}} {
			v := f.At(jk[0], jk[1])
			if v < 0 || v > 1 {
				t.Errorf("probability %.4f outside [0, 1] at (%d,%d)", v, jk[0], jk[1])
			}
		}
	}
}

// TestZeroMeanKernel_NaNWetFrac verifies a NaN table entry yields zero
// probability rather than propagating NaN into the dressed field.
func TestZeroMeanKernel_NaNWetFrac(t *testing.T) {
	z := quietZeroMean()
	z.WetFrac[4] = math.NaN()
	p := z.ExceedProb(4, 0.254)
	if math.IsNaN(p) {
		t.Fatalf("NaN wet fraction leaked through the kernel")
	}
	if p != 0 {
		t.Errorf("NaN wet fraction: expected 0, got %.4f", p)
	}
}

// TestSimpleKernel_FixedForm checks the fallback kernel's exponential tail.
func TestSimpleKernel_FixedForm(t *testing.T) {
	k := SimpleKernel{}
	if p := k.ExceedProb(RankInterior, 3, -1); p != 1 {
		t.Errorf("member above threshold: expected 1, got %.4f", p)
	}
	if p := k.ExceedProb(RankLowest, 0, 1.0); math.Abs(p-math.Exp(-1)) > 1e-12 {
		t.Errorf("unit offset: expected e^-1, got %.6f", p)
	}
}

// TestClassOf covers the rank stratification boundaries.
func TestClassOf(t *testing.T) {
	if ClassOf(0, 10) != RankLowest {
		t.Errorf("rank 0 should be lowest")
	}
	if ClassOf(9, 10) != RankHighest {
		t.Errorf("last rank should be highest")
	}
	if ClassOf(5, 10) != RankInterior {
		t.Errorf("middle rank should be interior")
	}
}

// TestAmountBin covers the stratum edges.
func TestAmountBin(t *testing.T) {
	cases := []struct {
		v    float64
		want int
	}{
		{0, 0}, {0.49, 0}, {0.5, 1}, {1.5, 2}, {3, 3}, {6, 4}, {12, 5}, {20, 6}, {32, 7}, {100, 7},
	}
	for _, c := range cases {
		if got := AmountBin(c.v); got != c.want {
			t.Errorf("AmountBin(%.2f): expected %d, got %d", c.v, c.want, got)
		}
	}
}
