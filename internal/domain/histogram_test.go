package domain

import (
	"math"
	"testing"
)

// TestClosestHistogram_Normalize verifies each category column sums to 1
// after normalization.
func TestClosestHistogram_Normalize(t *testing.T) {
	h := &ClosestHistogram{Ranks: 4, Freq: []float64{
		2, 1, 0,
		2, 1, 0,
		2, 1, 0,
		2, 1, 0,
	}}
	h.Normalize()

	for c := 0; c < NMeanCategories; c++ {
		sum := 0.0
		for r := 0; r < h.Ranks; r++ {
			sum += h.Weight(r, c)
		}
		if c == 2 {
			if sum != 0 {
				t.Errorf("empty category should remain zero, got %.4f", sum)
			}
			continue
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("category %d sums to %.6f, expected 1", c, sum)
		}
	}
}

// TestClosestHistogram_WeightBounds checks out-of-range lookups weigh zero.
func TestClosestHistogram_WeightBounds(t *testing.T) {
	h := &ClosestHistogram{Ranks: 2, Freq: []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}}
	for _, rc := range [][2]int{{-1, 0}, {2, 0}, {0, -1}, {0, NMeanCategories}} {
		if w := h.Weight(rc[0], rc[1]); w != 0 {
			t.Errorf("Weight(%d, %d): expected 0, got %.4f", rc[0], rc[1], w)
		}
	}
}

// TestMeanCategory covers the stratification boundaries.
func TestMeanCategory(t *testing.T) {
	cases := []struct {
		mean float64
		want int
	}{
		{0.01, 0}, {0.99, 0}, {1.0, 1}, {4.99, 1}, {5.0, 2}, {40, 2},
	}
	for _, c := range cases {
		if got := MeanCategory(c.mean); got != c.want {
			t.Errorf("MeanCategory(%.2f): expected %d, got %d", c.mean, c.want, got)
		}
	}
}
