package interp

import (
	"math"
	"testing"

	"github.com/nwp-tools/precip-calib/internal/domain"
)

func testGrid() *ProbGrid {
	return &ProbGrid{
		Lats: []float64{40.0, 41.0, 42.0},
		Lons: []float64{-100.0, -99.0, -98.0},
		Values: []float64{
			0.0, 0.2, 0.4,
			0.2, 0.4, 0.6,
			0.4, 0.6, 0.8,
		},
	}
}

func TestProbGrid_AtNodes(t *testing.T) {
	g := testGrid()
	cases := []struct {
		lat, lon, want float64
	}{
		{40.0, -100.0, 0.0},
		{41.0, -99.0, 0.4},
		{42.0, -98.0, 0.8},
	}
	for _, c := range cases {
		got, err := g.At(c.lat, c.lon)
		if err != nil {
			t.Fatalf("At(%.1f, %.1f): %v", c.lat, c.lon, err)
		}
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("At(%.1f, %.1f): expected %.4f, got %.4f", c.lat, c.lon, c.want, got)
		}
	}
}

func TestProbGrid_AtMidpoint(t *testing.T) {
	g := testGrid()
	got, err := g.At(40.5, -99.5)
	if err != nil {
		t.Fatal(err)
	}
	// Average of the four surrounding corners 0.0, 0.2, 0.2, 0.4.
	if math.Abs(got-0.2) > 1e-12 {
		t.Errorf("midpoint: expected 0.2, got %.4f", got)
	}
}

func TestProbGrid_OutOfRange(t *testing.T) {
	g := testGrid()
	for _, c := range [][2]float64{{39.0, -99.0}, {43.0, -99.0}, {41.0, -101.0}, {41.0, -97.0}} {
		if _, err := g.At(c[0], c[1]); err == nil {
			t.Errorf("At(%.1f, %.1f): expected out-of-range error", c[0], c[1])
		}
	}
}

func TestProbGrid_MissingCorner(t *testing.T) {
	g := testGrid()
	g.Values[4] = domain.Missing
	if _, err := g.At(40.5, -99.5); err == nil {
		t.Error("expected error when a surrounding corner is missing")
	}
	// A cell not touching the missing corner still interpolates.
	if _, err := g.At(41.6, -98.4); err != nil {
		t.Errorf("clean cell: unexpected error %v", err)
	}
}

func TestProbGrid_Validate(t *testing.T) {
	bad := []*ProbGrid{
		{Lats: []float64{1}, Lons: []float64{1, 2}, Values: []float64{0, 0}},
		{Lats: []float64{1, 2}, Lons: []float64{1, 2}, Values: []float64{0, 0, 0}},
		{Lats: []float64{2, 1}, Lons: []float64{1, 2}, Values: []float64{0, 0, 0, 0}},
		{Lats: []float64{1, 2}, Lons: []float64{1, 1}, Values: []float64{0, 0, 0, 0}},
	}
	for i, g := range bad {
		if err := g.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
	if err := testGrid().Validate(); err != nil {
		t.Errorf("valid grid: %v", err)
	}
}
