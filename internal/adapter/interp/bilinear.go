// Package interp provides bilinear interpolation of probability grids for
// point queries from the HTTP surface. Probability values are clamped to
// [0, 1] after interpolation; missing-data cells poison the result.
package interp

import (
	"fmt"
	"math"
	"sort"

	"github.com/nwp-tools/precip-calib/internal/domain"
)

// ProbGrid is a probability field with its coordinate axes.
type ProbGrid struct {
	Lats   []float64 // Strictly increasing.
	Lons   []float64 // Strictly increasing.
	Values []float64 // Row major, len(Lats)*len(Lons).
}

// Validate checks axis ordering and value count.
func (g *ProbGrid) Validate() error {
	if len(g.Lats) < 2 || len(g.Lons) < 2 {
		return fmt.Errorf("grid must span at least 2 points per axis")
	}
	if len(g.Values) != len(g.Lats)*len(g.Lons) {
		return fmt.Errorf("grid has %d values, expected %d", len(g.Values), len(g.Lats)*len(g.Lons))
	}
	for i := 1; i < len(g.Lats); i++ {
		if g.Lats[i] <= g.Lats[i-1] {
			return fmt.Errorf("latitude axis must be strictly increasing")
		}
	}
	for i := 1; i < len(g.Lons); i++ {
		if g.Lons[i] <= g.Lons[i-1] {
			return fmt.Errorf("longitude axis must be strictly increasing")
		}
	}
	return nil
}

// At bilinearly interpolates the probability at (lat, lon). Queries outside
// the grid, or cells touching a missing-data corner, return an error.
func (g *ProbGrid) At(lat, lon float64) (float64, error) {
	yi, err := bracket(g.Lats, lat, "latitude")
	if err != nil {
		return 0, err
	}
	xi, err := bracket(g.Lons, lon, "longitude")
	if err != nil {
		return 0, err
	}

	nx := len(g.Lons)
	v00 := g.Values[yi*nx+xi]
	v10 := g.Values[yi*nx+xi+1]
	v01 := g.Values[(yi+1)*nx+xi]
	v11 := g.Values[(yi+1)*nx+xi+1]
	for _, v := range []float64{v00, v10, v01, v11} {
		if domain.IsMissing(v) {
			return 0, fmt.Errorf("no data at (%.4f, %.4f)", lat, lon)
		}
	}

	u := (lat - g.Lats[yi]) / (g.Lats[yi+1] - g.Lats[yi])
	t := (lon - g.Lons[xi]) / (g.Lons[xi+1] - g.Lons[xi])
	t = math.Max(0, math.Min(1, t))
	u = math.Max(0, math.Min(1, u))

	p := (1-t)*(1-u)*v00 + t*(1-u)*v10 + (1-t)*u*v01 + t*u*v11
	return math.Max(0, math.Min(1, p)), nil
}

// bracket finds the interval index containing x on an ascending axis.
func bracket(axis []float64, x float64, name string) (int, error) {
	if x < axis[0] || x > axis[len(axis)-1] {
		return 0, fmt.Errorf("%s %.4f is outside grid range [%.4f, %.4f]", name, x, axis[0], axis[len(axis)-1])
	}
	i := sort.SearchFloat64s(axis, x)
	if i > 0 {
		i--
	}
	if i == len(axis)-1 {
		i--
	}
	return i, nil
}
