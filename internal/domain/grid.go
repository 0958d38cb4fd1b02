// Package domain implements the statistical correction engine for ensemble
// precipitation forecasts: zero-inflated distribution fitting, neighborhood
// expansion, quantile mapping, kernel dressing and the censored
// shifted-Gamma alternative path.
package domain

import (
	"fmt"
	"math"
)

// Missing is the sentinel written for cells with no valid value. It is used
// both inside intermediate fields (a cell whose mapping failed) and in output
// probability grids outside the valid-data mask.
const Missing = -9999.0

// IsMissing reports whether v is the missing-data sentinel.
func IsMissing(v float64) bool {
	return v <= Missing+0.5
}

// Geometry describes the fixed analysis grid shared by every field in one
// invocation: dimensions, coordinates and the validity mask.
type Geometry struct {
	NY, NX int
	Lats   []float64 // Length NY.
	Lons   []float64 // Length NX.
	Mask   []byte    // Length NY*NX, 1 = inside the analysis domain.
}

// Validate checks internal consistency of the geometry.
func (g *Geometry) Validate() error {
	if g.NY < 1 || g.NX < 1 {
		return fmt.Errorf("invalid grid dimensions %dx%d", g.NY, g.NX)
	}
	if len(g.Lats) != g.NY {
		return fmt.Errorf("latitude axis has %d points, expected %d", len(g.Lats), g.NY)
	}
	if len(g.Lons) != g.NX {
		return fmt.Errorf("longitude axis has %d points, expected %d", len(g.Lons), g.NX)
	}
	if len(g.Mask) != g.NY*g.NX {
		return fmt.Errorf("mask has %d cells, expected %d", len(g.Mask), g.NY*g.NX)
	}
	return nil
}

// Cells returns the total cell count NY*NX.
func (g *Geometry) Cells() int { return g.NY * g.NX }

// Valid reports whether cell (j, i) is inside the analysis domain.
func (g *Geometry) Valid(j, i int) bool {
	if j < 0 || j >= g.NY || i < 0 || i >= g.NX {
		return false
	}
	return g.Mask[j*g.NX+i] == 1
}

// GridField is one 2-D scalar field on the analysis grid, stored row major.
type GridField struct {
	NY, NX int
	Data   []float64
}

// NewGridField allocates a field filled with fill.
func NewGridField(ny, nx int, fill float64) *GridField {
	f := &GridField{NY: ny, NX: nx, Data: make([]float64, ny*nx)}
	if fill != 0 {
		for k := range f.Data {
			f.Data[k] = fill
		}
	}
	return f
}

// At returns the value at row j, column i.
func (f *GridField) At(j, i int) float64 { return f.Data[j*f.NX+i] }

// Set stores v at row j, column i.
func (f *GridField) Set(j, i int, v float64) { f.Data[j*f.NX+i] = v }

// FieldSummary holds min/max/mean over the masked-in cells of a field,
// skipping missing sentinels. Used for the per-stage diagnostic prints.
type FieldSummary struct {
	Min, Max, Mean float64
	Count          int
}

// Summarize computes summary statistics of f over the valid cells of geom.
func Summarize(f *GridField, geom *Geometry) FieldSummary {
	s := FieldSummary{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for j := 0; j < f.NY; j++ {
		for i := 0; i < f.NX; i++ {
			if !geom.Valid(j, i) {
				continue
			}
			v := f.At(j, i)
			if IsMissing(v) {
				continue
			}
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
			sum += v
			s.Count++
		}
	}
	if s.Count == 0 {
		return FieldSummary{}
	}
	s.Mean = sum / float64(s.Count)
	return s
}

func (s FieldSummary) String() string {
	return fmt.Sprintf("min=%.3f max=%.3f mean=%.3f n=%d", s.Min, s.Max, s.Mean, s.Count)
}

// EnsembleField is an ordered set of member fields on a common grid.
type EnsembleField struct {
	Members []*GridField
}

// NewEnsembleField allocates nMembers zeroed member fields.
func NewEnsembleField(nMembers, ny, nx int) *EnsembleField {
	e := &EnsembleField{Members: make([]*GridField, nMembers)}
	for m := range e.Members {
		e.Members[m] = NewGridField(ny, nx, 0)
	}
	return e
}

// Len returns the member count.
func (e *EnsembleField) Len() int { return len(e.Members) }

// Mean computes the per-cell ensemble mean, Missing where any member is
// missing at that cell.
func (e *EnsembleField) Mean() *GridField {
	first := e.Members[0]
	out := NewGridField(first.NY, first.NX, 0)
	for k := range out.Data {
		sum := 0.0
		ok := true
		for _, m := range e.Members {
			v := m.Data[k]
			if IsMissing(v) {
				ok = false
				break
			}
			sum += v
		}
		if !ok {
			out.Data[k] = Missing
			continue
		}
		out.Data[k] = sum / float64(len(e.Members))
	}
	return out
}

// MeanAbsSpread computes the per-cell mean absolute deviation of the members
// about the ensemble mean. Used as the spread statistic of the CSGD path.
func (e *EnsembleField) MeanAbsSpread(mean *GridField) *GridField {
	out := NewGridField(mean.NY, mean.NX, 0)
	for k := range out.Data {
		mu := mean.Data[k]
		if IsMissing(mu) {
			out.Data[k] = Missing
			continue
		}
		sum := 0.0
		for _, m := range e.Members {
			sum += math.Abs(m.Data[k] - mu)
		}
		out.Data[k] = sum / float64(len(e.Members))
	}
	return out
}

// PositiveFraction computes the per-cell fraction of members with positive
// precipitation, the POP-like statistic of the CSGD regression.
func (e *EnsembleField) PositiveFraction() *GridField {
	first := e.Members[0]
	out := NewGridField(first.NY, first.NX, 0)
	for k := range out.Data {
		n := 0
		for _, m := range e.Members {
			if m.Data[k] > 0 {
				n++
			}
		}
		out.Data[k] = float64(n) / float64(len(e.Members))
	}
	return out
}

// HasPositive reports whether any member holds a positive value anywhere.
// An all-nonpositive ensemble short-circuits the whole correction pipeline.
func (e *EnsembleField) HasPositive() bool {
	for _, m := range e.Members {
		for _, v := range m.Data {
			if v > 0 && !IsMissing(v) {
				return true
			}
		}
	}
	return false
}

// ExpandedEnsemble holds, for every cell, the stencil-expanded member values
// as a contiguous slice of length nMembers*stencilSize. It is produced fresh
// each run and never persisted.
type ExpandedEnsemble struct {
	NY, NX  int
	PerCell int // nMembers * stencil size.
	// Values is indexed [cell*PerCell + slot]; slot = member*stencil + offset.
	Values []float64
}

// CellValues returns the expanded member slice of cell (j, i).
func (x *ExpandedEnsemble) CellValues(j, i int) []float64 {
	k := (j*x.NX + i) * x.PerCell
	return x.Values[k : k+x.PerCell]
}
