package domain

import "math"

// QuantileMapper maps expanded member values through the forecast CDF and
// the analysis inverse CDF, cell by cell. Exchangeable systems supply one
// pooled forecast Distribution; non-exchangeable systems supply one per
// member, indexed by the originating member of each expanded slot.
type QuantileMapper struct {
	Forecast []Distribution // One entry (pooled) or one per member.
	Analysis Distribution
}

// Map produces the quantile-mapped expanded ensemble. A cell whose forecast
// or analysis parameters are undefined maps to 0, not to a missing value:
// absent a fitted forecast signal the engine must not fabricate probability.
// A numerically failed quantile (NaN/Inf) maps to the Missing sentinel and
// is excluded from downstream aggregation.
func (qm *QuantileMapper) Map(x *ExpandedEnsemble, geom *Geometry) *ExpandedEnsemble {
	out := &ExpandedEnsemble{
		NY:      x.NY,
		NX:      x.NX,
		PerCell: x.PerCell,
		Values:  make([]float64, len(x.Values)),
	}
	for j := 0; j < x.NY; j++ {
		for i := 0; i < x.NX; i++ {
			cell := j*x.NX + i
			src := x.CellValues(j, i)
			dst := out.CellValues(j, i)
			if !geom.Valid(j, i) {
				for s := range dst {
					dst[s] = Missing
				}
				continue
			}
			for s, v := range src {
				fc := qm.forecastFor(s)
				dst[s] = mapOne(fc, qm.Analysis, cell, v)
			}
		}
	}
	return out
}

// forecastFor picks the forecast distribution for an expanded slot.
func (qm *QuantileMapper) forecastFor(slot int) Distribution {
	if len(qm.Forecast) == 1 {
		return qm.Forecast[0]
	}
	return qm.Forecast[slot/StencilSize]
}

func mapOne(fc, an Distribution, cell int, v float64) float64 {
	if IsMissing(v) {
		return Missing
	}
	if v <= 0 {
		return 0
	}
	p, ok := fc.CDF(cell, v)
	if !ok {
		return 0
	}
	mapped, ok := an.InvCDF(cell, p)
	if !ok {
		return 0
	}
	if math.IsNaN(mapped) || math.IsInf(mapped, 0) {
		return Missing
	}
	if mapped < 0 {
		mapped = 0
	}
	return mapped
}
