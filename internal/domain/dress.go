package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// RankClass stratifies dressing-kernel parameters by the position of a
// member in the sorted expanded ensemble. The extreme ranks carry the
// unbounded tails and need wider kernels than interior ranks.
type RankClass int

const (
	RankLowest RankClass = iota
	RankInterior
	RankHighest
	NRankClasses
)

// ClassOf returns the rank class of sorted position rank among n members.
func ClassOf(rank, n int) RankClass {
	switch {
	case rank == 0:
		return RankLowest
	case rank == n-1:
		return RankHighest
	default:
		return RankInterior
	}
}

// NAmountBins is the number of member-amount strata of the fitted kernel.
const NAmountBins = 8

// amountBinEdges are the upper edges (mm) of the first NAmountBins-1 bins.
var amountBinEdges = [NAmountBins - 1]float64{0.5, 1, 2, 4, 8, 16, 32}

// AmountBin returns the kernel stratum of a member amount.
func AmountBin(v float64) int {
	for b, edge := range amountBinEdges {
		if v < edge {
			return b
		}
	}
	return NAmountBins - 1
}

// Kernel integrates dressing-kernel mass above a threshold offset. delta is
// threshold minus member value; a nonpositive delta means the member itself
// already meets the threshold.
type Kernel interface {
	ExceedProb(class RankClass, bin int, delta float64) float64
}

// GammaKernelParams holds fitted Gamma kernels per amount bin and rank
// class, produced offline by the aggregation collaborator.
type GammaKernelParams struct {
	// Shape and Scale are indexed [bin*NRankClasses + class].
	Shape []float64
	Scale []float64
}

// GammaKernel is the fitted dressing kernel family.
type GammaKernel struct {
	Params *GammaKernelParams
}

// ExceedProb returns the kernel mass above delta. An invalid fitted entry
// falls back to a step at the member value, which keeps the contribution
// well defined without inventing spread.
func (k *GammaKernel) ExceedProb(class RankClass, bin int, delta float64) float64 {
	if delta <= 0 {
		return 1
	}
	idx := bin*int(NRankClasses) + int(class)
	if idx < 0 || idx >= len(k.Params.Shape) {
		return 0
	}
	shape, scale := k.Params.Shape[idx], k.Params.Scale[idx]
	if !(shape > 0) || !(scale > 0) || math.IsInf(shape, 0) || math.IsInf(scale, 0) {
		return 0
	}
	gd := distuv.Gamma{Alpha: shape, Beta: 1 / scale}
	return 1 - gd.CDF(delta)
}

// SimpleKernel is the fixed-form fallback: an exponential tail with a 1 mm
// e-folding scale, identical for every stratum. Selected by the run-time
// kernel switch in place of the fitted family.
type SimpleKernel struct{}

// ExceedProb implements Kernel.
func (SimpleKernel) ExceedProb(_ RankClass, _ int, delta float64) float64 {
	if delta <= 0 {
		return 1
	}
	return math.Exp(-delta)
}

// NPOPBins is the number of climatological probability-of-precipitation
// strata of the zero-mean kernel table.
const NPOPBins = 10

// ZeroMeanKernel is the separate small table used when the ensemble mean at
// a cell is exactly zero: per climatological-POP bin, the probability that
// precipitation occurs at all (WetFrac) and a Gamma for the amount when it
// does.
type ZeroMeanKernel struct {
	WetFrac []float64 // Length NPOPBins.
	Shape   []float64
	Scale   []float64
}

// POPBin maps a climatological POP in [0,1] to its stratum.
func POPBin(pop float64) int {
	if pop <= 0 || math.IsNaN(pop) || IsMissing(pop) {
		return 0
	}
	b := int(pop * NPOPBins)
	if b >= NPOPBins {
		b = NPOPBins - 1
	}
	return b
}

// ExceedProb returns P(precip >= t) for a zero-mean cell in POP bin.
func (z *ZeroMeanKernel) ExceedProb(bin int, t float64) float64 {
	if bin < 0 || bin >= len(z.WetFrac) {
		return 0
	}
	wf := z.WetFrac[bin]
	if math.IsNaN(wf) || wf <= 0 {
		return 0
	}
	if t <= 0 {
		return clampProb(wf)
	}
	shape, scale := z.Shape[bin], z.Scale[bin]
	if !(shape > 0) || !(scale > 0) {
		return 0
	}
	gd := distuv.Gamma{Alpha: shape, Beta: 1 / scale}
	return clampProb(wf * (1 - gd.CDF(t)))
}

// DressingEngine synthesizes exceedance probabilities by attaching a kernel
// to every ranked quantile-mapped member and mixing the kernels with the
// closest-member histogram weights.
type DressingEngine struct {
	Histogram *ClosestHistogram
	Kernel    Kernel
	ZeroMean  *ZeroMeanKernel
}

// Dress computes one probability field per threshold from the mapped
// expanded ensemble. climPOP is the climatological probability of
// precipitation used only for zero-mean cells. Masked-out cells hold the
// Missing sentinel.
func (d *DressingEngine) Dress(mapped *ExpandedEnsemble, climPOP *GridField, geom *Geometry, thresholds []float64) []*GridField {
	out := make([]*GridField, len(thresholds))
	for t := range out {
		out[t] = NewGridField(geom.NY, geom.NX, Missing)
	}
	sorted := make([]float64, 0, mapped.PerCell)

	for j := 0; j < geom.NY; j++ {
		for i := 0; i < geom.NX; i++ {
			if !geom.Valid(j, i) {
				continue
			}
			// Sorted member values with numerically failed slots excluded.
			sorted = sorted[:0]
			for _, v := range mapped.CellValues(j, i) {
				if !IsMissing(v) {
					sorted = append(sorted, v)
				}
			}
			if len(sorted) == 0 {
				continue
			}
			sort.Float64s(sorted)

			mean := 0.0
			for _, v := range sorted {
				mean += v
			}
			mean /= float64(len(sorted))

			if mean == 0 {
				bin := POPBin(climPOP.At(j, i))
				for t, thr := range thresholds {
					out[t].Set(j, i, d.ZeroMean.ExceedProb(bin, thr))
				}
				continue
			}

			cat := MeanCategory(mean)
			for t, thr := range thresholds {
				p := 0.0
				wsum := 0.0
				for rank, v := range sorted {
					w := d.Histogram.Weight(rank, cat)
					if w == 0 {
						continue
					}
					wsum += w
					p += w * d.Kernel.ExceedProb(ClassOf(rank, len(sorted)), AmountBin(v), thr-v)
				}
				if wsum > 0 {
					p /= wsum
				}
				out[t].Set(j, i, clampProb(p))
			}
		}
	}
	return out
}

func clampProb(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
