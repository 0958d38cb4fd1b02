package domain

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// maxCDF bounds the probability passed to the Gamma quantile so the inverse
// CDF stays finite as p approaches 1.
const maxCDF = 0.9995

// DistParams is the per-cell parameter triple of the zero-inflated Gamma:
// a point mass FracZero at zero plus a Gamma(shape, scale) positive part.
// A cell where every training sample was zero has FracZero = 1 and NaN
// shape/scale; such a cell behaves as certain zero precipitation.
type DistParams struct {
	FracZero float64
	Shape    float64
	Scale    float64
}

// PositiveDefined reports whether the positive-support part is usable.
func (p DistParams) PositiveDefined() bool {
	return p.Shape > 0 && p.Scale > 0 &&
		!math.IsInf(p.Shape, 0) && !math.IsInf(p.Scale, 0) &&
		!math.IsNaN(p.Shape) && !math.IsNaN(p.Scale)
}

// Defined reports whether the cell can answer CDF queries at all: either the
// positive part is valid or the whole mass sits at zero.
func (p DistParams) Defined() bool {
	if p.FracZero < 0 || p.FracZero > 1 || math.IsNaN(p.FracZero) {
		return false
	}
	return p.FracZero >= 1 || p.PositiveDefined()
}

// SufficientStats accumulates what the Gamma fit needs: counts of zero and
// positive samples, the sum of positives and the sum of their logs. External
// aggregation collaborators carry these across case days.
type SufficientStats struct {
	NZero  int
	NPos   int
	Sum    float64
	SumLog float64
}

// Add folds one sample into the statistics. Values at or below zero count as
// dry samples.
func (s *SufficientStats) Add(v float64) {
	if v <= 0 {
		s.NZero++
		return
	}
	s.NPos++
	s.Sum += v
	s.SumLog += math.Log(v)
}

// FitFromStats estimates zero-inflated Gamma parameters by the method of
// moments on the D statistic, D = ln(mean) - mean(ln x) over the positive
// samples. The shape solution is the Thom (1958) closed-form approximation
//
//	shape = (1 + sqrt(1 + 4D/3)) / (4D)
//
// accurate to better than 1.5% relative error for the D range produced by
// precipitation samples; scale = mean/shape. With no positive samples the
// cell degenerates to certain zero (FracZero = 1, NaN positive part).
func FitFromStats(s SufficientStats) DistParams {
	n := s.NZero + s.NPos
	if n == 0 || s.NPos == 0 || s.Sum <= 0 {
		return DistParams{FracZero: 1, Shape: math.NaN(), Scale: math.NaN()}
	}
	fz := float64(s.NZero) / float64(n)
	mean := s.Sum / float64(s.NPos)
	meanLog := s.SumLog / float64(s.NPos)
	d := math.Log(mean) - meanLog
	var shape float64
	if d <= 0 {
		// Degenerate (all positives equal): the log-moment relation collapses.
		// Use a large shape so the fitted Gamma is sharply peaked at the mean.
		shape = 1000
	} else {
		shape = (1 + math.Sqrt(1+4*d/3)) / (4 * d)
	}
	return DistParams{FracZero: fz, Shape: shape, Scale: mean / shape}
}

// FitFromSamples is FitFromStats over an explicit sample slice.
func FitFromSamples(samples []float64) DistParams {
	var s SufficientStats
	for _, v := range samples {
		s.Add(v)
	}
	return FitFromStats(s)
}

// Distribution answers cumulative-probability queries for one cell's
// precipitation distribution. Both the parametric Gamma representation and
// the tabulated empirical representation satisfy it; which one the run uses
// is a configuration switch, not a data-model difference.
//
// The boolean result is false when the cell's parameters are undefined; the
// caller decides the fallback (the quantile mapper treats it as no signal).
type Distribution interface {
	// CDF returns P(X <= x) in [0, 1].
	CDF(cell int, x float64) (float64, bool)
	// InvCDF returns the amount at cumulative probability p, >= 0 and finite.
	InvCDF(cell int, p float64) (float64, bool)
}

// GammaDistribution is the zero-inflated Gamma Distribution over a per-cell
// parameter field.
type GammaDistribution struct {
	Params []DistParams
}

// CDF composes the discrete jump at zero with the continuous Gamma part:
// P(X <= x) = FracZero + (1 - FracZero) * G(x) for x > 0.
func (g *GammaDistribution) CDF(cell int, x float64) (float64, bool) {
	p := g.Params[cell]
	if !p.Defined() {
		return 0, false
	}
	if x <= 0 || p.FracZero >= 1 {
		return math.Min(p.FracZero, 1), true
	}
	gd := distuv.Gamma{Alpha: p.Shape, Beta: 1 / p.Scale}
	return p.FracZero + (1-p.FracZero)*gd.CDF(x), true
}

// InvCDF returns 0 for any p at or below the zero mass, otherwise the Gamma
// quantile of the rescaled probability (p - FracZero) / (1 - FracZero). The
// probability is clamped below maxCDF so the result is always finite.
func (g *GammaDistribution) InvCDF(cell int, prob float64) (float64, bool) {
	p := g.Params[cell]
	if !p.Defined() {
		return 0, false
	}
	if prob <= p.FracZero || p.FracZero >= 1 {
		return 0, true
	}
	pp := (prob - p.FracZero) / (1 - p.FracZero)
	if pp > maxCDF {
		pp = maxCDF
	}
	gd := distuv.Gamma{Alpha: p.Shape, Beta: 1 / p.Scale}
	return gd.Quantile(pp), true
}
