package domain

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// CSGDClimatology holds the per-cell climatological censored shifted-Gamma
// parameters fit offline: mean, standard deviation and (negative) shift of
// the uncensored distribution.
type CSGDClimatology struct {
	Mu    *GridField
	Sigma *GridField
	Shift *GridField
}

// CSGDRegression holds the per-(model, lead) regression coefficients mapping
// climatology and the current ensemble summary onto today's distribution,
// plus the per-cell spatial correlation used to deflate the raw spread.
type CSGDRegression struct {
	Alpha       [6]float64
	Correlation *GridField
}

// CSGDProbabilities computes threshold exceedance probabilities directly
// from the ensemble mean/spread summary and pre-fit parameters, bypassing
// member dressing. Per cell the climatological distribution is shifted and
// stretched by a nonlinear regression on the ensemble statistics:
//
//	mu    = muCl/a1 * log1p(expm1(a1) * (a2 + a3*pop + a4*mean/muCl))
//	sigma = a5*sigmaCl*sqrt(mu/muCl) + a6*spread*sqrt(1-r)
//
// and the censored shifted Gamma gives P(X >= t) = 1 - F(t - shift) with all
// probability density below the shift collapsing to a point mass at zero.
// Cells with undefined climatology hold the Missing sentinel.
func CSGDProbabilities(mean, spread, pop *GridField, clim *CSGDClimatology, reg *CSGDRegression, geom *Geometry, thresholds []float64) []*GridField {
	out := make([]*GridField, len(thresholds))
	for t := range out {
		out[t] = NewGridField(geom.NY, geom.NX, Missing)
	}
	a := reg.Alpha
	if !alphaUsable(a) {
		// A broken coefficient set would poison every cell; leave the whole
		// grid at the sentinel instead.
		return out
	}
	for j := 0; j < geom.NY; j++ {
		for i := 0; i < geom.NX; i++ {
			if !geom.Valid(j, i) {
				continue
			}
			muCl := clim.Mu.At(j, i)
			sigCl := clim.Sigma.At(j, i)
			shift := clim.Shift.At(j, i)
			m := mean.At(j, i)
			s := spread.At(j, i)
			pp := pop.At(j, i)
			if !finite(muCl) || !finite(sigCl) || !finite(shift) ||
				!finite(m) || !finite(s) || !finite(pp) || muCl <= 0 || sigCl <= 0 {
				continue
			}

			r := reg.Correlation.At(j, i)
			if !finite(r) || r < 0 {
				r = 0
			} else if r > 1 {
				r = 1
			}

			arg := a[1] + a[2]*pp + a[3]*m/muCl
			if arg < 0 {
				arg = 0
			}
			mu := muCl / a[0] * math.Log1p(math.Expm1(a[0])*arg)
			if mu <= 0 {
				// Regression collapsed to the dry limit: certain zero.
				for t := range thresholds {
					out[t].Set(j, i, 0)
				}
				continue
			}
			sigma := a[4]*sigCl*math.Sqrt(mu/muCl) + a[5]*s*math.Sqrt(1-r)
			if sigma <= 0 {
				sigma = sigCl
			}

			shape := (mu / sigma) * (mu / sigma)
			scale := sigma * sigma / mu
			gd := distuv.Gamma{Alpha: shape, Beta: 1 / scale}
			for t, thr := range thresholds {
				// X = max(Y + shift, 0) with Y ~ Gamma(shape, scale).
				out[t].Set(j, i, clampProb(1-gd.CDF(thr-shift)))
			}
		}
	}
	return out
}

// finite reports whether v is a usable input value: neither the missing
// sentinel nor NaN/Inf. NaN compares false against every threshold, so it
// would slip past the sign checks and poison the output.
func finite(v float64) bool {
	return !IsMissing(v) && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// alphaUsable validates the regression coefficients: all finite, with a
// nonzero a1 (it divides the mu transform).
func alphaUsable(a [6]float64) bool {
	for _, c := range a {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return a[0] != 0
}
