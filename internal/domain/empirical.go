package domain

import "math"

// EmpiricalDistribution is the non-parametric Distribution variant: per cell,
// cumulative probabilities tabulated at a fixed ascending amount axis, with
// linear interpolation between tabulated amounts. Selected in place of the
// Gamma family by the run-time CDF switch; identical at the interface.
type EmpiricalDistribution struct {
	Amounts []float64 // Ascending, Amounts[0] == 0.
	// CDFs is indexed [cell*len(Amounts) + k]; nondecreasing along k.
	CDFs []float64
}

// table returns the tabulated CDF of cell, or nil when absent/invalid.
func (e *EmpiricalDistribution) table(cell int) []float64 {
	n := len(e.Amounts)
	if n < 2 || (cell+1)*n > len(e.CDFs) {
		return nil
	}
	t := e.CDFs[cell*n : (cell+1)*n]
	for _, v := range t {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil
		}
	}
	return t
}

// CDF linearly interpolates the tabulated cumulative probability at x.
func (e *EmpiricalDistribution) CDF(cell int, x float64) (float64, bool) {
	t := e.table(cell)
	if t == nil {
		return 0, false
	}
	if x <= e.Amounts[0] {
		return t[0], true
	}
	last := len(e.Amounts) - 1
	if x >= e.Amounts[last] {
		return t[last], true
	}
	for k := 1; k <= last; k++ {
		if x <= e.Amounts[k] {
			frac := (x - e.Amounts[k-1]) / (e.Amounts[k] - e.Amounts[k-1])
			return t[k-1] + frac*(t[k]-t[k-1]), true
		}
	}
	return t[last], true
}

// InvCDF inverts the tabulated CDF by linear interpolation. Probabilities at
// or below the zero-amount mass return 0; probabilities above the last
// tabulated value return the last tabulated amount (finite by construction).
func (e *EmpiricalDistribution) InvCDF(cell int, p float64) (float64, bool) {
	t := e.table(cell)
	if t == nil {
		return 0, false
	}
	if p <= t[0] {
		return 0, true
	}
	last := len(e.Amounts) - 1
	if p >= t[last] {
		return e.Amounts[last], true
	}
	for k := 1; k <= last; k++ {
		if p <= t[k] {
			if t[k] == t[k-1] {
				return e.Amounts[k], true
			}
			frac := (p - t[k-1]) / (t[k] - t[k-1])
			return e.Amounts[k-1] + frac*(e.Amounts[k]-e.Amounts[k-1]), true
		}
	}
	return e.Amounts[last], true
}
