// Package params loads the read-only statistical inputs of one invocation:
// fitted distribution parameters, empirical CDF tables, the closest-member
// histogram, dressing-kernel parameters, precipitation climatology and the
// CSGD climatology/regression files. All are produced by external
// aggregation collaborators and consumed here without modification.
package params

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/nwp-tools/precip-calib/internal/adapter/store/ncio"
	"github.com/nwp-tools/precip-calib/internal/domain"
)

// Store reads parameter files from a data directory.
type Store struct {
	dir string
}

// NewStore creates a parameter store rooted at dir.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// DistPair bundles the forecast-side and analysis-side distributions of one
// (model, window, lead). The forecast side has one entry per member for
// non-exchangeable systems, otherwise a single pooled entry.
type DistPair struct {
	Forecast []domain.Distribution
	Analysis domain.Distribution
}

// monthOf extracts the MM digits from an init of the form YYYYMMDDHH.
func monthOf(init string) string {
	if len(init) >= 6 {
		return init[4:6]
	}
	return "00"
}

// GammaParamsPath names the fitted-parameter file for (model, init month,
// lead).
func (s *Store) GammaParamsPath(model domain.Model, init string, leadHours int) string {
	return filepath.Join(s.dir, fmt.Sprintf("dist_params_%s_m%s_f%03d.nc", model, monthOf(init), leadHours))
}

// LoadGammaParams reads zero-inflated Gamma parameter grids for the forecast
// and analysis distributions. The analysis side is always pooled; the
// forecast side is per member for non-exchangeable models (a leading member
// dimension in the file).
func (s *Store) LoadGammaParams(model domain.Model, init string, leadHours int, ny, nx int) (*DistPair, error) {
	path := s.GammaParamsPath(model, init, leadHours)
	f, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	pair := &DistPair{}
	spec := model.Spec()
	if spec.Exchangeable {
		d, err := readGammaField(f, "fcst", -1, ny, nx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		pair.Forecast = []domain.Distribution{d}
	} else {
		pair.Forecast = make([]domain.Distribution, spec.Members)
		for m := 0; m < spec.Members; m++ {
			d, err := readGammaField(f, "fcst", m, ny, nx)
			if err != nil {
				return nil, fmt.Errorf("%s member %d: %w", path, m, err)
			}
			pair.Forecast[m] = d
		}
	}
	an, err := readGammaField(f, "anal", -1, ny, nx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pair.Analysis = an
	return pair, nil
}

// readGammaField assembles one GammaDistribution from the three parameter
// variables with prefix. member < 0 reads pooled 2-D variables; otherwise
// one slab of the 3-D per-member variables.
func readGammaField(f *ncio.File, prefix string, member, ny, nx int) (*domain.GammaDistribution, error) {
	read := func(name string) ([]float64, error) {
		if member < 0 {
			return f.Float2D(name, ny, nx)
		}
		flat, err := f.Float3D(name, -1, ny, nx)
		if err != nil {
			return nil, err
		}
		n := ny * nx
		if (member+1)*n > len(flat) {
			return nil, fmt.Errorf("variable %q has no member %d", name, member)
		}
		return flat[member*n : (member+1)*n], nil
	}
	fz, err := read(prefix + "_fraczero")
	if err != nil {
		return nil, err
	}
	shape, err := read(prefix + "_shape")
	if err != nil {
		return nil, err
	}
	scale, err := read(prefix + "_scale")
	if err != nil {
		return nil, err
	}
	cells := make([]domain.DistParams, ny*nx)
	for k := range cells {
		cells[k] = domain.DistParams{FracZero: fz[k], Shape: shape[k], Scale: scale[k]}
		if domain.IsMissing(fz[k]) {
			cells[k] = domain.DistParams{FracZero: math.NaN(), Shape: math.NaN(), Scale: math.NaN()}
		}
	}
	return &domain.GammaDistribution{Params: cells}, nil
}

// EmpiricalPath names the tabulated-CDF file for (model, init month, lead).
func (s *Store) EmpiricalPath(model domain.Model, init string, leadHours int) string {
	return filepath.Join(s.dir, fmt.Sprintf("ecdf_%s_m%s_f%03d.nc", model, monthOf(init), leadHours))
}

// LoadEmpirical reads the non-parametric CDF tables used by the empirical
// quantile-mapping switch. The forecast side is pooled for every model; the
// tabulation amounts are shared by forecast and analysis.
func (s *Store) LoadEmpirical(model domain.Model, init string, leadHours int, ny, nx int) (*DistPair, error) {
	path := s.EmpiricalPath(model, init, leadHours)
	f, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	na, err := f.DimLen("amount")
	if err != nil {
		return nil, err
	}
	amounts, err := f.Float1D("amounts", na)
	if err != nil {
		return nil, err
	}
	fcst, err := readEmpiricalTable(f, "fcst_cdf", amounts, na, ny, nx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	anal, err := readEmpiricalTable(f, "anal_cdf", amounts, na, ny, nx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &DistPair{Forecast: []domain.Distribution{fcst}, Analysis: anal}, nil
}

// readEmpiricalTable reads an (amount, y, x) CDF variable and reorders it
// cell major as the EmpiricalDistribution expects.
func readEmpiricalTable(f *ncio.File, name string, amounts []float64, na, ny, nx int) (*domain.EmpiricalDistribution, error) {
	flat, err := f.Float3D(name, na, ny, nx)
	if err != nil {
		return nil, err
	}
	cells := ny * nx
	cdfs := make([]float64, cells*na)
	for a := 0; a < na; a++ {
		for c := 0; c < cells; c++ {
			cdfs[c*na+a] = flat[a*cells+c]
		}
	}
	return &domain.EmpiricalDistribution{Amounts: amounts, CDFs: cdfs}, nil
}

// HistogramPath names the closest-member histogram file.
func (s *Store) HistogramPath(model domain.Model, init string, leadHours int) string {
	return filepath.Join(s.dir, fmt.Sprintf("closest_hist_%s_%s_f%03d.nc", model, init, leadHours))
}

// LoadHistogram reads the closest-member histogram and normalizes each
// category column to unit mass.
func (s *Store) LoadHistogram(model domain.Model, init string, leadHours int) (*domain.ClosestHistogram, error) {
	path := s.HistogramPath(model, init, leadHours)
	f, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	ranks, err := f.DimLen("rank")
	if err != nil {
		return nil, err
	}
	freq, err := f.Float2D("freq", ranks, domain.NMeanCategories)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h := &domain.ClosestHistogram{Ranks: ranks, Freq: freq}
	h.Normalize()
	return h, nil
}

// KernelPath names the dressing-kernel parameter file.
func (s *Store) KernelPath(model domain.Model, init string, leadHours int) string {
	return filepath.Join(s.dir, fmt.Sprintf("dress_kernel_%s_%s_f%03d.nc", model, init, leadHours))
}

// LoadKernel reads the fitted Gamma dressing kernels and the zero-mean
// climatological-POP table.
func (s *Store) LoadKernel(model domain.Model, init string, leadHours int) (*domain.GammaKernelParams, *domain.ZeroMeanKernel, error) {
	path := s.KernelPath(model, init, leadHours)
	f, err := ncio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	nb, nc := domain.NAmountBins, int(domain.NRankClasses)
	shape, err := f.Float2D("kernel_shape", nb, nc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	scale, err := f.Float2D("kernel_scale", nb, nc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	kp := &domain.GammaKernelParams{Shape: shape, Scale: scale}

	zm := &domain.ZeroMeanKernel{}
	if zm.WetFrac, err = f.Float1D("zm_wetfrac", domain.NPOPBins); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if zm.Shape, err = f.Float1D("zm_shape", domain.NPOPBins); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if zm.Scale, err = f.Float1D("zm_scale", domain.NPOPBins); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return kp, zm, nil
}

// ClimatologyPath names the climatology file for (init month, init hour).
func ClimatologyPath(dir, init string) string {
	hh := "00"
	if len(init) >= 10 {
		hh = init[8:10]
	}
	return filepath.Join(dir, fmt.Sprintf("climatology_m%s_h%s.nc", monthOf(init), hh))
}

// Climatology holds the climatological probability-of-precipitation grid
// used to stratify the zero-mean dressing table.
type Climatology struct {
	POP *domain.GridField
}

// LoadClimatology reads the climatological POP grid.
func LoadClimatology(dir, init string, ny, nx int) (*Climatology, error) {
	path := ClimatologyPath(dir, init)
	f, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	pop, err := f.Float2D("clim_pop", ny, nx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Climatology{POP: &domain.GridField{NY: ny, NX: nx, Data: pop}}, nil
}

// CSGDPath names the CSGD climatology/regression file for (model, lead).
func (s *Store) CSGDPath(model domain.Model, leadHours int) string {
	return filepath.Join(s.dir, fmt.Sprintf("csgd_%s_f%03d.nc", model, leadHours))
}

// LoadCSGD reads the per-cell CSGD climatology, the six regression
// coefficients and the spatial-correlation grid.
func (s *Store) LoadCSGD(model domain.Model, leadHours int, ny, nx int) (*domain.CSGDClimatology, *domain.CSGDRegression, error) {
	path := s.CSGDPath(model, leadHours)
	f, err := ncio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	field := func(name string) (*domain.GridField, error) {
		data, err := f.Float2D(name, ny, nx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &domain.GridField{NY: ny, NX: nx, Data: data}, nil
	}

	clim := &domain.CSGDClimatology{}
	if clim.Mu, err = field("mu_clim"); err != nil {
		return nil, nil, err
	}
	if clim.Sigma, err = field("sigma_clim"); err != nil {
		return nil, nil, err
	}
	if clim.Shift, err = field("shift_clim"); err != nil {
		return nil, nil, err
	}

	alpha, err := f.Float1D("alpha", 6)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	reg := &domain.CSGDRegression{}
	copy(reg.Alpha[:], alpha)
	if reg.Correlation, err = field("correlation"); err != nil {
		return nil, nil, err
	}
	return clim, reg, nil
}
