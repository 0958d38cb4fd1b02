// Package usecase orchestrates one calibration invocation: load inputs,
// run the correction pipeline, write the probability forecast file.
package usecase

import (
	"fmt"
	"log"

	"github.com/nwp-tools/precip-calib/internal/adapter/store/forecast"
	"github.com/nwp-tools/precip-calib/internal/adapter/store/output"
	"github.com/nwp-tools/precip-calib/internal/adapter/store/params"
	"github.com/nwp-tools/precip-calib/internal/config"
	"github.com/nwp-tools/precip-calib/internal/domain"
)

// State tracks pipeline progress through one invocation. Progress is
// monotone; a missing auxiliary input skips the stages that need it without
// abandoning the run (best-effort policy), so the terminal state can be
// reached with only part of the output populated.
type State int

const (
	StateInit State = iota
	StateClimatologyLoaded
	StateForecastsLoaded
	StateRawProbComputed
	StateQuantileMapped
	StateExpandedProbComputed
	StateDressed
	StateCSGDComputed
	StateWritten
	StateDone
	StateError
)

var stateNames = map[State]string{
	StateInit:                 "INIT",
	StateClimatologyLoaded:    "CLIMATOLOGY_LOADED",
	StateForecastsLoaded:      "FORECASTS_LOADED",
	StateRawProbComputed:      "RAW_PROB_COMPUTED",
	StateQuantileMapped:       "QUANTILE_MAPPED",
	StateExpandedProbComputed: "EXPANDED_PROB_COMPUTED",
	StateDressed:              "DRESSED",
	StateCSGDComputed:         "CSGD_COMPUTED",
	StateWritten:              "WRITTEN",
	StateDone:                 "DONE",
	StateError:                "ERROR",
}

func (s State) String() string { return stateNames[s] }

// Request identifies one invocation.
type Request struct {
	Model     domain.Model
	Init      string // YYYYMMDDHH.
	LeadHours int
}

// Result reports what one invocation produced.
type Result struct {
	OutputPath string
	State      State
	// Skipped lists stages bypassed because of missing auxiliary inputs.
	Skipped []string
}

// Assembler runs the per-(init, lead, model) correction pipeline. One
// Assembler value serves one invocation at a time; separate invocations are
// independent processes with no shared mutable state.
type Assembler struct {
	cfg       *config.Config
	forecasts *forecast.Store
	params    *params.Store
	writer    *output.Writer
	logger    *log.Logger
	state     State
}

// NewAssembler wires an assembler from configuration.
func NewAssembler(cfg *config.Config, logger *log.Logger) *Assembler {
	return &Assembler{
		cfg:       cfg,
		forecasts: forecast.NewStore(cfg.ForecastDir),
		params:    params.NewStore(cfg.ParamsDir),
		writer:    output.NewWriter(cfg.OutputDir),
		logger:    logger,
		state:     StateInit,
	}
}

func (a *Assembler) advance(s State) {
	a.state = s
	a.logger.Printf("stage %s", s)
}

// Run executes the pipeline for req. Only a missing forecast file is fatal;
// any other absent input skips its stage and leaves sentinel output for the
// fields that stage would have populated.
func (a *Assembler) Run(req Request) (*Result, error) {
	res := &Result{}
	thresholds := config.Thresholds
	set := &output.ProbabilitySet{Thresholds: thresholds}

	// Climatology feeds only the zero-mean dressing table; absence degrades
	// dressing, it does not abort the run.
	clim, err := params.LoadClimatology(a.cfg.ClimatologyDir, req.Init, a.cfg.GridNY, a.cfg.GridNX)
	if err != nil {
		a.logger.Printf("climatology unavailable: %v", err)
	} else {
		a.advance(StateClimatologyLoaded)
	}

	geom, ens, err := a.forecasts.Load(req.Model, req.Init, req.LeadHours)
	if err != nil {
		a.state = StateError
		return nil, fmt.Errorf("failed to load forecast ensemble: %w", err)
	}
	a.advance(StateForecastsLoaded)
	a.logger.Printf("forecast file %s: %d members on %dx%d grid",
		a.forecasts.Path(req.Model, req.Init, req.LeadHours), ens.Len(), geom.NY, geom.NX)

	set.Raw = rawFrequency(ens, geom, thresholds)
	a.advance(StateRawProbComputed)
	a.logger.Printf("raw POP %s", domain.Summarize(set.Raw[0], geom))

	if !ens.HasPositive() {
		// Nothing to correct: every path is certain zero at valid cells.
		a.logger.Printf("no positive precipitation anywhere in the raw ensemble; short-circuiting")
		set.QMapped = zeroFields(geom, len(thresholds))
		set.Dressed = zeroFields(geom, len(thresholds))
		return a.finish(req, geom, set, res)
	}

	mapped, skipped := a.quantileMap(req, ens, geom)
	if skipped != "" {
		res.Skipped = append(res.Skipped, skipped)
	} else {
		a.advance(StateQuantileMapped)
		set.QMapped = expandedFrequency(mapped, geom, thresholds)
		a.advance(StateExpandedProbComputed)
		a.logger.Printf("quantile-mapped POP %s", domain.Summarize(set.QMapped[0], geom))

		dressed, dressSkipped := a.dress(req, mapped, clim, geom, thresholds)
		if dressSkipped != "" {
			res.Skipped = append(res.Skipped, dressSkipped)
		} else {
			set.Dressed = dressed
			a.advance(StateDressed)
			a.logger.Printf("dressed POP %s", domain.Summarize(set.Dressed[0], geom))
		}
	}

	if a.cfg.EnableCSGD {
		csgd, csgdSkipped := a.csgd(req, ens, geom, thresholds)
		if csgdSkipped != "" {
			res.Skipped = append(res.Skipped, csgdSkipped)
		} else {
			set.CSGD = csgd
			a.advance(StateCSGDComputed)
			a.logger.Printf("CSGD POP %s", domain.Summarize(set.CSGD[0], geom))
		}
	}

	return a.finish(req, geom, set, res)
}

// quantileMap loads the distribution representation selected by the CDF mode
// switch and maps the stencil-expanded ensemble through it.
func (a *Assembler) quantileMap(req Request, ens *domain.EnsembleField, geom *domain.Geometry) (*domain.ExpandedEnsemble, string) {
	var pair *params.DistPair
	var err error
	switch a.cfg.CDFMode {
	case config.CDFEmpirical:
		pair, err = a.params.LoadEmpirical(req.Model, req.Init, req.LeadHours, geom.NY, geom.NX)
	default:
		pair, err = a.params.LoadGammaParams(req.Model, req.Init, req.LeadHours, geom.NY, geom.NX)
	}
	if err != nil {
		a.logger.Printf("distribution parameters unavailable, skipping quantile mapping: %v", err)
		return nil, "quantile-mapping"
	}

	stride := domain.StencilStride(req.LeadHours)
	expanded := domain.Expand(ens, geom, stride)
	a.logger.Printf("expanded ensemble: %d members per cell (stride %d)", expanded.PerCell, stride)

	qm := &domain.QuantileMapper{Forecast: pair.Forecast, Analysis: pair.Analysis}
	return qm.Map(expanded, geom), ""
}

// dress runs the closest-member kernel dressing over the mapped ensemble.
func (a *Assembler) dress(req Request, mapped *domain.ExpandedEnsemble, clim *params.Climatology, geom *domain.Geometry, thresholds []float64) ([]*domain.GridField, string) {
	hist, err := a.params.LoadHistogram(req.Model, req.Init, req.LeadHours)
	if err != nil {
		a.logger.Printf("closest-member histogram unavailable, skipping dressing: %v", err)
		return nil, "dressing"
	}
	if hist.Ranks != mapped.PerCell {
		a.logger.Printf("histogram built for %d ranks but ensemble expands to %d, skipping dressing", hist.Ranks, mapped.PerCell)
		return nil, "dressing"
	}

	var kernel domain.Kernel
	var zm *domain.ZeroMeanKernel
	kp, zmLoaded, err := a.params.LoadKernel(req.Model, req.Init, req.LeadHours)
	if err != nil {
		a.logger.Printf("dressing-kernel parameters unavailable, skipping dressing: %v", err)
		return nil, "dressing"
	}
	zm = zmLoaded
	if a.cfg.KernelMode == config.KernelSimple {
		kernel = domain.SimpleKernel{}
	} else {
		kernel = &domain.GammaKernel{Params: kp}
	}

	pop := domain.NewGridField(geom.NY, geom.NX, domain.Missing)
	if clim != nil {
		pop = clim.POP
	} else {
		a.logger.Printf("no climatology loaded; zero-mean cells dress with the lowest POP stratum")
	}

	engine := &domain.DressingEngine{Histogram: hist, Kernel: kernel, ZeroMean: zm}
	return engine.Dress(mapped, pop, geom, thresholds), ""
}

// csgd runs the alternative censored shifted-Gamma path from the raw
// ensemble summary.
func (a *Assembler) csgd(req Request, ens *domain.EnsembleField, geom *domain.Geometry, thresholds []float64) ([]*domain.GridField, string) {
	clim, reg, err := a.params.LoadCSGD(req.Model, req.LeadHours, geom.NY, geom.NX)
	if err != nil {
		a.logger.Printf("CSGD parameters unavailable, skipping CSGD path: %v", err)
		return nil, "csgd"
	}
	mean := ens.Mean()
	spread := ens.MeanAbsSpread(mean)
	pop := ens.PositiveFraction()
	return domain.CSGDProbabilities(mean, spread, pop, clim, reg, geom, thresholds), ""
}

// finish writes whatever the run produced and reaches the terminal state.
func (a *Assembler) finish(req Request, geom *domain.Geometry, set *output.ProbabilitySet, res *Result) (*Result, error) {
	path := a.writer.Path(req.Model, req.Init, req.LeadHours, a.cfg.CDFMode)
	if err := a.writer.Write(path, geom, set); err != nil {
		a.state = StateError
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	a.advance(StateWritten)
	a.advance(StateDone)
	res.OutputPath = path
	res.State = a.state
	return res, nil
}

// rawFrequency computes per-threshold exceedance frequency over the raw
// (unexpanded) members, skipping fill-valued members; the uncorrected
// comparison path.
func rawFrequency(ens *domain.EnsembleField, geom *domain.Geometry, thresholds []float64) []*domain.GridField {
	out := make([]*domain.GridField, len(thresholds))
	for t, thr := range thresholds {
		f := domain.NewGridField(geom.NY, geom.NX, domain.Missing)
		for j := 0; j < geom.NY; j++ {
			for i := 0; i < geom.NX; i++ {
				if !geom.Valid(j, i) {
					continue
				}
				n, valid := 0, 0
				for _, m := range ens.Members {
					v := m.At(j, i)
					if domain.IsMissing(v) {
						continue
					}
					valid++
					if v >= thr {
						n++
					}
				}
				if valid == 0 {
					continue
				}
				f.Set(j, i, float64(n)/float64(valid))
			}
		}
		out[t] = f
	}
	return out
}

// expandedFrequency computes exceedance frequency over the quantile-mapped
// expanded members, skipping numerically failed slots.
func expandedFrequency(mapped *domain.ExpandedEnsemble, geom *domain.Geometry, thresholds []float64) []*domain.GridField {
	out := make([]*domain.GridField, len(thresholds))
	for t, thr := range thresholds {
		f := domain.NewGridField(geom.NY, geom.NX, domain.Missing)
		for j := 0; j < geom.NY; j++ {
			for i := 0; i < geom.NX; i++ {
				if !geom.Valid(j, i) {
					continue
				}
				n, valid := 0, 0
				for _, v := range mapped.CellValues(j, i) {
					if domain.IsMissing(v) {
						continue
					}
					valid++
					if v >= thr {
						n++
					}
				}
				if valid == 0 {
					continue
				}
				f.Set(j, i, float64(n)/float64(valid))
			}
		}
		out[t] = f
	}
	return out
}

// zeroFields builds per-threshold fields that are 0 at valid cells and
// sentinel outside the mask. Used by the no-signal short circuit.
func zeroFields(geom *domain.Geometry, nt int) []*domain.GridField {
	out := make([]*domain.GridField, nt)
	for t := range out {
		f := domain.NewGridField(geom.NY, geom.NX, domain.Missing)
		for j := 0; j < geom.NY; j++ {
			for i := 0; i < geom.NX; i++ {
				if geom.Valid(j, i) {
					f.Set(j, i, 0)
				}
			}
		}
		out[t] = f
	}
	return out
}
