// Package output writes the probability forecast file of one invocation.
package output

import (
	"fmt"
	"path/filepath"

	"github.com/nwp-tools/precip-calib/internal/adapter/store/ncio"
	"github.com/nwp-tools/precip-calib/internal/domain"
)

// ProbabilitySet is everything one invocation produces: per-threshold grids
// for the raw-frequency, quantile-mapped-only and dressed paths, plus the
// CSGD grid when that path is enabled. Nil slices mean the stage was skipped
// (missing inputs) and are written as all-sentinel fields.
type ProbabilitySet struct {
	Thresholds []float64
	Raw        []*domain.GridField
	QMapped    []*domain.GridField
	Dressed    []*domain.GridField
	CSGD       []*domain.GridField // Nil unless the CSGD path ran.
}

// Writer writes probability files into an output directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer { return &Writer{dir: dir} }

// Path returns the deterministic output name for one invocation. mode tags
// which quantile-mapping representation produced the file.
func (w *Writer) Path(model domain.Model, init string, leadHours int, mode string) string {
	return filepath.Join(w.dir, fmt.Sprintf("probfcst_%s_%s_f%03d_%s.nc", model, init, leadHours, mode))
}

// Write emits the output file: grid geometry, mask, threshold list and the
// probability grids. Absent stages become all-sentinel fields so consumers
// see a uniform layout regardless of partial failures upstream.
func (w *Writer) Write(path string, geom *domain.Geometry, set *ProbabilitySet) error {
	nc, err := ncio.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = nc.Close() }()

	yDim := ncio.Dim{Name: "y", N: geom.NY}
	xDim := ncio.Dim{Name: "x", N: geom.NX}
	tDim := ncio.Dim{Name: "threshold", N: len(set.Thresholds)}

	if err := nc.PutFloats("lats", []ncio.Dim{yDim}, geom.Lats); err != nil {
		return err
	}
	if err := nc.PutFloats("lons", []ncio.Dim{xDim}, geom.Lons); err != nil {
		return err
	}
	if err := nc.PutBytes("mask", []ncio.Dim{yDim, xDim}, geom.Mask); err != nil {
		return err
	}
	if err := nc.PutFloats("thresholds", []ncio.Dim{tDim}, set.Thresholds); err != nil {
		return err
	}

	put := func(name string, fields []*domain.GridField) error {
		flat := flatten(fields, len(set.Thresholds), geom)
		return nc.PutFloats(name, []ncio.Dim{tDim, yDim, xDim}, flat)
	}
	if err := put("prob_raw", set.Raw); err != nil {
		return err
	}
	if err := put("prob_qmapped", set.QMapped); err != nil {
		return err
	}
	if err := put("prob_dressed", set.Dressed); err != nil {
		return err
	}
	if set.CSGD != nil {
		if err := put("prob_csgd", set.CSGD); err != nil {
			return err
		}
	}
	return nil
}

// flatten concatenates per-threshold fields into a (threshold, y, x) array,
// substituting all-sentinel planes for skipped stages.
func flatten(fields []*domain.GridField, nt int, geom *domain.Geometry) []float64 {
	cells := geom.Cells()
	flat := make([]float64, nt*cells)
	for t := 0; t < nt; t++ {
		plane := flat[t*cells : (t+1)*cells]
		if fields == nil || t >= len(fields) || fields[t] == nil {
			for k := range plane {
				plane[k] = domain.Missing
			}
			continue
		}
		copy(plane, fields[t].Data)
	}
	return flat
}
