package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/nwp-tools/precip-calib/internal/adapter/store/ncio"
	"github.com/nwp-tools/precip-calib/internal/domain"
)

// RunInfo identifies one produced probability file, parsed from its name.
type RunInfo struct {
	Model string `json:"model"`
	Init  string `json:"init"`
	Lead  int    `json:"lead_hours"`
	Mode  string `json:"mode"`
	File  string `json:"file"`
}

var runNamePattern = regexp.MustCompile(`^probfcst_([A-Z]+)_(\d{10})_f(\d{3})_([a-z]+)\.nc$`)

// ListRuns scans dir for probability output files.
func ListRuns(dir string) ([]RunInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory %s: %w", dir, err)
	}
	runs := make([]RunInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := runNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		lead := 100*int(m[3][0]-'0') + 10*int(m[3][1]-'0') + int(m[3][2]-'0')
		runs = append(runs, RunInfo{Model: m[1], Init: m[2], Lead: lead, Mode: m[4], File: e.Name()})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].File < runs[j].File })
	return runs, nil
}

// Read loads a probability output file back: grid geometry, thresholds and
// all probability variables present.
func Read(dir, file string) (*domain.Geometry, *ProbabilitySet, error) {
	path := filepath.Join(dir, filepath.Base(file))
	f, err := ncio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	ny, err := f.DimLen("y")
	if err != nil {
		return nil, nil, err
	}
	nx, err := f.DimLen("x")
	if err != nil {
		return nil, nil, err
	}
	nt, err := f.DimLen("threshold")
	if err != nil {
		return nil, nil, err
	}

	geom := &domain.Geometry{NY: ny, NX: nx}
	if geom.Lats, err = f.Float1D("lats", ny); err != nil {
		return nil, nil, err
	}
	if geom.Lons, err = f.Float1D("lons", nx); err != nil {
		return nil, nil, err
	}
	if geom.Mask, err = f.Bytes2D("mask", ny, nx); err != nil {
		return nil, nil, err
	}

	set := &ProbabilitySet{}
	if set.Thresholds, err = f.Float1D("thresholds", nt); err != nil {
		return nil, nil, err
	}

	read := func(name string) ([]*domain.GridField, error) {
		flat, err := f.Float3D(name, nt, ny, nx)
		if err != nil {
			return nil, err
		}
		fields := make([]*domain.GridField, nt)
		cells := ny * nx
		for t := 0; t < nt; t++ {
			fields[t] = &domain.GridField{NY: ny, NX: nx, Data: flat[t*cells : (t+1)*cells]}
		}
		return fields, nil
	}
	if set.Raw, err = read("prob_raw"); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if set.QMapped, err = read("prob_qmapped"); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if set.Dressed, err = read("prob_dressed"); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	// CSGD grid is present only when that path ran.
	if csgd, err := read("prob_csgd"); err == nil {
		set.CSGD = csgd
	}
	return geom, set, nil
}
